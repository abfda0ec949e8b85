package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

func wireRepos(db *gorm.DB, log *logger.Logger) repos.Set {
	log.Info("Wiring repos...")
	return repos.NewSet(db, log)
}
