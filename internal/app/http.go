package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-settlement/internal/http"
	httpH "github.com/yungbote/groupbuy-settlement/internal/http/handlers"
	httpMW "github.com/yungbote/groupbuy-settlement/internal/http/middleware"
	"github.com/yungbote/groupbuy-settlement/internal/observability"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Campaign   *httpH.CampaignHandler
	Order      *httpH.OrderHandler
	Disclosure *httpH.DisclosureHandler
	Refund     *httpH.RefundHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Campaign:   httpH.NewCampaignHandler(services.Campaigns, services.Queries),
		Order:      httpH.NewOrderHandler(services.Orders, services.Queries),
		Disclosure: httpH.NewDisclosureHandler(log, services.Disclosures, services.Queries),
		Refund:     httpH.NewRefundHandler(services.Refunds, services.Queries),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		TracingEnabled:    cfg.Otel.Enabled,
		ServiceName:       cfg.Otel.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		CampaignHandler:   handlers.Campaign,
		OrderHandler:      handlers.Order,
		DisclosureHandler: handlers.Disclosure,
		RefundHandler:     handlers.Refund,
		HealthHandler:     handlers.Health,
	})
}
