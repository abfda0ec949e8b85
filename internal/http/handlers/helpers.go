package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/http/response"
	"github.com/yungbote/groupbuy-settlement/internal/services"
)

func requireActor(c *gin.Context) (types.Actor, bool) {
	act, ok := services.ActorFromContext(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing caller identity"))
		return types.Actor{}, false
	}
	return act, true
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_parameter", fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return id, true
}
