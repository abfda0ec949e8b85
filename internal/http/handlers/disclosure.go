package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/http/response"
	"github.com/yungbote/groupbuy-settlement/internal/oracle"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
	"github.com/yungbote/groupbuy-settlement/internal/services"
)

type DisclosureHandler struct {
	log        *logger.Logger
	disclosure domainagg.DisclosureAggregate
	queries    services.QueryService
}

func NewDisclosureHandler(log *logger.Logger, disclosure domainagg.DisclosureAggregate, queries services.QueryService) *DisclosureHandler {
	return &DisclosureHandler{log: log.With("handler", "DisclosureHandler"), disclosure: disclosure, queries: queries}
}

// POST /api/orders/:id/disclosure
func (h *DisclosureHandler) RequestDisclosure(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.disclosure.RequestDisclosure(c.Request.Context(), domainagg.RequestDisclosureInput{Participant: act, OrderID: id})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"order_id": res.OrderID, "request_id": res.RequestID, "deadline": res.Deadline})
}

// GET /api/orders/:id/disclosure
func (h *DisclosureHandler) GetDisclosureStatus(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.queries.GetDisclosureStatus(c.Request.Context(), act, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"disclosure": view})
}

// POST /api/orders/:id/disclosure/timeout
func (h *DisclosureHandler) ApplyTimeout(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.disclosure.OnDisclosureTimeout(c.Request.Context(), domainagg.DisclosureTimeoutInput{Administrator: act, OrderID: id})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order_id": res.OrderID, "status": res.Status, "refund": newRefundView(res.Refund)})
}

// POST /api/oracle/callback
// Unauthenticated; the proof carried in the body is what authorizes the result.
func (h *DisclosureHandler) OracleCallback(c *gin.Context) {
	var cb oracle.Callback
	if err := c.ShouldBindJSON(&cb); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_parameter", err)
		return
	}
	res, err := h.disclosure.OnDisclosureCallback(c.Request.Context(), domainagg.DisclosureCallbackInput{
		RequestID:        cb.RequestID,
		RevealedQuantity: cb.RevealedQuantity,
		RevealedAmount:   cb.RevealedAmount,
		Proof:            cb.Proof,
	})
	if err != nil {
		h.log.Warn("Oracle callback rejected", "request_id", cb.RequestID, "code", domainagg.CodeOf(err))
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order_id": res.OrderID, "status": res.Status})
}
