package handlers

import (
	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/http/response"
	"github.com/yungbote/groupbuy-settlement/internal/services"
)

type RefundHandler struct {
	refunds domainagg.RefundAggregate
	queries services.QueryService
}

func NewRefundHandler(refunds domainagg.RefundAggregate, queries services.QueryService) *RefundHandler {
	return &RefundHandler{refunds: refunds, queries: queries}
}

// GET /api/refunds/:identity
func (h *RefundHandler) GetPendingRefund(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	bal, err := h.queries.GetPendingRefund(c.Request.Context(), act, c.Param("identity"))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"refund": bal})
}

// POST /api/refunds/claim
func (h *RefundHandler) ClaimPendingRefund(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	out, err := h.refunds.ClaimPendingRefund(c.Request.Context(), domainagg.ClaimPendingRefundInput{Participant: act})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"refund": newRefundView(out)})
}
