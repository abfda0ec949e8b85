package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/http/response"
	"github.com/yungbote/groupbuy-settlement/internal/services"
)

type OrderHandler struct {
	orders  domainagg.OrderAggregate
	queries services.QueryService
}

func NewOrderHandler(orders domainagg.OrderAggregate, queries services.QueryService) *OrderHandler {
	return &OrderHandler{orders: orders, queries: queries}
}

type refundView struct {
	Recipient   string `json:"recipient"`
	Amount      int64  `json:"amount"`
	Transferred bool   `json:"transferred"`
	PayoutID    string `json:"payout_id,omitempty"`
}

func newRefundView(r domainagg.RefundOutcome) refundView {
	return refundView{Recipient: r.Recipient, Amount: r.Amount, Transferred: r.Transferred, PayoutID: r.PayoutID}
}

type placeOrderRequest struct {
	Quantity   int64 `json:"quantity"`
	PaidAmount int64 `json:"paid_amount"`
}

// POST /api/campaigns/:id/orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	campaignID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_parameter", err)
		return
	}
	res, err := h.orders.PlaceOrder(c.Request.Context(), domainagg.PlaceOrderInput{
		Participant: act,
		CampaignID:  campaignID,
		Quantity:    req.Quantity,
		PaidAmount:  req.PaidAmount,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"order_id":            res.OrderID,
		"campaign_id":         res.CampaignID,
		"status":              res.Status,
		"disclosure_deadline": res.DisclosureDeadline,
	})
}

// GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.queries.GetOrder(c.Request.Context(), act, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

// POST /api/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	h.withdraw(c, h.orders.CancelOrder)
}

// POST /api/orders/:id/reclaim
func (h *OrderHandler) ReclaimOrder(c *gin.Context) {
	h.withdraw(c, h.orders.ReclaimUnfilledOrder)
}

func (h *OrderHandler) withdraw(c *gin.Context, fn func(ctx context.Context, in domainagg.CancelOrderInput) (domainagg.CancelOrderResult, error)) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), domainagg.CancelOrderInput{Participant: act, OrderID: id})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order_id": res.OrderID, "status": res.Status, "refund": newRefundView(res.Refund)})
}
