package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/http/response"
	"github.com/yungbote/groupbuy-settlement/internal/services"
)

type CampaignHandler struct {
	campaigns domainagg.CampaignAggregate
	queries   services.QueryService
}

func NewCampaignHandler(campaigns domainagg.CampaignAggregate, queries services.QueryService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, queries: queries}
}

type createCampaignRequest struct {
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	UnitPrice        int64     `json:"unit_price"`
	MinOrderQuantity int64     `json:"min_order_quantity"`
	MaxOrderQuantity int64     `json:"max_order_quantity"`
	Category         string    `json:"category"`
	Deadline         time.Time `json:"deadline"`
}

// POST /api/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_parameter", err)
		return
	}
	res, err := h.campaigns.CreateCampaign(c.Request.Context(), domainagg.CreateCampaignInput{
		Organizer:        act,
		Name:             req.Name,
		Description:      req.Description,
		UnitPrice:        req.UnitPrice,
		MinOrderQuantity: req.MinOrderQuantity,
		MaxOrderQuantity: req.MaxOrderQuantity,
		Category:         types.Category(req.Category),
		Deadline:         req.Deadline,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"campaign_id": res.CampaignID, "created_at": res.CreatedAt})
}

// GET /api/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	campaign, err := h.queries.GetCampaign(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign": campaign})
}

// POST /api/campaigns/:id/deactivate
func (h *CampaignHandler) DeactivateCampaign(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.campaigns.DeactivateCampaign(c.Request.Context(), domainagg.DeactivateCampaignInput{Organizer: act, CampaignID: id})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign_id": id, "active": false})
}

// GET /api/campaigns/:id/target
func (h *CampaignHandler) CheckTargetReached(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	reached, err := h.queries.CheckTargetReached(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"campaign_id": id, "target_reached": reached})
}

// POST /api/campaigns/:id/processing
func (h *CampaignHandler) BeginProcessing(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.campaigns.BeginProcessing(c.Request.Context(), domainagg.BeginProcessingInput{Organizer: act, CampaignID: id})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	transitioned := res.Transitioned
	if transitioned == nil {
		transitioned = []uint64{}
	}
	response.RespondOK(c, gin.H{"campaign_id": res.CampaignID, "transitioned": transitioned})
}

// GET /api/campaigns/:id/stats
func (h *CampaignHandler) GetStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stats, err := h.queries.GetStats(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}

// GET /api/campaigns/:id/orders
func (h *CampaignHandler) ListOrderIDs(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ids, err := h.queries.ListOrderIDs(c.Request.Context(), act, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	response.RespondOK(c, gin.H{"campaign_id": id, "order_ids": ids})
}

// GET /api/campaigns/:id/audit?after=<event id>&limit=<n>
func (h *CampaignHandler) ListAudit(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	after, _ := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := h.queries.ListAuditEvents(c.Request.Context(), act, id, after, limit)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}
