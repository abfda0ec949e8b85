package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/groupbuy-settlement/internal/http/handlers"
	httpMW "github.com/yungbote/groupbuy-settlement/internal/http/middleware"
	"github.com/yungbote/groupbuy-settlement/internal/observability"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	TracingEnabled bool
	ServiceName    string
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware

	CampaignHandler   *httpH.CampaignHandler
	OrderHandler      *httpH.OrderHandler
	DisclosureHandler *httpH.DisclosureHandler
	RefundHandler     *httpH.RefundHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Oracle (public, proof-verified)
		if cfg.DisclosureHandler != nil {
			api.POST("/oracle/callback", cfg.DisclosureHandler.OracleCallback)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Campaigns
		if cfg.CampaignHandler != nil {
			protected.POST("/campaigns", cfg.CampaignHandler.CreateCampaign)
			protected.GET("/campaigns/:id", cfg.CampaignHandler.GetCampaign)
			protected.POST("/campaigns/:id/deactivate", cfg.CampaignHandler.DeactivateCampaign)
			protected.GET("/campaigns/:id/target", cfg.CampaignHandler.CheckTargetReached)
			protected.POST("/campaigns/:id/processing", cfg.CampaignHandler.BeginProcessing)
			protected.GET("/campaigns/:id/stats", cfg.CampaignHandler.GetStats)
			protected.GET("/campaigns/:id/orders", cfg.CampaignHandler.ListOrderIDs)
			protected.GET("/campaigns/:id/audit", cfg.CampaignHandler.ListAudit)
		}

		// Orders
		if cfg.OrderHandler != nil {
			protected.POST("/campaigns/:id/orders", cfg.OrderHandler.PlaceOrder)
			protected.GET("/orders/:id", cfg.OrderHandler.GetOrder)
			protected.POST("/orders/:id/cancel", cfg.OrderHandler.CancelOrder)
			protected.POST("/orders/:id/reclaim", cfg.OrderHandler.ReclaimOrder)
		}

		// Disclosure
		if cfg.DisclosureHandler != nil {
			protected.POST("/orders/:id/disclosure", cfg.DisclosureHandler.RequestDisclosure)
			protected.GET("/orders/:id/disclosure", cfg.DisclosureHandler.GetDisclosureStatus)
			protected.POST("/orders/:id/disclosure/timeout", cfg.DisclosureHandler.ApplyTimeout)
		}

		// Refunds
		if cfg.RefundHandler != nil {
			protected.GET("/refunds/:identity", cfg.RefundHandler.GetPendingRefund)
			protected.POST("/refunds/claim", cfg.RefundHandler.ClaimPendingRefund)
		}
	}

	return r
}
