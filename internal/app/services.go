package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	"github.com/yungbote/groupbuy-settlement/internal/data/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/observability"
	"github.com/yungbote/groupbuy-settlement/internal/oracle"
	"github.com/yungbote/groupbuy-settlement/internal/payout"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
	"github.com/yungbote/groupbuy-settlement/internal/services"
	"github.com/yungbote/groupbuy-settlement/internal/temporalx/disclosurewatch"
)

type Services struct {
	Campaigns   domainagg.CampaignAggregate
	Orders      domainagg.OrderAggregate
	Disclosures domainagg.DisclosureAggregate
	Refunds     domainagg.RefundAggregate

	Auth    services.AuthService
	Queries services.QueryService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	deps := aggregates.SettlementDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Repos:         reposet,
		Boundary:      clients.Vault,
		Oracle:        clients.Oracle,
		Prover:        clients.Prover,
		Transferer:    payout.NewLedgerTransferer(reposet.Payout, log),
		Audit:         audit.NewWriter(reposet.Audit, clients.AuditPublisher, log),
		Metrics:       metrics,
		OrderLifetime: cfg.OrderLifetime,
		CallbackURL:   cfg.Oracle.CallbackURL,
	}
	if clients.Temporal != nil {
		deps.Watcher = &disclosurewatch.Watcher{
			Client:    clients.Temporal,
			TaskQueue: cfg.Temporal.TaskQueue,
			Log:       log.With("component", "DisclosureWatcher"),
		}
	}

	out := Services{
		Campaigns:   aggregates.NewCampaignAggregate(deps),
		Orders:      aggregates.NewOrderAggregate(deps),
		Disclosures: aggregates.NewDisclosureAggregate(deps),
		Refunds:     aggregates.NewRefundAggregate(deps),
		Auth:        services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.AdminIdentities),
		Queries:     services.NewQueryService(log, reposet, nil),
	}

	if clients.Simulator != nil {
		clients.Simulator.SetSink(callbackSink(log, out.Disclosures))
	}
	return out
}

// callbackSink feeds simulator callbacks into the disclosure aggregate. Only unknown-request and
// retryable rejections go back to the simulator for redelivery, since a callback can race the
// commit of its own request.
func callbackSink(log *logger.Logger, disclosures domainagg.DisclosureAggregate) oracle.Sink {
	return func(ctx context.Context, cb oracle.Callback) error {
		_, err := disclosures.OnDisclosureCallback(ctx, domainagg.DisclosureCallbackInput{
			RequestID:        cb.RequestID,
			RevealedQuantity: cb.RevealedQuantity,
			RevealedAmount:   cb.RevealedAmount,
			Proof:            cb.Proof,
		})
		switch {
		case err == nil:
			return nil
		case domainagg.IsCode(err, domainagg.CodeUnknownRequest), domainagg.IsCode(err, domainagg.CodeRetryable):
			return err
		default:
			log.Warn("Oracle callback rejected", "request_id", cb.RequestID, "code", domainagg.CodeOf(err), "error", err)
			return nil
		}
	}
}
