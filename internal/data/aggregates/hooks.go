package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/observability"
)

// Hooks receives one signal per settlement write. Conflict, retry and rejection
// signals are emitted in addition to ObserveOperation, never instead of it.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
	// IncRejected fires when a ledger rule refused the write (bad state, capacity, auth...).
	IncRejected(op, code string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}
func (noopHooks) IncRejected(string, string)                     {}

type metricsHooks struct {
	m *observability.Metrics
}

func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{m: metrics}
}

func (h metricsHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(strings.TrimSpace(op), strings.TrimSpace(status), dur)
}

func (h metricsHooks) IncConflict(op string) { h.m.IncAggregateConflict(strings.TrimSpace(op)) }

func (h metricsHooks) IncRetry(op string) { h.m.IncAggregateRetry(strings.TrimSpace(op)) }

func (h metricsHooks) IncRejected(op, code string) {
	h.m.IncAggregateRejection(strings.TrimSpace(op), strings.TrimSpace(code))
}
