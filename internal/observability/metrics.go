package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqError *Counter

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec
	aggregateRejects   *CounterVec

	refunds      *CounterVec
	refundAmount *CounterVec
	disclosures  *CounterVec
	timeoutScans *CounterVec

	ordersByStatus *GaugeVec
	dbStats        *GaugeVec
	redisUp        *Gauge
	redisPing      *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// New builds an unregistered Metrics set.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("gb_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"gb_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("gb_api_inflight_requests", "In-flight API requests."),
		apiReqError: NewCounter("gb_api_requests_error_total", "API requests answered with 5xx."),

		aggregateOps: NewCounterVec("gb_aggregate_operations_total", "Aggregate write operations by op/status.", []string{"op", "status"}),
		aggregateLatency: NewHistogramVec(
			"gb_aggregate_operation_duration_seconds",
			"Aggregate write latency in seconds by op/status.",
			[]string{"op", "status"},
			nil,
		),
		aggregateConflicts: NewCounterVec("gb_aggregate_conflicts_total", "Aggregate writes rejected by a concurrency conflict.", []string{"op"}),
		aggregateRetries:   NewCounterVec("gb_aggregate_retryable_total", "Aggregate writes failed with a retryable error.", []string{"op"}),
		aggregateRejects:   NewCounterVec("gb_aggregate_rejections_total", "Aggregate writes refused by a ledger rule, by op/code.", []string{"op", "code"}),

		refunds:      NewCounterVec("gb_refunds_total", "Refund settlements by outcome.", []string{"outcome"}),
		refundAmount: NewCounterVec("gb_refund_amount_total", "Refunded monetary units by outcome.", []string{"outcome"}),
		disclosures:  NewCounterVec("gb_disclosures_total", "Disclosure protocol events by outcome.", []string{"outcome"}),
		timeoutScans: NewCounterVec("gb_disclosure_timeout_scans_total", "Overdue disclosure scans by result.", []string{"result"}),

		ordersByStatus: NewGaugeVec("gb_orders", "Orders by status.", []string{"status"}),
		dbStats:        NewGaugeVec("gb_db_pool", "Ledger store connection pool stats.", []string{"stat"}),
		redisUp:        NewGauge("gb_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing:      NewGauge("gb_redis_ping_seconds", "Last redis ping latency."),

		scrapeInterval: 15 * time.Second,
	}
}

// Init returns the process-wide Metrics, or nil when disabled. Every method is nil-safe.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
	})
	return instance
}

func Current() *Metrics {
	return instance
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, pw := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries, m.aggregateRejects,
		m.refunds, m.refundAmount, m.disclosures, m.timeoutScans,
		m.ordersByStatus, m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

func (m *Metrics) IncAggregateRejection(op, code string) {
	if m == nil {
		return
	}
	m.aggregateRejects.Inc(op, code)
}

// ObserveRefund records a refund settlement. outcome is transferred, deferred or claimed.
func (m *Metrics) ObserveRefund(outcome string, amount int64) {
	if m == nil {
		return
	}
	m.refunds.Inc(outcome)
	m.refundAmount.Add(float64(amount), outcome)
}

func (m *Metrics) IncDisclosure(outcome string) {
	if m == nil {
		return
	}
	m.disclosures.Inc(outcome)
}

func (m *Metrics) IncTimeoutScan(result string) {
	if m == nil {
		return
	}
	m.timeoutScans.Inc(result)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

// StartOrderStatusCollector periodically gauges order counts per status.
func (m *Metrics) StartOrderStatusCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.collectOrderStatus(ctx, db); err != nil && log != nil {
					log.Warn("metrics: order status query failed", "error", err)
				}
			}
		}
	}()
}

func (m *Metrics) collectOrderStatus(ctx context.Context, db *gorm.DB) error {
	for _, s := range []types.OrderStatus{
		types.OrderPending, types.OrderProcessing, types.OrderCompleted, types.OrderCancelled, types.OrderRefunded,
	} {
		m.ordersByStatus.Set(0, string(s))
	}
	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&types.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		status := strings.TrimSpace(row.Status)
		if status == "" {
			status = "unknown"
		}
		m.ordersByStatus.Set(float64(row.Count), status)
	}
	return nil
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}
