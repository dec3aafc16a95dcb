package otel

import (
	"context"
	"sync"

	"github.com/aegiswhistle/aegis/pkg/models"
	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce     sync.Once
	lifecycleOpsCounter metric.Int64Counter
	intakeCounter       metric.Int64Counter
	storeErrorsCounter  metric.Int64Counter
	sseConnectionsGauge metric.Int64ObservableGauge
	sseEventsCounter    metric.Int64Counter
	sseConnections      int64
	sseConnectionsMu    sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		lifecycleOpsCounter, err = m.Int64Counter("aegis_lifecycle_operations_total", metric.WithDescription("Lifecycle operations applied (assign, change_status, add_note)"))
		if err != nil {
			return
		}
		intakeCounter, err = m.Int64Counter("aegis_intake_submissions_total", metric.WithDescription("Reports submitted through intake"))
		if err != nil {
			return
		}
		storeErrorsCounter, err = m.Int64Counter("aegis_store_errors_total", metric.WithDescription("Failed persistence calls by backend and operation"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("aegis_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("aegis_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
	})
	return err
}

// RecordLifecycleOp records one applied lifecycle operation and the report's resulting status.
func RecordLifecycleOp(ctx context.Context, op, status string) {
	if lifecycleOpsCounter == nil {
		return
	}
	lifecycleOpsCounter.Add(ctx, 1, metric.WithAttributes(
		AttrOperation.String(op),
		AttrStatus.String(status),
	))
}

// RecordIntake records a submitted report; fallback is true when it was stored locally.
func RecordIntake(ctx context.Context, kind string, fallback bool) {
	if intakeCounter == nil {
		return
	}
	intakeCounter.Add(ctx, 1, metric.WithAttributes(AttrKind.String(kind), AttrFallback.Bool(fallback)))
}

// RecordStoreError records a failed load, save, or insert.
func RecordStoreError(ctx context.Context, backend, op string) {
	if storeErrorsCounter == nil {
		return
	}
	storeErrorsCounter.Add(ctx, 1, metric.WithAttributes(AttrBackend.String(backend), AttrOperation.String(op)))
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}

// StatusCountFunc returns the current per-status report counts. Used for the aegis_reports gauge.
type StatusCountFunc func(ctx context.Context) models.StatusCounts

// InitMetricsWithStatusCount creates instruments and optionally registers a callback for the
// reports-by-status gauge. Call after InitMeterProvider. If count is nil, the gauge is not reported.
func InitMetricsWithStatusCount(ctx context.Context, count StatusCountFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if count == nil {
		return nil
	}
	m := Meter()
	reportsGauge, err := m.Int64ObservableGauge("aegis_reports", metric.WithDescription("Number of reports by status"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		counts := count(ctx)
		for _, s := range models.Statuses {
			o.ObserveInt64(reportsGauge, int64(counts[s]), metric.WithAttributes(AttrStatus.String(string(s))))
		}
		return nil
	}, reportsGauge)
	return err
}
