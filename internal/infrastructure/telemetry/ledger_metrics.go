package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/sangkips/backoffice-api/ledger"

// LedgerMetrics records audit outcomes and settlement progress. A nil
// *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	auditEvents metric.Int64Counter
	steps       metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("NewLedgerMetrics: meter cannot be nil")
	}

	auditEvents, err := meter.Int64Counter("ledger.audit.events",
		metric.WithDescription("Ledger outcomes surfaced to operators"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.audit.events: %w", err)
	}

	steps, err := meter.Int64Counter("settlement.steps",
		metric.WithDescription("Settlement steps executed, by ledger and result"),
		metric.WithUnit("{step}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter settlement.steps: %w", err)
	}

	duration, err := meter.Float64Histogram("settlement.duration",
		metric.WithDescription("Time spent running a settlement"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram settlement.duration: %w", err)
	}

	return &LedgerMetrics{auditEvents: auditEvents, steps: steps, duration: duration}, nil
}

// MeterName is the instrumentation scope used for ledger metrics.
func MeterName() string { return meterName }

// RecordAuditEvent counts one audit outcome.
func (m *LedgerMetrics) RecordAuditEvent(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.auditEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordStep counts one executed settlement step.
func (m *LedgerMetrics) RecordStep(ctx context.Context, kind, status string) {
	if m == nil {
		return
	}
	m.steps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status)))
}

// RecordSettlement records how long a settlement run took and how it ended.
func (m *LedgerMetrics) RecordSettlement(ctx context.Context, elapsed time.Duration, status string) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}
