package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for the slot comparison pipeline.
// Instruments are no-ops unless a metric SDK reader is installed.
type Metrics struct {
	SlotReads  metric.Int64Counter
	ReadErrors metric.Int64Counter
	Mismatches metric.Int64Counter
}

// NewMetrics creates the slot comparison metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("slotsound")

	slotReads, err := meter.Int64Counter("slotsound.slot.reads",
		metric.WithDescription("Number of storage slot reads issued"),
	)
	if err != nil {
		return nil, err
	}

	readErrors, err := meter.Int64Counter("slotsound.slot.read_errors",
		metric.WithDescription("Number of storage slot reads that failed"),
	)
	if err != nil {
		return nil, err
	}

	mismatches, err := meter.Int64Counter("slotsound.compare.mismatches",
		metric.WithDescription("Number of slots whose values diverged"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		SlotReads:  slotReads,
		ReadErrors: readErrors,
		Mismatches: mismatches,
	}, nil
}

// RecordReads records one read pass against an endpoint side ("a" or "b").
func (m *Metrics) RecordReads(ctx context.Context, side string, issued, failed int) {
	attrs := metric.WithAttributes(attribute.String("side", side))
	m.SlotReads.Add(ctx, int64(issued), attrs)
	if failed > 0 {
		m.ReadErrors.Add(ctx, int64(failed), attrs)
	}
}

// RecordMismatches records the comparison outcome.
func (m *Metrics) RecordMismatches(ctx context.Context, n int) {
	m.Mismatches.Add(ctx, int64(n))
}
