package daemon

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// metrics publishes the daemon's operational counters. The stdout exporter
// keeps the dependency surface small; operators point a collector at the
// log stream.
type metrics struct {
	provider *sdkmetric.MeterProvider

	blocks    metric.Int64Counter
	height    metric.Int64Gauge
	blockTime metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(time.Minute))),
	)
	meter := provider.Meter("hexfrontd")

	m := &metrics{provider: provider}
	if m.blocks, err = meter.Int64Counter("hexfront.blocks.processed"); err != nil {
		return nil, err
	}
	if m.height, err = meter.Int64Gauge("hexfront.chain.height"); err != nil {
		return nil, err
	}
	if m.blockTime, err = meter.Float64Histogram("hexfront.block.duration",
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) blockProcessed(ctx context.Context, height uint64, took time.Duration) {
	m.blocks.Add(ctx, 1)
	m.height.Record(ctx, int64(height))
	m.blockTime.Record(ctx, float64(took.Milliseconds()),
		metric.WithAttributes(attribute.Bool("catchup", took < time.Second)))
}

// Shutdown flushes pending metric exports.
func (m *metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
