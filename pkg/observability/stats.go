package observability

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Stats is a MetricsRecorder that keeps its metrics in memory, so that they
// can be read back.
type Stats struct {
	MetricsRecorder
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewStats creates a Stats with its own meter provider.
func NewStats() (*Stats, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newOtelMetrics(provider.Meter(instrumentationName))
	if err != nil {
		provider.Shutdown(context.Background())
		return nil, err
	}
	return &Stats{m, reader, provider}, nil
}

// Counts returns the number of calculations by outcome. Outcomes that never
// happened are absent.
func (s *Stats) Counts(ctx context.Context) (map[Outcome]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	counts := map[Outcome]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != CalculationsMetric {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("outcome"); ok {
					counts[Outcome(v.AsString())] += dp.Value
				}
			}
		}
	}
	return counts, nil
}

// Shutdown releases the meter provider.
func (s *Stats) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}
