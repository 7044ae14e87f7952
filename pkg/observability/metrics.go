// Package observability instruments calculations with OpenTelemetry metrics
// and traces.
//
// Everything uses the global OTel providers, which do nothing until a host
// installs real ones. The REPL installs an in-memory meter provider through
// [NewStats] to show counts with the :stats command.
package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sandcalc/sandcalc/pkg/logutil"
)

var logger = logutil.GetLogger("[observability] ")

const instrumentationName = "sandcalc"

// Names of the instruments.
const (
	CalculationsMetric = "sandcalc.calculations"
	ErrorsMetric       = "sandcalc.calculation.errors"
	LatencyMetric      = "sandcalc.calculation.latency_ms"
)

// MetricsRecorder records calculation metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCalculation records one calculation with its outcome and how long
	// it took, including the time spent starting the worker.
	RecordCalculation(ctx context.Context, outcome Outcome, duration time.Duration)
}

type otelMetrics struct {
	calculations metric.Int64Counter
	errors       metric.Int64Counter
	latency      metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter(instrumentationName))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	calculations, err := meter.Int64Counter(CalculationsMetric,
		metric.WithDescription("Number of calculations"),
	)
	if err != nil {
		return nil, err
	}

	errors, err := meter.Int64Counter(ErrorsMetric,
		metric.WithDescription("Number of calculations that failed"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(LatencyMetric,
		metric.WithDescription("Calculation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{calculations, errors, latency}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses the global OTel meter
// provider. If metrics initialization fails, it returns a no-op recorder.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		logger.Println("metrics initialization failed, using no-op recorder:", err)
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordCalculation(ctx context.Context, outcome Outcome, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	m.calculations.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
	if outcome != OutcomeOK {
		m.errors.Add(ctx, 1, attrs)
	}
}
