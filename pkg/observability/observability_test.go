package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer(instrumentationName)
	t.Cleanup(func() {
		otel.SetTracerProvider(originalProvider)
		tracer = otel.Tracer(instrumentationName)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func setupMetricsTest(t *testing.T) (*otelMetrics, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })
	m, err := newOtelMetrics(provider.Meter(instrumentationName))
	require.NoError(t, err)
	return m, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumByOutcome(t *testing.T, m *metricdata.Metrics) map[string]int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		got[v.AsString()] += dp.Value
	}
	return got
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeOK},
		{runErr(t, "1 +"), OutcomeParseError},
		{runErr(t, "import os"), OutcomePolicyViolation},
		{runErr(t, "1 / 0"), OutcomeNativeError},
		{errs.New(errs.KeyError, "'a'"), OutcomeNativeError},
		{sandbox.ErrTimeout, OutcomeTimeout},
		{sandbox.ErrOutOfMemory, OutcomeOutOfMemory},
		{fmt.Errorf("%w: boom", sandbox.ErrWorkerCrashed), OutcomeCrash},
		{errors.New("anything else"), OutcomeCrash},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, OutcomeOf(test.err), "OutcomeOf(%v)", test.err)
	}
}

func runErr(t *testing.T, expr string) error {
	t.Helper()
	_, err := sandbox.InProcess{}.Calculate(context.Background(), sandbox.Request{Expr: expr})
	require.Error(t, err)
	return err
}

func TestRecordCalculation(t *testing.T) {
	m, reader := setupMetricsTest(t)
	ctx := context.Background()

	m.RecordCalculation(ctx, OutcomeOK, 5*time.Millisecond)
	m.RecordCalculation(ctx, OutcomeOK, 7*time.Millisecond)
	m.RecordCalculation(ctx, OutcomeTimeout, time.Second)

	assert.Equal(t, map[string]int64{"ok": 2, "timeout": 1},
		sumByOutcome(t, findMetric(t, reader, CalculationsMetric)))
	assert.Equal(t, map[string]int64{"timeout": 1},
		sumByOutcome(t, findMetric(t, reader, ErrorsMetric)))

	latency := findMetric(t, reader, LatencyMetric)
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestNewMetricsRecorder(t *testing.T) {
	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestSpanManager(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartCalculateSpan(context.Background(), "req-1", true)
	sm.EndSpan(span, OutcomeOK, nil)
	_, span = sm.StartCalculateSpan(context.Background(), "req-2", false)
	sm.EndSpan(span, OutcomeTimeout, sandbox.ErrTimeout)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, CalculateSpan, spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("calculation.id", "req-1"))
	assert.Contains(t, spans[0].Attributes, attribute.Bool("calculation.decimal", true))
	assert.Contains(t, spans[0].Attributes, attribute.String("calculation.outcome", "ok"))
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, sandbox.ErrTimeout.Error(), spans[1].Status.Description)
	require.Len(t, spans[1].Events, 1)
	assert.Equal(t, "exception", spans[1].Events[0].Name)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	NoopMetrics{}.RecordCalculation(ctx, OutcomeOK, time.Second)
	gotCtx, span := NoopSpanManager{}.StartCalculateSpan(ctx, "id", true)
	assert.Equal(t, ctx, gotCtx)
	assert.False(t, span.IsRecording())
	NoopSpanManager{}.EndSpan(span, OutcomeOK, nil)
}

func TestRunner(t *testing.T) {
	exporter := setupTracingTest(t)
	m, reader := setupMetricsTest(t)
	r := Runner{sandbox.InProcess{}, m, NewSpanManager()}
	ctx := context.Background()

	resp, err := r.Calculate(ctx, sandbox.Request{Expr: "6 * 7"})
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Value)
	assert.NotEmpty(t, resp.ID)

	_, err = r.Calculate(ctx, sandbox.Request{ID: "bad", Expr: "1 / 0"})
	require.Error(t, err)

	assert.Equal(t, map[string]int64{"ok": 1, "native_error": 1},
		sumByOutcome(t, findMetric(t, reader, CalculationsMetric)))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Contains(t, spans[0].Attributes, attribute.String("calculation.id", resp.ID))
	assert.Contains(t, spans[1].Attributes, attribute.String("calculation.id", "bad"))
	assert.Contains(t, spans[1].Attributes, attribute.String("calculation.outcome", "native_error"))
}

func TestStats(t *testing.T) {
	stats, err := NewStats()
	require.NoError(t, err)
	defer stats.Shutdown(context.Background())
	ctx := context.Background()

	counts, err := stats.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	r := Runner{sandbox.InProcess{}, stats, NoopSpanManager{}}
	r.Calculate(ctx, sandbox.Request{Expr: "1"})
	r.Calculate(ctx, sandbox.Request{Expr: "2"})
	r.Calculate(ctx, sandbox.Request{Expr: "lambda: 1"})

	counts, err = stats.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[Outcome]int64{OutcomeOK: 2, OutcomePolicyViolation: 1}, counts)
}
