package observability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sandcalc/sandcalc/pkg/sandbox"
)

// Runner wraps a sandbox.Runner, recording a span and metrics for every
// calculation.
type Runner struct {
	Runner  sandbox.Runner
	Metrics MetricsRecorder
	Spans   SpanManager
}

var _ sandbox.Runner = Runner{}

// Instrument wraps r with the OTel metrics recorder and span manager.
func Instrument(r sandbox.Runner) Runner {
	return Runner{r, NewMetricsRecorder(), NewSpanManager()}
}

func (r Runner) Calculate(ctx context.Context, req sandbox.Request) (*sandbox.Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ctx, span := r.Spans.StartCalculateSpan(ctx, req.ID, req.Decimal)
	start := time.Now()
	resp, err := r.Runner.Calculate(ctx, req)
	outcome := OutcomeOf(err)
	r.Metrics.RecordCalculation(ctx, outcome, time.Since(start))
	r.Spans.EndSpan(span, outcome, err)
	return resp, err
}
