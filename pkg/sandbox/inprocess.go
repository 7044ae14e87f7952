package sandbox

import (
	"context"
	"errors"

	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

// InProcess runs calculations in the calling process. It enforces the
// deadline of the context by cancelling the evaluation, but not the memory
// limit.
type InProcess struct{}

var _ Runner = InProcess{}

func (InProcess) Calculate(ctx context.Context, req Request) (*Response, error) {
	ensureID(&req)
	return calculate(ctx, req)
}

func calculate(ctx context.Context, req Request) (*Response, error) {
	ev := eval.New(eval.Config{Decimal: req.Decimal})
	ev.Bind(req.Bindings)
	r, err := ev.RunContext(ctx, parse.Source{Name: "[calc]", Code: req.Expr})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return &Response{ID: req.ID, Value: r.Value, Bindings: r.Bindings}, nil
}
