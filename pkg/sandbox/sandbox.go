// Package sandbox runs calculations in isolated worker processes.
//
// A worker is the sandcalc binary itself started with the -worker flag. The
// parent sends it one calculate request over a JSON-RPC connection on the
// worker's stdin and stdout, and the worker answers it and exits. The worker
// limits its own address space before evaluating anything; the parent kills
// the worker's whole process group when the deadline of the request passes.
//
// Values and errors cross the process boundary in the tagged JSON encoding
// implemented by [EncodeValue] and [EncodeError], and are rebuilt with their
// original Go types on the other side.
package sandbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sandcalc/sandcalc/pkg/logutil"
)

var logger = logutil.GetLogger("[sandbox] ")

// Errors synthesized at the process boundary. They are distinct from every
// error the evaluator itself produces.
var (
	// ErrTimeout is returned when the calculation does not finish before the
	// deadline.
	ErrTimeout = errors.New("calculation timed out")
	// ErrOutOfMemory is returned when the worker exceeds its memory limit.
	ErrOutOfMemory = errors.New("calculation ran out of memory")
	// ErrWorkerCrashed is returned when the worker dies for any other reason.
	ErrWorkerCrashed = errors.New("worker crashed")
)

// Defaults of Config.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultMemoryLimit = 512 << 20
)

// Request is a request to calculate.
type Request struct {
	// Identifies the request in logs. Filled in by Calculate when empty.
	ID      string
	Expr    string
	Decimal bool
	// Bindings installed before the run, as if assigned by an earlier
	// calculation.
	Bindings map[string]any
}

// Response is the result of a successful calculation.
type Response struct {
	ID       string
	Value    any
	Bindings map[string]any
}

// Runner runs calculations.
type Runner interface {
	// Calculate runs one calculation. Errors from the evaluator are returned
	// unchanged; ErrTimeout, ErrOutOfMemory and ErrWorkerCrashed come from
	// the isolation boundary.
	Calculate(ctx context.Context, req Request) (*Response, error)
}

func ensureID(req *Request) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
}

// Wire forms of Request and Response.
type (
	wireRequest struct {
		ID       string           `json:"id"`
		Expr     string           `json:"expr"`
		Decimal  bool             `json:"decimal"`
		Bindings map[string]Value `json:"bindings,omitempty"`
	}
	wireResponse struct {
		ID       string           `json:"id"`
		Value    *Value           `json:"value,omitempty"`
		Bindings map[string]Value `json:"bindings,omitempty"`
		Error    *Error           `json:"error,omitempty"`
	}
)

func encodeRequest(req Request) (*wireRequest, error) {
	bindings, err := EncodeBindings(req.Bindings)
	if err != nil {
		return nil, err
	}
	return &wireRequest{req.ID, req.Expr, req.Decimal, bindings}, nil
}

func (w *wireRequest) decode() (Request, error) {
	bindings, err := DecodeBindings(w.Bindings)
	if err != nil {
		return Request{}, err
	}
	return Request{w.ID, w.Expr, w.Decimal, bindings}, nil
}

func encodeResponse(id string, resp *Response, err error) *wireResponse {
	w := &wireResponse{ID: id}
	if err != nil {
		w.Error = EncodeError(err)
		return w
	}
	v, err := EncodeValue(resp.Value)
	if err != nil {
		w.Error = EncodeError(err)
		return w
	}
	bindings, err := EncodeBindings(resp.Bindings)
	if err != nil {
		w.Error = EncodeError(err)
		return w
	}
	w.Value, w.Bindings = &v, bindings
	return w
}

func (w *wireResponse) decode() (*Response, error) {
	if w.Error != nil {
		return nil, w.Error.Decode()
	}
	if w.Value == nil {
		return nil, errors.New("response has neither value nor error")
	}
	v, err := DecodeValue(*w.Value)
	if err != nil {
		return nil, err
	}
	bindings, err := DecodeBindings(w.Bindings)
	if err != nil {
		return nil, err
	}
	return &Response{ID: w.ID, Value: v, Bindings: bindings}, nil
}
