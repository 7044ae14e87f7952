package observability

import (
	"errors"

	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/parse"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
)

// Outcome classifies how a calculation ended.
type Outcome string

// Possible outcomes.
const (
	OutcomeOK              Outcome = "ok"
	OutcomeParseError      Outcome = "parse_error"
	OutcomePolicyViolation Outcome = "policy_violation"
	OutcomeNativeError     Outcome = "native_error"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeOutOfMemory     Outcome = "out_of_memory"
	OutcomeCrash           Outcome = "crash"
)

// Outcomes lists all outcomes in a stable order.
var Outcomes = []Outcome{
	OutcomeOK, OutcomeParseError, OutcomePolicyViolation, OutcomeNativeError,
	OutcomeTimeout, OutcomeOutOfMemory, OutcomeCrash,
}

// OutcomeOf classifies the error returned by a calculation.
func OutcomeOf(err error) Outcome {
	var exc *errs.Exception
	switch {
	case err == nil:
		return OutcomeOK
	case parse.UnpackError(err) != nil:
		return OutcomeParseError
	case eval.UnpackBadSyntax(err) != nil:
		return OutcomePolicyViolation
	case errors.As(err, &exc):
		return OutcomeNativeError
	case errors.Is(err, sandbox.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, sandbox.ErrOutOfMemory):
		return OutcomeOutOfMemory
	default:
		return OutcomeCrash
	}
}
