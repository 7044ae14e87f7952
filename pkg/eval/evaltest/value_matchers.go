package evaltest

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"

	"github.com/sandcalc/sandcalc/pkg/eval/vals"
)

// ValueMatcher is a value that can be passed to [Case.Gives] and [Case.Binds]
// and has its own matching semantics.
type ValueMatcher interface{ matchValue(any) bool }

// Anything matches anything.
var Anything ValueMatcher = anything{}

type anything struct{}

func (anything) matchValue(any) bool { return true }
func (anything) String() string      { return "anything" }

// AnyInteger matches any int or *big.Int.
var AnyInteger ValueMatcher = anyInteger{}

type anyInteger struct{}

func (anyInteger) matchValue(x any) bool {
	switch x.(type) {
	case int, *big.Int:
		return true
	default:
		return false
	}
}

func (anyInteger) String() string { return "any integer" }

// ApproximatelyThreshold defines the threshold for matching float64 values when
// using [Approximately].
const ApproximatelyThreshold = 1e-12

// Approximately matches a float64 within the threshold defined by
// [ApproximatelyThreshold].
func Approximately(f float64) ValueMatcher { return approximately{f} }

type approximately struct{ value float64 }

func (a approximately) matchValue(value any) bool {
	if value, ok := value.(float64); ok {
		return matchFloat64(a.value, value, ApproximatelyThreshold)
	}
	return false
}

func (a approximately) String() string { return fmt.Sprintf("approximately %v", a.value) }

func matchFloat64(a, b, threshold float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if math.IsInf(a, 0) && math.IsInf(b, 0) &&
		math.Signbit(a) == math.Signbit(b) {
		return true
	}
	return math.Abs(a-b) <= threshold
}

// StringMatching matches any string matching a regexp pattern. If the pattern
// is not a valid regexp, the function panics.
func StringMatching(p string) ValueMatcher { return stringMatching{regexp.MustCompile(p)} }

type stringMatching struct{ pattern *regexp.Regexp }

func (s stringMatching) matchValue(value any) bool {
	if value, ok := value.(string); ok {
		return s.pattern.MatchString(value)
	}
	return false
}

func (s stringMatching) String() string { return "string matching " + s.pattern.String() }

// ReprIs matches any value whose representation is s.
func ReprIs(s string) ValueMatcher { return reprIs{s} }

type reprIs struct{ repr string }

func (r reprIs) matchValue(value any) bool { return vals.Repr(value) == r.repr }
func (r reprIs) String() string            { return "value with repr " + r.repr }

// Matches a got value against want. Values of different Go types never
// match, so that a Decimal result does not match a native int. Elements of
// containers are compared with vals.Equal.
func match(got, want any) bool {
	if m, ok := want.(ValueMatcher); ok {
		return m.matchValue(got)
	}
	if f, ok := want.(float64); ok {
		g, ok := got.(float64)
		return ok && matchFloat64(g, f, 0)
	}
	if reflect.TypeOf(got) != reflect.TypeOf(want) {
		return false
	}
	return vals.Equal(got, want)
}
