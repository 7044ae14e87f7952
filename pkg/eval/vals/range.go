package vals

import (
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Range is an immutable arithmetic sequence of ints, the value of range().
type Range struct {
	Start, Stop, Step int
}

// NewRange implements range() with one to three integer arguments.
func NewRange(args ...any) (Range, error) {
	if len(args) < 1 || len(args) > 3 {
		return Range{}, errs.Arity("range", 1, 3, len(args))
	}
	ns := make([]int, len(args))
	for i, a := range args {
		n, err := ToIndex(a)
		if err != nil {
			return Range{}, err
		}
		ns[i] = n
	}
	r := Range{Step: 1}
	switch len(ns) {
	case 1:
		r.Stop = ns[0]
	case 2:
		r.Start, r.Stop = ns[0], ns[1]
	case 3:
		r.Start, r.Stop, r.Step = ns[0], ns[1], ns[2]
	}
	if r.Step == 0 {
		return Range{}, errs.New(errs.ValueError, "range() arg 3 must not be zero")
	}
	return r, nil
}

// Len returns the number of elements.
func (r Range) Len() int {
	if r.Step > 0 && r.Start < r.Stop {
		return (r.Stop-r.Start-1)/r.Step + 1
	}
	if r.Step < 0 && r.Start > r.Stop {
		return (r.Start-r.Stop-1)/(-r.Step) + 1
	}
	return 0
}

// At returns the i-th element. The index must be in range.
func (r Range) At(i int) int { return r.Start + i*r.Step }

func (r Range) Repr() string {
	if r.Step == 1 {
		return "range(" + Repr(r.Start) + ", " + Repr(r.Stop) + ")"
	}
	return "range(" + Repr(r.Start) + ", " + Repr(r.Stop) + ", " + Repr(r.Step) + ")"
}

// Equal compares ranges as sequences.
func (r Range) Equal(other any) bool {
	o, ok := other.(Range)
	if !ok {
		return false
	}
	n := r.Len()
	if n != o.Len() {
		return false
	}
	return n == 0 || r.Start == o.Start && (n == 1 || r.Step == o.Step)
}

// Contains reports whether v is an element of the range.
func (r Range) Contains(v any) bool {
	var i int
	switch v := v.(type) {
	case bool, int:
		i, _ = smallInt(v)
	default:
		// Other numbers are compared by equality.
		for j := 0; j < r.Len(); j++ {
			if Equal(r.At(j), v) {
				return true
			}
		}
		return false
	}
	if r.Step > 0 && (i < r.Start || i >= r.Stop) || r.Step < 0 && (i > r.Start || i <= r.Stop) {
		return false
	}
	return (i-r.Start)%r.Step == 0
}

// Slice returns the subrange selected by a slice.
func (r Range) Slice(s Slice) (Range, error) {
	start, stop, step, err := s.Indices(r.Len())
	if err != nil {
		return Range{}, err
	}
	return Range{r.At(start), r.At(stop), r.Step * step}, nil
}

// DecimalRange is the range used in decimal mode. Its bounds and step may be
// any decimal, not just integers.
type DecimalRange struct {
	Start, Stop, Step *Decimal
}

// NewDecimalRange implements range() with one to three numeric arguments in
// decimal mode.
func NewDecimalRange(args ...any) (*DecimalRange, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, errs.Arity("range", 1, 3, len(args))
	}
	ds := make([]*Decimal, len(args))
	for i, a := range args {
		d, ok := ToDecimal(a)
		if !ok {
			return nil, errs.Newf(errs.TypeError, "'%s' object cannot be interpreted as a number", TypeName(a))
		}
		if d.IsNaN() || d.IsInf() {
			return nil, errs.Newf(errs.ValueError, "range() arguments must be finite, not %s", d)
		}
		ds[i] = d
	}
	r := &DecimalRange{Start: DecimalFromInt(0), Step: DecimalFromInt(1)}
	switch len(ds) {
	case 1:
		r.Stop = ds[0]
	case 2:
		r.Start, r.Stop = ds[0], ds[1]
	case 3:
		r.Start, r.Stop, r.Step = ds[0], ds[1], ds[2]
	}
	if r.Step.Sign() == 0 {
		return nil, errs.New(errs.ValueError, "range() arg 3 must not be zero")
	}
	return r, nil
}

// Len returns the number of elements, ceil((stop - start) / step) if
// positive.
func (r *DecimalRange) Len() (int, error) {
	span, err := r.Stop.Sub(r.Start)
	if err != nil {
		return 0, err
	}
	q, err := span.TrueDiv(r.Step)
	if err != nil {
		return 0, err
	}
	if q.Sign() <= 0 {
		return 0, nil
	}
	n, err := q.Ceil()
	if err != nil {
		return 0, err
	}
	i, ok := n.(int)
	if !ok {
		return 0, errs.New(errs.OverflowError, "range() result has too many items")
	}
	return i, nil
}

// At returns start + i * step.
func (r *DecimalRange) At(i int) (*Decimal, error) {
	if i == 0 {
		return r.Start, nil
	}
	off, err := r.Step.Mul(i)
	if err != nil {
		return nil, err
	}
	return r.Start.Add(off)
}

func (r *DecimalRange) Repr() string {
	s := "range(" + r.Start.String() + ", " + r.Stop.String()
	if !r.Step.Equal(DecimalFromInt(1)) {
		s += ", " + r.Step.String()
	}
	return s + ")"
}

func (r *DecimalRange) Equal(other any) bool {
	o, ok := other.(*DecimalRange)
	return ok && r.Start.Equal(o.Start) && r.Stop.Equal(o.Stop) && r.Step.Equal(o.Step)
}

// Slice is the value of a slice expression or of slice(). Absent bounds are
// None.
type Slice struct {
	Start, Stop, Step any
}

func (s Slice) Repr() string {
	return "slice(" + Repr(s.Start) + ", " + Repr(s.Stop) + ", " + Repr(s.Step) + ")"
}

func (s Slice) Equal(other any) bool {
	o, ok := other.(Slice)
	return ok && Equal(s.Start, o.Start) && Equal(s.Stop, o.Stop) && Equal(s.Step, o.Step)
}

var errSliceIndex = errs.New(errs.TypeError,
	"slice indices must be integers or None or have an __index__ method")

func sliceBound(v any) (int, bool, error) {
	if v == nil || v == None {
		return 0, false, nil
	}
	i, ok, err := indexOf(v)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, errSliceIndex
	}
	return i, true, nil
}

// Indices resolves the slice against a sequence of length n, returning the
// start, stop and step with the semantics of slice.indices. The number of
// selected elements is given by [SliceLen].
func (s Slice) Indices(n int) (start, stop, step int, err error) {
	step, hasStep, err := sliceBound(s.Step)
	if err != nil {
		return
	}
	if !hasStep {
		step = 1
	} else if step == 0 {
		err = errs.New(errs.ValueError, "slice step cannot be zero")
		return
	}
	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}
	clamp := func(v any, dflt int) (int, error) {
		i, ok, err := sliceBound(v)
		if err != nil || !ok {
			return dflt, err
		}
		if i < 0 {
			i += n
			if i < lower {
				i = lower
			}
		} else if i > upper {
			i = upper
		}
		return i, nil
	}
	if step > 0 {
		start, err = clamp(s.Start, lower)
		if err == nil {
			stop, err = clamp(s.Stop, upper)
		}
	} else {
		start, err = clamp(s.Start, upper)
		if err == nil {
			stop, err = clamp(s.Stop, lower)
		}
	}
	return
}

// SliceLen returns the number of elements selected by resolved slice indices.
func SliceLen(start, stop, step int) int {
	return Range{start, stop, step}.Len()
}
