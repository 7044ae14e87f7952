package datetime

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/hash"
)

// TimeDelta is a duration, a datetime.timedelta. It is kept normalized:
// 0 <= secs < 86400 and 0 <= us < 1000000; only days may be negative.
type TimeDelta struct {
	days int
	secs int
	us   int
}

// NewTimeDelta creates a normalized TimeDelta from days, seconds and
// microseconds.
func NewTimeDelta(days, secs, us int) (TimeDelta, error) {
	total := bigInt(int64(us))
	total.Add(total, new(big.Int).Mul(bigInt(int64(secs)), bigInt(usPerSecond)))
	total.Add(total, new(big.Int).Mul(bigInt(int64(days)), bigInt(usPerDay)))
	return deltaFromMicros(total)
}

func bigInt(i int64) *big.Int { return big.NewInt(i) }

// Components of the timedelta constructor and their length in microseconds.
var deltaParams = []struct {
	name string
	us   int64
}{
	{"days", usPerDay},
	{"seconds", usPerSecond},
	{"microseconds", 1},
	{"milliseconds", 1000},
	{"minutes", 60 * usPerSecond},
	{"hours", 3600 * usPerSecond},
	{"weeks", 7 * usPerDay},
}

func newTimeDelta(args []any, kw vals.Kwargs) (any, error) {
	names := make([]string, len(deltaParams))
	for i, p := range deltaParams {
		names[i] = p.name
	}
	a, err := vals.Bind("timedelta", args, kw, names, 0)
	if err != nil {
		return nil, err
	}
	total := new(big.Rat)
	for i, p := range deltaParams {
		if a[i] == nil {
			continue
		}
		r, err := ratOf(a[i])
		if err != nil {
			return nil, errs.Newf(errs.TypeError, "unsupported type for timedelta %s component: %s",
				p.name, vals.TypeName(a[i]))
		}
		if r == nil {
			return nil, errs.New(errs.ValueError, "cannot convert float NaN to integer")
		}
		total.Add(total, r.Mul(r, big.NewRat(p.us, 1)))
	}
	return deltaFromMicros(roundHalfEven(total))
}

// Converts a real number to an exact rational. It returns nil, nil for
// numbers without a rational value, like NaN.
func ratOf(v any) (*big.Rat, error) {
	switch v := v.(type) {
	case bool, int, *big.Int:
		z, _ := vals.ToBigInt(v)
		return new(big.Rat).SetInt(z), nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, nil
		}
		return new(big.Rat).SetFloat64(v), nil
	case *vals.Decimal:
		r, ok := new(big.Rat).SetString(v.String())
		if !ok {
			return nil, nil
		}
		return r, nil
	}
	return nil, errs.New(errs.TypeError, "not a number")
}

func deltaFromMicros(total *big.Int) (TimeDelta, error) {
	days, rem := new(big.Int).DivMod(total, bigInt(usPerDay), new(big.Int))
	if !days.IsInt64() || days.Int64() > maxDeltaDays || days.Int64() < -maxDeltaDays {
		return TimeDelta{}, errs.Newf(errs.OverflowError, "days=%s; must have magnitude <= %d", days, maxDeltaDays)
	}
	r := rem.Int64()
	return TimeDelta{int(days.Int64()), int(r / usPerSecond), int(r % usPerSecond)}, nil
}

func (td TimeDelta) micros() *big.Int {
	total := new(big.Int).Mul(bigInt(int64(td.days)), bigInt(usPerDay))
	return total.Add(total, bigInt(int64(td.secs)*usPerSecond+int64(td.us)))
}

// Fields returns the days, seconds and microseconds of the delta.
func (td TimeDelta) Fields() (days, secs, us int) { return td.days, td.secs, td.us }

// TotalSeconds returns the length of the delta in seconds.
func (td TimeDelta) TotalSeconds() float64 {
	f, _ := new(big.Rat).SetFrac(td.micros(), bigInt(usPerSecond)).Float64()
	return f
}

func (td TimeDelta) neg() (TimeDelta, error) {
	return deltaFromMicros(new(big.Int).Neg(td.micros()))
}

func (td TimeDelta) Type() *vals.Type { return TimeDeltaType }

func (td TimeDelta) Bool() bool { return td != TimeDelta{} }

func (td TimeDelta) Repr() string {
	var parts []string
	if td.days != 0 {
		parts = append(parts, fmt.Sprintf("days=%d", td.days))
	}
	if td.secs != 0 {
		parts = append(parts, fmt.Sprintf("seconds=%d", td.secs))
	}
	if td.us != 0 {
		parts = append(parts, fmt.Sprintf("microseconds=%d", td.us))
	}
	if len(parts) == 0 {
		return "datetime.timedelta(0)"
	}
	return "datetime.timedelta(" + strings.Join(parts, ", ") + ")"
}

func (td TimeDelta) String() string {
	s := ""
	if td.days != 0 {
		unit := "days"
		if td.days == 1 || td.days == -1 {
			unit = "day"
		}
		s = fmt.Sprintf("%d %s, ", td.days, unit)
	}
	s += fmt.Sprintf("%d:%02d:%02d", td.secs/3600, td.secs/60%60, td.secs%60)
	if td.us != 0 {
		s += fmt.Sprintf(".%06d", td.us)
	}
	return s
}

func (td TimeDelta) Equal(other any) bool {
	o, ok := other.(TimeDelta)
	return ok && o == td
}

func (td TimeDelta) Compare(other any) (int, bool) {
	o, ok := other.(TimeDelta)
	if !ok {
		return 0, false
	}
	return td.micros().Cmp(o.micros()), true
}

func (td TimeDelta) Hash() uint32 {
	return hash.DJB(hash.String("timedelta"), hash.Uint64(uint64(td.days)),
		hash.Uint64(uint64(td.secs)), hash.Uint64(uint64(td.us)))
}

func (td TimeDelta) UnaryOp(op string) (any, bool, error) {
	switch op {
	case "+":
		return td, true, nil
	case "-":
		v, err := td.neg()
		return v, true, err
	case "abs":
		if td.days < 0 {
			v, err := td.neg()
			return v, true, err
		}
		return td, true, nil
	}
	return nil, false, nil
}

func (td TimeDelta) BinaryOp(op string, other any, reflected bool) (any, bool, error) {
	if o, ok := other.(TimeDelta); ok {
		a, b := td.micros(), o.micros()
		if reflected {
			a, b = b, a
		}
		switch op {
		case "+":
			v, err := deltaFromMicros(a.Add(a, b))
			return v, true, err
		case "-":
			v, err := deltaFromMicros(a.Sub(a, b))
			return v, true, err
		case "/":
			if b.Sign() == 0 {
				return nil, true, errs.New(errs.ZeroDivisionError, "division by zero")
			}
			f, _ := new(big.Rat).SetFrac(a, b).Float64()
			return f, true, nil
		case "//":
			if b.Sign() == 0 {
				return nil, true, errs.New(errs.ZeroDivisionError, "integer division or modulo by zero")
			}
			q, _ := floorDivMod(a, b)
			return vals.NormalizeBigInt(q), true, nil
		case "%":
			if b.Sign() == 0 {
				return nil, true, errs.New(errs.ZeroDivisionError, "integer division or modulo by zero")
			}
			_, m := floorDivMod(a, b)
			v, err := deltaFromMicros(m)
			return v, true, err
		}
		return nil, false, nil
	}
	switch other.(type) {
	case bool, int, *big.Int, float64, *vals.Decimal:
	default:
		return nil, false, nil
	}
	switch {
	case op == "*":
		r, err := ratOf(other)
		if err != nil || r == nil {
			return nil, true, errs.New(errs.ValueError, "cannot convert float NaN to integer")
		}
		v, err := deltaFromMicros(roundHalfEven(r.Mul(r, new(big.Rat).SetInt(td.micros()))))
		return v, true, err
	case op == "/" && !reflected:
		r, err := ratOf(other)
		if err != nil || r == nil {
			return nil, true, errs.New(errs.ValueError, "cannot convert float NaN to integer")
		}
		if r.Sign() == 0 {
			return nil, true, errs.New(errs.ZeroDivisionError, "division by zero")
		}
		v, err := deltaFromMicros(roundHalfEven(new(big.Rat).Quo(new(big.Rat).SetInt(td.micros()), r)))
		return v, true, err
	case op == "//" && !reflected:
		n, err := vals.ToBigInt(other)
		if err != nil {
			return nil, false, nil
		}
		if n.Sign() == 0 {
			return nil, true, errs.New(errs.ZeroDivisionError, "integer division or modulo by zero")
		}
		q, _ := floorDivMod(td.micros(), n)
		v, err := deltaFromMicros(q)
		return v, true, err
	}
	return nil, false, nil
}

func floorDivMod(a, b *big.Int) (*big.Int, *big.Int) {
	q, m := new(big.Int).QuoRem(a, b, new(big.Int))
	if m.Sign() != 0 && (m.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		m.Add(m, b)
	}
	return q, m
}

func (td TimeDelta) Attr(name string) (any, bool) {
	switch name {
	case "days":
		return td.days, true
	case "seconds":
		return td.secs, true
	case "microseconds":
		return td.us, true
	case "total_seconds":
		return constMethod(td, name, td.TotalSeconds()), true
	}
	return nil, false
}
