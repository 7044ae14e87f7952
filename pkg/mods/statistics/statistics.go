// Package statistics implements the statistics module visible to sandboxed
// code.
//
// Integer and float data are summarized with exact rational arithmetic and
// converted back at the end, so mean([1, 2, 3]) is the int 2 and mean([1,
// 2]) the float 1.5. Data containing decimals is summarized with decimal
// arithmetic and gives decimals.
package statistics

import (
	"math"
	"math/big"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
)

// Module is the statistics module.
var Module = vals.BuildModule("statistics").
	AddGoFns(map[string]any{
		"mean":           mean,
		"fmean":          fmean,
		"geometric_mean": geometricMean,
		"harmonic_mean":  harmonicMean,
		"median":         median,
		"median_low":     medianLow,
		"median_high":    medianHigh,
		"mode":           mode,
		"multimode":      multimode,
		"variance":       sampleVar(variance),
		"stdev":          sampleVar(stdev),
		"pvariance":      popVar(variance),
		"pstdev":         popVar(stdev),
	}).
	Module()

func statsError(msg string) error { return errs.New(errs.StatisticsError, msg) }

// A dataset of real numbers.
type dataset struct {
	elems   []any
	decimal bool
	float   bool
}

func collect(iterable any) (*dataset, error) {
	elems, err := vals.Collect(iterable)
	if err != nil {
		return nil, err
	}
	ds := &dataset{elems: elems}
	for _, e := range elems {
		switch e.(type) {
		case bool, int, *big.Int:
		case float64:
			ds.float = true
		case *vals.Decimal:
			ds.decimal = true
		default:
			return nil, errs.Newf(errs.TypeError, "can't convert type '%s' to numerator/denominator", vals.TypeName(e))
		}
	}
	if ds.decimal && ds.float {
		return nil, errs.New(errs.TypeError, "unsupported operand type(s) for +: 'float' and 'decimal.Decimal'")
	}
	return ds, nil
}

func toRat(v any) *big.Rat {
	switch v := v.(type) {
	case float64:
		return new(big.Rat).SetFloat64(v)
	default:
		z, _ := vals.ToBigInt(v)
		return new(big.Rat).SetInt(z)
	}
}

// Converts an exact result back to the type of the data.
func (ds *dataset) fromRat(r *big.Rat) any {
	if !ds.float && r.IsInt() {
		return vals.NormalizeBigInt(new(big.Int).Set(r.Num()))
	}
	f, _ := r.Float64()
	return f
}

// Returns the exact sum of the data. Infinities and NaNs have no rational
// value, so they make the sum a float.
func (ds *dataset) ratSum() (*big.Rat, any) {
	sum := new(big.Rat)
	special := 0.0
	for _, e := range ds.elems {
		if f, ok := e.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			special += f
			continue
		}
		sum.Add(sum, toRat(e))
	}
	if special != 0 || math.IsNaN(special) {
		return nil, special
	}
	return sum, nil
}

func (ds *dataset) decimalSum() (any, error) {
	var sum any = vals.DecimalFromInt(0)
	for _, e := range ds.elems {
		var err error
		if sum, err = vals.Add(sum, e); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

func (ds *dataset) mean() (any, error) {
	n := len(ds.elems)
	if ds.decimal {
		sum, err := ds.decimalSum()
		if err != nil {
			return nil, err
		}
		return vals.TrueDiv(sum, vals.DecimalFromInt(n))
	}
	sum, special := ds.ratSum()
	if sum == nil {
		return special, nil
	}
	return ds.fromRat(sum.Quo(sum, big.NewRat(int64(n), 1))), nil
}

func mean(data any) (any, error) {
	ds, err := collect(data)
	if err != nil {
		return nil, err
	}
	if len(ds.elems) == 0 {
		return nil, statsError("mean requires at least one data point")
	}
	return ds.mean()
}

func floats(data any) ([]float64, error) {
	elems, err := vals.Collect(data)
	if err != nil {
		return nil, err
	}
	fs := make([]float64, len(elems))
	for i, e := range elems {
		if fs[i], err = vals.ToFloat(e); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func fmean(data any) (any, error) {
	fs, err := floats(data)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, statsError("fmean requires at least one data point")
	}
	sum := 0.0
	for _, f := range fs {
		sum += f
	}
	return sum / float64(len(fs)), nil
}

func geometricMean(data any) (any, error) {
	fs, err := floats(data)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, statsError("geometric mean requires a non-empty dataset containing positive numbers")
	}
	sum := 0.0
	for _, f := range fs {
		if f <= 0 {
			return nil, statsError("geometric mean requires a non-empty dataset containing positive numbers")
		}
		sum += math.Log(f)
	}
	return math.Exp(sum / float64(len(fs))), nil
}

func harmonicMean(data any) (any, error) {
	ds, err := collect(data)
	if err != nil {
		return nil, err
	}
	if len(ds.elems) == 0 {
		return nil, statsError("harmonic_mean requires at least one data point")
	}
	if ds.decimal {
		var sum any = vals.DecimalFromInt(0)
		for _, e := range ds.elems {
			if e.(*vals.Decimal).Sign() < 0 {
				return nil, statsError("harmonic mean does not support negative values")
			}
			if e.(*vals.Decimal).Sign() == 0 {
				return vals.DecimalFromInt(0), nil
			}
			inv, err := vals.TrueDiv(vals.DecimalFromInt(1), e)
			if err != nil {
				return nil, err
			}
			if sum, err = vals.Add(sum, inv); err != nil {
				return nil, err
			}
		}
		return vals.TrueDiv(vals.DecimalFromInt(len(ds.elems)), sum)
	}
	sum := new(big.Rat)
	for _, e := range ds.elems {
		r := toRat(e)
		switch r.Sign() {
		case -1:
			return nil, statsError("harmonic mean does not support negative values")
		case 0:
			return ds.fromRat(new(big.Rat)), nil
		}
		sum.Add(sum, r.Inv(r))
	}
	return ds.fromRat(sum.Quo(big.NewRat(int64(len(ds.elems)), 1), sum)), nil
}

func sorted(data any) ([]any, error) {
	elems, err := vals.Collect(data)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, statsError("no median for empty data")
	}
	return vals.Sort(elems, nil, false)
}

func median(data any) (any, error) {
	elems, err := sorted(data)
	if err != nil {
		return nil, err
	}
	n := len(elems)
	if n%2 == 1 {
		return elems[n/2], nil
	}
	sum, err := vals.Add(elems[n/2-1], elems[n/2])
	if err != nil {
		return nil, err
	}
	return vals.TrueDiv(sum, 2)
}

func medianLow(data any) (any, error) {
	elems, err := sorted(data)
	if err != nil {
		return nil, err
	}
	n := len(elems)
	if n%2 == 1 {
		return elems[n/2], nil
	}
	return elems[n/2-1], nil
}

func medianHigh(data any) (any, error) {
	elems, err := sorted(data)
	if err != nil {
		return nil, err
	}
	return elems[len(elems)/2], nil
}

// Returns the most common values in the order they first appear.
func modes(data any) ([]any, error) {
	counts := vals.NewDict()
	err := vals.Iterate(data, func(v any) error {
		n, _, err := counts.Get(v)
		if err != nil {
			return err
		}
		if n == nil {
			n = 0
		}
		return counts.Set(v, n.(int)+1)
	})
	if err != nil {
		return nil, err
	}
	var result []any
	best := 0
	for _, k := range counts.Keys() {
		n, _, _ := counts.Get(k)
		switch c := n.(int); {
		case c > best:
			best, result = c, []any{k}
		case c == best:
			result = append(result, k)
		}
	}
	return result, nil
}

func mode(data any) (any, error) {
	m, err := modes(data)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, statsError("no mode for empty data")
	}
	return m[0], nil
}

func multimode(data any) (any, error) {
	m, err := modes(data)
	if err != nil {
		return nil, err
	}
	return vals.NewList(m...), nil
}

// Returns the sum of squared deviations from the mean, and the dataset.
func sumSquares(data any, xbar any, min int, what string) (*dataset, any, error) {
	ds, err := collect(data)
	if err != nil {
		return nil, nil, err
	}
	if len(ds.elems) < min {
		return nil, nil, statsError(what)
	}
	if xbar == nil || xbar == vals.None {
		if xbar, err = ds.mean(); err != nil {
			return nil, nil, err
		}
	}
	if ds.decimal {
		var ss any = vals.DecimalFromInt(0)
		for _, e := range ds.elems {
			d, err := vals.Sub(e, xbar)
			if err != nil {
				return nil, nil, err
			}
			sq, err := vals.Mul(d, d)
			if err != nil {
				return nil, nil, err
			}
			if ss, err = vals.Add(ss, sq); err != nil {
				return nil, nil, err
			}
		}
		return ds, ss, nil
	}
	if f, ok := xbar.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return ds, math.NaN(), nil
	}
	if _, ok := xbar.(*vals.Decimal); ok {
		return nil, nil, errs.New(errs.TypeError, "can't mix decimal mean with non-decimal data")
	}
	m := toRat(xbar)
	ss := new(big.Rat)
	for _, e := range ds.elems {
		if f, ok := e.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			return ds, math.NaN(), nil
		}
		d := new(big.Rat).Sub(toRat(e), m)
		ss.Add(ss, d.Mul(d, d))
	}
	return ds, ss, nil
}

// Divides a sum of squares by n, optionally taking the square root.
type finisher func(ds *dataset, ss any, n int) (any, error)

func variance(ds *dataset, ss any, n int) (any, error) {
	switch ss := ss.(type) {
	case *big.Rat:
		return ds.fromRat(new(big.Rat).Quo(ss, big.NewRat(int64(n), 1))), nil
	case float64:
		return ss, nil
	}
	return vals.TrueDiv(ss, vals.DecimalFromInt(n))
}

func stdev(ds *dataset, ss any, n int) (any, error) {
	v, err := variance(ds, ss, n)
	if err != nil {
		return nil, err
	}
	if d, ok := v.(*vals.Decimal); ok {
		return d.Sqrt()
	}
	f, err := vals.ToFloat(v)
	if err != nil {
		return nil, err
	}
	return math.Sqrt(f), nil
}

func sampleVar(f finisher) func([]any, vals.Kwargs) (any, error) {
	return func(args []any, kw vals.Kwargs) (any, error) {
		a, err := vals.Bind("variance", args, kw, []string{"data", "xbar"}, 1)
		if err != nil {
			return nil, err
		}
		ds, ss, err := sumSquares(a[0], a[1], 2, "variance requires at least two data points")
		if err != nil {
			return nil, err
		}
		return f(ds, ss, len(ds.elems)-1)
	}
}

func popVar(f finisher) func([]any, vals.Kwargs) (any, error) {
	return func(args []any, kw vals.Kwargs) (any, error) {
		a, err := vals.Bind("pvariance", args, kw, []string{"data", "mu"}, 1)
		if err != nil {
			return nil, err
		}
		ds, ss, err := sumSquares(a[0], a[1], 1, "pvariance requires at least one data point")
		if err != nil {
			return nil, err
		}
		return f(ds, ss, len(ds.elems))
	}
}
