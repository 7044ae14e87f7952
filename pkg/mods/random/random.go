// Package random implements the random module visible to sandboxed code.
package random

import (
	"math/big"
	"math/rand/v2"
	"sync"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
)

var (
	genMutex sync.Mutex
	gen      = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
)

// Seed makes the generator deterministic. It is used by tests.
func Seed(seed uint64) {
	genMutex.Lock()
	defer genMutex.Unlock()
	gen = rand.New(rand.NewPCG(seed, seed))
}

func withGen[T any](f func(r *rand.Rand) T) T {
	genMutex.Lock()
	defer genMutex.Unlock()
	return f(gen)
}

// Module is the random module.
var Module = vals.BuildModule("random").
	AddGoFns(map[string]any{
		"random":    func() float64 { return withGen((*rand.Rand).Float64) },
		"uniform":   uniform,
		"randint":   randint,
		"randrange": randrange,
		"choice":    choice,
		"shuffle":   shuffle,
		"sample":    sample,
	}).
	Module()

func uniform(a, b float64) float64 {
	return a + (b-a)*withGen((*rand.Rand).Float64)
}

// Returns a uniformly distributed integer in [0, n). n must be positive.
func below(n *big.Int) *big.Int {
	if n.IsInt64() {
		return big.NewInt(withGen(func(r *rand.Rand) int64 { return r.Int64N(n.Int64()) }))
	}
	// Rejection sampling over random bits.
	bits := n.BitLen()
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	for {
		z := withGen(func(r *rand.Rand) *big.Int {
			z := new(big.Int)
			for i := 0; i < bits; i += 64 {
				z.Lsh(z, 64)
				z.Or(z, new(big.Int).SetUint64(r.Uint64()))
			}
			return z
		})
		if z.And(z, mask).Cmp(n) < 0 {
			return z
		}
	}
}

func randint(a, b any) (any, error) {
	lo, err := vals.ToBigInt(a)
	if err != nil {
		return nil, err
	}
	hi, err := vals.ToBigInt(b)
	if err != nil {
		return nil, err
	}
	width := new(big.Int).Sub(hi, lo)
	width.Add(width, big.NewInt(1))
	if width.Sign() <= 0 {
		return nil, errs.Newf(errs.ValueError, "empty range in randrange(%s, %s)", lo, new(big.Int).Add(hi, big.NewInt(1)))
	}
	return vals.NormalizeBigInt(lo.Add(lo, below(width))), nil
}

func randrange(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("randrange", args, kw, []string{"start", "stop", "step"}, 1)
	if err != nil {
		return nil, err
	}
	bounds := make([]*big.Int, 3)
	for i, v := range a {
		if v == nil || v == vals.None {
			continue
		}
		if bounds[i], err = vals.ToBigInt(v); err != nil {
			return nil, err
		}
	}
	start, stop, step := bounds[0], bounds[1], bounds[2]
	if stop == nil {
		if start.Sign() <= 0 {
			return nil, errs.New(errs.ValueError, "empty range for randrange()")
		}
		return vals.NormalizeBigInt(below(start)), nil
	}
	if step == nil {
		step = big.NewInt(1)
	}
	if step.Sign() == 0 {
		return nil, errs.New(errs.ValueError, "zero step for randrange()")
	}
	// The number of values is ceil((stop - start) / step).
	n := new(big.Int).Sub(stop, start)
	n.Add(n, step)
	if step.Sign() > 0 {
		n.Sub(n, big.NewInt(1))
	} else {
		n.Add(n, big.NewInt(1))
	}
	n.Quo(n, step)
	if n.Sign() <= 0 {
		return nil, errs.Newf(errs.ValueError, "empty range in randrange(%s, %s, %s)", start, stop, step)
	}
	k := below(n)
	return vals.NormalizeBigInt(k.Add(start, k.Mul(k, step))), nil
}

func choice(seq any) (any, error) {
	n, err := vals.Len(seq)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.New(errs.IndexError, "Cannot choose from an empty sequence")
	}
	return vals.Index(seq, withGen(func(r *rand.Rand) int { return r.IntN(n) }))
}

func shuffle(l any) error {
	list, ok := l.(*vals.List)
	if !ok {
		return errs.Newf(errs.TypeError, "'%s' object does not support item assignment", vals.TypeName(l))
	}
	withGen(func(r *rand.Rand) struct{} {
		r.Shuffle(len(list.Elems), func(i, j int) {
			list.Elems[i], list.Elems[j] = list.Elems[j], list.Elems[i]
		})
		return struct{}{}
	})
	return nil
}

func sample(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("sample", args, kw, []string{"population", "k", "*", "counts"}, 2)
	if err != nil {
		return nil, err
	}
	if _, ok := a[0].(*vals.Set); ok {
		return nil, errs.New(errs.TypeError, "Population must be a sequence.  For dicts or sets, use sorted(d).")
	}
	pop, err := vals.Collect(a[0])
	if err != nil {
		return nil, err
	}
	if a[2] != nil && a[2] != vals.None {
		counts, err := vals.Collect(a[2])
		if err != nil {
			return nil, err
		}
		if len(counts) != len(pop) {
			return nil, errs.New(errs.ValueError, "The number of counts does not match the population")
		}
		var expanded []any
		for i, c := range counts {
			n, err := vals.ToIndex(c)
			if err != nil {
				return nil, err
			}
			for ; n > 0; n-- {
				expanded = append(expanded, pop[i])
			}
		}
		pop = expanded
	}
	k, err := vals.ToIndex(a[1])
	if err != nil {
		return nil, err
	}
	if k < 0 || k > len(pop) {
		return nil, errs.New(errs.ValueError, "Sample larger than population or is negative")
	}
	pool := append([]any(nil), pop...)
	withGen(func(r *rand.Rand) struct{} {
		// Partial Fisher-Yates: the first k elements become the sample.
		for i := 0; i < k; i++ {
			j := i + r.IntN(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}
		return struct{}{}
	})
	return vals.NewList(pool[:k]...), nil
}
