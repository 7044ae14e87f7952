package vals

import (
	"math"
	"math/big"
	"unsafe"

	"github.com/cockroachdb/apd/v3"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/hash"
)

// Hasher is implemented by values defined outside this package that can be
// used as dict keys and set elements.
type Hasher interface {
	Hash() uint32
}

// Hash returns the hash of a value. Values that are equal have the same hash,
// including numbers of different types. Mutable containers are not hashable.
func Hash(v any) (uint32, error) {
	switch v := v.(type) {
	case NoneType:
		return 0x4e6f6e65, nil
	case EllipsisType:
		return 0x456c6c69, nil
	case bool:
		return hashInt(boolToInt(v)), nil
	case int:
		return hashInt(v), nil
	case *big.Int:
		return hashBig(v), nil
	case float64:
		return hashFloat(v), nil
	case complex128:
		if imag(v) == 0 {
			return hashFloat(real(v)), nil
		}
		return hash.DJB(hashFloat(real(v)), hashFloat(imag(v))), nil
	case *Decimal:
		return hashDecimal(v), nil
	case string:
		return hash.String(v), nil
	case Bytes:
		return hash.DJB(hash.String(string(v)), 'b'), nil
	case Tuple:
		h := hash.Init
		for _, e := range v {
			eh, err := Hash(e)
			if err != nil {
				return 0, err
			}
			h = hash.Combine(h, eh)
		}
		return h, nil
	case *Set:
		if !v.Frozen {
			break
		}
		// Combine element hashes independently of order.
		var h uint32
		for _, e := range v.d.entries {
			if !e.deleted {
				h ^= e.hash*0x9e3779b1 + 0x7f4a7c15
			}
		}
		return h, nil
	case Range:
		n := v.Len()
		switch n {
		case 0:
			return hash.DJB(0), nil
		case 1:
			return hash.DJB(1, hashInt(v.Start)), nil
		}
		return hash.DJB(uint32(n), hashInt(v.Start), hashInt(v.Step)), nil
	case Slice:
		break
	case *Type, *Module, *Builtin, *Iterator:
		return hash.Pointer(pointerOf(v)), nil
	case *BoundMethod:
		rh, err := Hash(v.Recv)
		if err != nil {
			rh = hash.Pointer(pointerOf(v))
		}
		return hash.DJB(rh, hash.String(v.Name)), nil
	case Hasher:
		return v.Hash(), nil
	}
	return 0, errs.Newf(errs.TypeError, "unhashable type: '%s'", TypeName(v))
}

func pointerOf(v any) unsafe.Pointer {
	switch v := v.(type) {
	case *Type:
		return unsafe.Pointer(v)
	case *Module:
		return unsafe.Pointer(v)
	case *Builtin:
		return unsafe.Pointer(v)
	case *Iterator:
		return unsafe.Pointer(v)
	case *BoundMethod:
		return unsafe.Pointer(v)
	}
	return nil
}

func hashInt(i int) uint32 {
	return hash.Uint64(uint64(i))
}

func hashBig(z *big.Int) uint32 {
	if n, ok := NormalizeBigInt(z).(int); ok {
		return hashInt(n)
	}
	h := hash.Init
	for _, w := range z.Bits() {
		h = hash.Combine(h, hash.Uint64(uint64(w)))
	}
	if z.Sign() < 0 {
		h = ^h
	}
	return h
}

func hashFloat(f float64) uint32 {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		if f >= math.MinInt64 && f < math.MaxInt64 {
			return hashInt(int(f))
		}
		z, _ := big.NewFloat(f).Int(nil)
		return hashBig(z)
	}
	if math.IsNaN(f) {
		return 0x7ff80000
	}
	return hash.Float64(f)
}

func hashDecimal(x *Decimal) uint32 {
	switch x.d.Form {
	case apd.Infinite:
		return hashFloat(x.Float64())
	case apd.NaN, apd.NaNSignaling:
		return 0x7ff80000
	}
	if z, ok := x.BigInt(); ok {
		return hashBig(z)
	}
	// A decimal equal to a float must hash like the float.
	if f := x.Float64(); DecimalFromFloat(f).Equal(x) {
		return hashFloat(f)
	}
	var reduced apd.Decimal
	reduced.Reduce(&x.d)
	return hash.String(reduced.String())
}
