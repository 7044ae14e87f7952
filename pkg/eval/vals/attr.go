package vals

import (
	"math/big"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Attrer is implemented by values defined outside this package that have
// attributes.
type Attrer interface {
	Attr(name string) (any, bool)
}

// GetAttr returns an attribute of a value, like v.name. Whether the access is
// allowed at all is decided by the caller; this function only implements the
// attributes.
func GetAttr(v any, name string) (any, error) {
	var attr any
	var ok bool
	switch v := v.(type) {
	case *Module:
		if attr, ok = v.Attrs[name]; !ok {
			return nil, errs.Newf(errs.AttributeError, "module '%s' has no attribute '%s'", v.Name, name)
		}
		return attr, nil
	case *Type:
		switch name {
		case "__name__":
			return v.Name, nil
		case "__qualname__":
			return v.Name, nil
		case "__module__":
			if v.Module == "" {
				return "builtins", nil
			}
			return v.Module, nil
		}
		if attr, ok = v.Attrs[name]; !ok {
			return nil, errs.Newf(errs.AttributeError, "type object '%s' has no attribute '%s'", v.QualName(), name)
		}
		return attr, nil
	case string:
		attr, ok = strAttr(v, name)
	case *List:
		attr, ok = listAttr(v, name)
	case Tuple:
		attr, ok = tupleAttr(v, name)
	case *Dict:
		attr, ok = dictAttr(v, name)
	case *Set:
		attr, ok = setAttr(v, name)
	case bool, int, *big.Int:
		attr, ok = intAttr(v, name)
	case float64:
		attr, ok = floatAttr(v, name)
	case complex128:
		attr, ok = complexAttr(v, name)
	case *Decimal:
		attr, ok = decimalAttr(v, name)
	case Range:
		attr, ok = rangeAttr(v, name)
	case *DecimalRange:
		attr, ok = decimalRangeAttr(v, name)
	case Slice:
		attr, ok = sliceAttr(v, name)
	case Attrer:
		attr, ok = v.Attr(name)
	}
	if !ok {
		return nil, errs.Newf(errs.AttributeError, "'%s' object has no attribute '%s'", TypeName(v), name)
	}
	return attr, nil
}

// Method creates a BoundMethod.
func Method(recv any, name string, fn func(args []any, kw Kwargs) (any, error)) *BoundMethod {
	return &BoundMethod{recv, name, fn}
}

// Creates a method taking a fixed range of positional arguments.
func posMethod(recv any, name string, low, high int, fn func(args []any) (any, error)) *BoundMethod {
	return Method(recv, name, func(args []any, kw Kwargs) (any, error) {
		if err := CheckArity(methodName(recv, name), args, kw, low, high); err != nil {
			return nil, err
		}
		return fn(args)
	})
}

// Returns the optional positional argument at index i, or nil.
func optArg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func rangeAttr(r Range, name string) (any, bool) {
	switch name {
	case "start":
		return r.Start, true
	case "stop":
		return r.Stop, true
	case "step":
		return r.Step, true
	case "count":
		return posMethod(r, name, 1, 1, func(args []any) (any, error) {
			return boolToInt(r.Contains(args[0])), nil
		}), true
	case "index":
		return posMethod(r, name, 1, 1, func(args []any) (any, error) {
			if !r.Contains(args[0]) {
				return nil, errs.Newf(errs.ValueError, "%s is not in range", Repr(args[0]))
			}
			for i := 0; i < r.Len(); i++ {
				if Equal(r.At(i), args[0]) {
					return i, nil
				}
			}
			return nil, errs.Newf(errs.ValueError, "%s is not in range", Repr(args[0]))
		}), true
	}
	return nil, false
}

func decimalRangeAttr(r *DecimalRange, name string) (any, bool) {
	switch name {
	case "start":
		return r.Start, true
	case "stop":
		return r.Stop, true
	case "step":
		return r.Step, true
	}
	return nil, false
}

func sliceAttr(s Slice, name string) (any, bool) {
	switch name {
	case "start":
		return s.Start, true
	case "stop":
		return s.Stop, true
	case "step":
		return s.Step, true
	case "indices":
		return posMethod(s, name, 1, 1, func(args []any) (any, error) {
			n, err := ToIndex(args[0])
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, errs.New(errs.ValueError, "length should not be negative")
			}
			start, stop, step, err := s.Indices(n)
			if err != nil {
				return nil, err
			}
			return Tuple{start, stop, step}, nil
		}), true
	}
	return nil, false
}
