package vals

import (
	"reflect"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	float64Type = reflect.TypeOf(0.0)
	intType     = reflect.TypeOf(0)
	stringType  = reflect.TypeOf("")
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
)

// NewGoFn wraps a Go function as a Builtin. The function may take parameters
// of type float64, int, string and any, and the last parameter may be
// variadic. Arguments are converted the way the reference language converts
// arguments of its built-in numeric functions: float64 parameters accept any
// real number, int parameters any integer. The function may return one value,
// optionally followed by an error.
//
// A function with a signature that is already func([]any, Kwargs) (any,
// error) is wrapped without conversion.
func NewGoFn(name string, impl any) *Builtin {
	if f, ok := impl.(func([]any, Kwargs) (any, error)); ok {
		return NewBuiltin(name, f)
	}
	fn := reflect.ValueOf(impl)
	typ := fn.Type()
	var params []reflect.Type
	var variadic reflect.Type
	for i := 0; i < typ.NumIn(); i++ {
		if typ.IsVariadic() && i == typ.NumIn()-1 {
			variadic = typ.In(i).Elem()
			break
		}
		params = append(params, typ.In(i))
	}
	return NewBuiltin(name, func(args []any, kw Kwargs) (any, error) {
		high := len(params)
		if variadic != nil {
			high = -1
		}
		if err := CheckArity(name, args, kw, len(params), high); err != nil {
			return nil, err
		}
		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			t := variadic
			if i < len(params) {
				t = params[i]
			}
			v, err := convertArg(name, i, arg, t)
			if err != nil {
				return nil, err
			}
			in[i] = v
		}
		outs := fn.Call(in)
		if n := len(outs); n > 0 && outs[n-1].Type() == errorType {
			if err := outs[n-1].Interface(); err != nil {
				return nil, err.(error)
			}
			outs = outs[:n-1]
		}
		if len(outs) == 0 {
			return None, nil
		}
		return outs[0].Interface(), nil
	})
}

func convertArg(fn string, i int, arg any, t reflect.Type) (reflect.Value, error) {
	switch t {
	case float64Type:
		f, err := ToFloat(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f), nil
	case intType:
		if !isInt(arg) {
			if d, ok := arg.(*Decimal); !ok || !d.IsInteger() {
				return reflect.Value{}, errs.Newf(errs.TypeError,
					"'%s' object cannot be interpreted as an integer", TypeName(arg))
			}
		}
		n, err := ToIndex(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n), nil
	case stringType:
		s, ok := arg.(string)
		if !ok {
			return reflect.Value{}, errs.Newf(errs.TypeError,
				"%s() argument %d must be str, not %s", fn, i+1, TypeName(arg))
		}
		return reflect.ValueOf(s), nil
	case anyType:
		if arg == nil {
			return reflect.Zero(anyType), nil
		}
		v := reflect.New(anyType).Elem()
		v.Set(reflect.ValueOf(arg))
		return v, nil
	}
	panic("vals.NewGoFn: unsupported parameter type " + t.String())
}

// ModuleBuilder builds a Module.
type ModuleBuilder struct{ m *Module }

// BuildModule starts building a module with the given name.
func BuildModule(name string) ModuleBuilder {
	return ModuleBuilder{&Module{Name: name, Attrs: map[string]any{}}}
}

// AddValues adds attributes that are plain values, like constants and types.
func (b ModuleBuilder) AddValues(values map[string]any) ModuleBuilder {
	for name, v := range values {
		b.m.Attrs[name] = v
	}
	return b
}

// AddGoFns adds functions, wrapping each with NewGoFn.
func (b ModuleBuilder) AddGoFns(fns map[string]any) ModuleBuilder {
	for name, impl := range fns {
		b.m.Attrs[name] = NewGoFn(name, impl)
	}
	return b
}

// Module returns the built module.
func (b ModuleBuilder) Module() *Module { return b.m }
