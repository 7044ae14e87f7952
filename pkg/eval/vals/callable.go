package vals

import (
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Kwarg is a keyword argument.
type Kwarg struct {
	Name  string
	Value any
}

// Kwargs holds the keyword arguments of a call, in the order they were
// written.
type Kwargs []Kwarg

// Get returns the value of a keyword argument.
func (kw Kwargs) Get(name string) (any, bool) {
	for _, a := range kw {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Caller is implemented by callable values.
type Caller interface {
	Call(args []any, kw Kwargs) (any, error)
}

// Call calls a value with arguments.
func Call(fn any, args []any, kw Kwargs) (any, error) {
	if c, ok := fn.(Caller); ok {
		return c.Call(args, kw)
	}
	return nil, errs.Newf(errs.TypeError, "'%s' object is not callable", TypeName(fn))
}

// Callable reports whether v can be called.
func Callable(v any) bool {
	_, ok := v.(Caller)
	return ok
}

func (t *Type) Call(args []any, kw Kwargs) (any, error) {
	if t.New == nil {
		return nil, errs.Newf(errs.TypeError, "cannot create '%s' instances", t.QualName())
	}
	return t.New(args, kw)
}

// Builtin is a function implemented in Go.
type Builtin struct {
	Name string
	Fn   func(args []any, kw Kwargs) (any, error)
}

// NewBuiltin creates a Builtin.
func NewBuiltin(name string, fn func(args []any, kw Kwargs) (any, error)) *Builtin {
	return &Builtin{name, fn}
}

func (b *Builtin) Call(args []any, kw Kwargs) (any, error) { return b.Fn(args, kw) }

func (b *Builtin) Repr() string { return "<built-in function " + b.Name + ">" }

// BoundMethod is a method of a built-in value, bound to its receiver.
type BoundMethod struct {
	Recv any
	Name string
	Fn   func(args []any, kw Kwargs) (any, error)
}

func (m *BoundMethod) Call(args []any, kw Kwargs) (any, error) { return m.Fn(args, kw) }

func (m *BoundMethod) Repr() string {
	if t, ok := m.Recv.(*Type); ok {
		return "<built-in method " + m.Name + " of type object '" + t.QualName() + "'>"
	}
	return "<built-in method " + m.Name + " of " + TypeName(m.Recv) + " object>"
}

// Module is a namespace of values, like the math module.
type Module struct {
	Name  string
	Attrs map[string]any
}

func (m *Module) Repr() string { return "<module '" + m.Name + "' (built-in)>" }

// Bind matches the arguments of a call to the named parameters of fn. The
// first required parameters must be supplied; missing optional parameters
// are nil in the result. Parameters before an entry "/" are positional-only,
// and parameters after an entry "*" are keyword-only.
func Bind(fn string, args []any, kw Kwargs, params []string, required int) ([]any, error) {
	var names []string
	posOnly, kwOnlyFrom := 0, -1
	for _, p := range params {
		switch p {
		case "/":
			posOnly = len(names)
		case "*":
			kwOnlyFrom = len(names)
		default:
			names = append(names, p)
		}
	}
	maxPos := len(names)
	if kwOnlyFrom >= 0 {
		maxPos = kwOnlyFrom
	}
	if len(args) > maxPos {
		if maxPos == 0 {
			return nil, errs.Newf(errs.TypeError, "%s() takes no positional arguments", fn)
		}
		return nil, errs.Newf(errs.TypeError, "%s() takes at most %d %s (%d given)",
			fn, maxPos, plural(maxPos, "argument"), len(args))
	}
	out := make([]any, len(names))
	copy(out, args)
	for _, a := range kw {
		i := paramIndex(names, a.Name)
		if i < 0 || i < posOnly {
			return nil, errs.Newf(errs.TypeError, "%s() got an unexpected keyword argument '%s'", fn, a.Name)
		}
		if i < len(args) {
			return nil, errs.Newf(errs.TypeError, "%s() got multiple values for argument '%s'", fn, a.Name)
		}
		out[i] = a.Value
	}
	for i := 0; i < required && i < len(names); i++ {
		if out[i] == nil {
			return nil, errs.Newf(errs.TypeError, "%s() missing required argument '%s' (pos %d)", fn, names[i], i+1)
		}
	}
	return out, nil
}

func paramIndex(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func plural(n int, s string) string {
	if n == 1 {
		return s
	}
	return s + "s"
}

// NoKwargs returns an error if there are keyword arguments.
func NoKwargs(fn string, kw Kwargs) error {
	if len(kw) > 0 {
		return errs.Newf(errs.TypeError, "%s() takes no keyword arguments", fn)
	}
	return nil
}

// CheckArity checks the number of positional arguments and rejects keyword
// arguments.
func CheckArity(fn string, args []any, kw Kwargs, low, high int) error {
	if err := NoKwargs(fn, kw); err != nil {
		return err
	}
	if len(args) < low || (high >= 0 && len(args) > high) {
		return errs.Arity(fn, low, high, len(args))
	}
	return nil
}

// Returns the short name of a method for error messages, like "list.append".
func methodName(recv any, name string) string {
	return strings.TrimPrefix(TypeName(recv)+"."+name, ".")
}
