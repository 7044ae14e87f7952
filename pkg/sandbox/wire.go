package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/sandcalc/sandcalc/pkg/diag"
	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/mods/datetime"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

// Value is the wire form of a value: a tag naming the representation and a
// payload whose shape depends on the tag.
type Value struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// Tags of Value.
const (
	tagNone         = "none"
	tagEllipsis     = "ellipsis"
	tagBool         = "bool"
	tagInt          = "int"
	tagFloat        = "float"
	tagComplex      = "complex"
	tagDecimal      = "decimal"
	tagStr          = "str"
	tagBytes        = "bytes"
	tagList         = "list"
	tagTuple        = "tuple"
	tagSet          = "set"
	tagFrozenSet    = "frozenset"
	tagDict         = "dict"
	tagRange        = "range"
	tagDecimalRange = "decimal_range"
	tagSlice        = "slice"
	tagDate         = "date"
	tagDateTime     = "datetime"
	tagTimeDelta    = "timedelta"
	tagNamed        = "named"
	tagOpaque       = "opaque"
)

// Builtins, types and modules are carried by the name they are reachable
// under from sandboxed code, like "abs", "int" or "math.sqrt".
var namedValues = sync.OnceValues(func() (map[any]string, map[string]any) {
	byValue := map[any]string{}
	byName := map[string]any{}
	add := func(name string, v any) {
		switch v.(type) {
		case *vals.Builtin, *vals.Type, *vals.Module:
		default:
			return
		}
		if _, ok := byValue[v]; !ok {
			byValue[v] = name
		}
		byName[name] = v
	}
	for _, decimal := range []bool{false, true} {
		for name, v := range eval.Globals(decimal) {
			if decimal && name == "range" {
				name = "range[decimal]"
			}
			add(name, v)
			if m, ok := v.(*vals.Module); ok {
				for attr, av := range m.Attrs {
					add(name+"."+attr, av)
				}
			}
		}
	}
	return byValue, byName
})

func encode(tag string, payload any) (Value, error) {
	if payload == nil {
		return Value{T: tag}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Value{}, err
	}
	return Value{T: tag, V: b}, nil
}

func encodeAll(vs []any) ([]Value, error) {
	out := make([]Value, len(vs))
	for i, v := range vs {
		w, err := EncodeValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// EncodeValue converts a value to its wire form. Values that have no wire
// form are encoded as opaque values that keep only their repr.
func EncodeValue(v any) (Value, error) {
	switch v := v.(type) {
	case vals.NoneType:
		return encode(tagNone, nil)
	case vals.EllipsisType:
		return encode(tagEllipsis, nil)
	case bool:
		return encode(tagBool, v)
	case int:
		return encode(tagInt, strconv.Itoa(v))
	case *big.Int:
		return encode(tagInt, v.String())
	case float64:
		return encode(tagFloat, strconv.FormatFloat(v, 'g', -1, 64))
	case complex128:
		return encode(tagComplex, [2]string{
			strconv.FormatFloat(real(v), 'g', -1, 64), strconv.FormatFloat(imag(v), 'g', -1, 64)})
	case *vals.Decimal:
		return encode(tagDecimal, v.String())
	case string:
		return encode(tagStr, v)
	case vals.Bytes:
		return encode(tagBytes, []byte(v))
	case *vals.List:
		elems, err := encodeAll(v.Elems)
		if err != nil {
			return Value{}, err
		}
		return encode(tagList, elems)
	case vals.Tuple:
		elems, err := encodeAll(v)
		if err != nil {
			return Value{}, err
		}
		return encode(tagTuple, elems)
	case *vals.Set:
		elems, err := encodeAll(v.Elems())
		if err != nil {
			return Value{}, err
		}
		if v.Frozen {
			return encode(tagFrozenSet, elems)
		}
		return encode(tagSet, elems)
	case *vals.Dict:
		var pairs [][2]Value
		var err error
		v.Each(func(k, val any) bool {
			var kw, vw Value
			if kw, err = EncodeValue(k); err != nil {
				return false
			}
			if vw, err = EncodeValue(val); err != nil {
				return false
			}
			pairs = append(pairs, [2]Value{kw, vw})
			return true
		})
		if err != nil {
			return Value{}, err
		}
		return encode(tagDict, pairs)
	case vals.Range:
		return encode(tagRange, [3]int{v.Start, v.Stop, v.Step})
	case *vals.DecimalRange:
		return encode(tagDecimalRange, [3]string{v.Start.String(), v.Stop.String(), v.Step.String()})
	case vals.Slice:
		bounds, err := encodeAll([]any{v.Start, v.Stop, v.Step})
		if err != nil {
			return Value{}, err
		}
		return encode(tagSlice, bounds)
	case datetime.Date:
		return encode(tagDate, v.ISOFormat())
	case datetime.DateTime:
		return encode(tagDateTime, v.ISOFormat("T"))
	case datetime.TimeDelta:
		days, secs, us := v.Fields()
		return encode(tagTimeDelta, [3]int{days, secs, us})
	case vals.Opaque:
		return encode(tagOpaque, v)
	}
	byValue, _ := namedValues()
	if name, ok := byValue[v]; ok {
		return encode(tagNamed, name)
	}
	return encode(tagOpaque, vals.Opaque{TypeName: vals.TypeName(v), Repr: vals.Repr(v)})
}

func decodeAll(raw json.RawMessage) ([]any, error) {
	var ws []Value
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, err
	}
	out := make([]any, len(ws))
	for i, w := range ws {
		v, err := DecodeValue(w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// DecodeValue converts a value from its wire form.
func DecodeValue(w Value) (any, error) {
	switch w.T {
	case tagNone:
		return vals.None, nil
	case tagEllipsis:
		return vals.Ellipsis, nil
	case tagBool:
		var b bool
		err := json.Unmarshal(w.V, &b)
		return b, err
	case tagInt:
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return nil, err
		}
		z, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("bad int %q", s)
		}
		return vals.NormalizeBigInt(z), nil
	case tagFloat:
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return nil, err
		}
		return strconv.ParseFloat(s, 64)
	case tagComplex:
		var parts [2]string
		if err := json.Unmarshal(w.V, &parts); err != nil {
			return nil, err
		}
		re, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, err
		}
		im, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, err
		}
		return complex(re, im), nil
	case tagDecimal:
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return nil, err
		}
		return vals.ParseDecimal(s)
	case tagStr:
		var s string
		err := json.Unmarshal(w.V, &s)
		return s, err
	case tagBytes:
		var b []byte
		err := json.Unmarshal(w.V, &b)
		return vals.Bytes(b), err
	case tagList:
		elems, err := decodeAll(w.V)
		if err != nil {
			return nil, err
		}
		return vals.NewList(elems...), nil
	case tagTuple:
		elems, err := decodeAll(w.V)
		if err != nil {
			return nil, err
		}
		return vals.Tuple(elems), nil
	case tagSet, tagFrozenSet:
		elems, err := decodeAll(w.V)
		if err != nil {
			return nil, err
		}
		if w.T == tagFrozenSet {
			return vals.NewFrozenSet(elems...)
		}
		return vals.NewSet(elems...)
	case tagDict:
		var pairs [][2]Value
		if err := json.Unmarshal(w.V, &pairs); err != nil {
			return nil, err
		}
		d := vals.NewDict()
		for _, p := range pairs {
			k, err := DecodeValue(p[0])
			if err != nil {
				return nil, err
			}
			v, err := DecodeValue(p[1])
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	case tagRange:
		var r [3]int
		if err := json.Unmarshal(w.V, &r); err != nil {
			return nil, err
		}
		return vals.Range{Start: r[0], Stop: r[1], Step: r[2]}, nil
	case tagDecimalRange:
		var r [3]string
		if err := json.Unmarshal(w.V, &r); err != nil {
			return nil, err
		}
		args := make([]any, 3)
		for i, s := range r {
			d, err := vals.ParseDecimal(s)
			if err != nil {
				return nil, err
			}
			args[i] = d
		}
		return vals.NewDecimalRange(args...)
	case tagSlice:
		bounds, err := decodeAll(w.V)
		if err != nil {
			return nil, err
		}
		if len(bounds) != 3 {
			return nil, errors.New("bad slice")
		}
		return vals.Slice{Start: bounds[0], Stop: bounds[1], Step: bounds[2]}, nil
	case tagDate:
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return nil, err
		}
		return datetime.ParseISODate(s)
	case tagDateTime:
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return nil, err
		}
		return datetime.ParseISODateTime(s)
	case tagTimeDelta:
		var f [3]int
		if err := json.Unmarshal(w.V, &f); err != nil {
			return nil, err
		}
		return datetime.NewTimeDelta(f[0], f[1], f[2])
	case tagNamed:
		var name string
		if err := json.Unmarshal(w.V, &name); err != nil {
			return nil, err
		}
		_, byName := namedValues()
		if v, ok := byName[name]; ok {
			return v, nil
		}
		// Both ends share the name table, so this is a corrupt payload.
		return nil, fmt.Errorf("unknown named value %q", name)
	case tagOpaque:
		var o vals.Opaque
		err := json.Unmarshal(w.V, &o)
		return o, err
	}
	return nil, fmt.Errorf("unknown value tag %q", w.T)
}

// EncodeBindings encodes every value of a binding table.
func EncodeBindings(m map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(m))
	for name, v := range m {
		w, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		out[name] = w
	}
	return out, nil
}

// DecodeBindings decodes every value of a binding table.
func DecodeBindings(m map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for name, w := range m {
		v, err := DecodeValue(w)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Error is the wire form of an error.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// Kind of the exception, for native errors.
	Exception string `json:"exception,omitempty"`
	// Location, for syntax errors and policy violations.
	Name    string `json:"name,omitempty"`
	Source  string `json:"source,omitempty"`
	From    int    `json:"from,omitempty"`
	To      int    `json:"to,omitempty"`
	Partial bool   `json:"partial,omitempty"`
}

// Kinds of Error.
const (
	errKindSyntax         = "syntax"
	errKindPolicy         = "policy"
	errKindNative         = "native"
	errKindNotImplemented = "not_implemented"
	errKindOutOfMemory    = "out_of_memory"
	errKindTimeout        = "timeout"
	errKindInternal       = "internal"
)

func errorWithContext(kind, msg string, ctx diag.Context, partial bool) *Error {
	return &Error{Kind: kind, Message: msg, Name: ctx.Name, Source: ctx.Source,
		From: ctx.From, To: ctx.To, Partial: partial}
}

// EncodeError converts an error to its wire form.
func EncodeError(err error) *Error {
	if e := parse.UnpackError(err); e != nil {
		return errorWithContext(errKindSyntax, e.Message, e.Context, e.Partial)
	}
	if e := eval.UnpackBadSyntax(err); e != nil {
		return errorWithContext(errKindPolicy, e.Message, e.Context, e.Partial)
	}
	var exc *errs.Exception
	if errors.As(err, &exc) {
		return &Error{Kind: errKindNative, Exception: exc.Kind.String(), Message: exc.Msg}
	}
	var ni errs.NotImplemented
	if errors.As(err, &ni) {
		return &Error{Kind: errKindNotImplemented, Message: ni.What}
	}
	switch {
	case errors.Is(err, ErrOutOfMemory):
		return &Error{Kind: errKindOutOfMemory, Message: err.Error()}
	case errors.Is(err, ErrTimeout):
		return &Error{Kind: errKindTimeout, Message: err.Error()}
	}
	return &Error{Kind: errKindInternal, Message: err.Error()}
}

// Decode rebuilds the error with the same Go type it had before encoding.
func (e *Error) Decode() error {
	ctx := diag.Context{Name: e.Name, Source: e.Source, Ranging: diag.Ranging{From: e.From, To: e.To}}
	switch e.Kind {
	case errKindSyntax:
		return &parse.Error{Message: e.Message, Context: ctx, Partial: e.Partial}
	case errKindPolicy:
		return &eval.BadSyntax{Message: e.Message, Context: ctx}
	case errKindNative:
		if k, ok := errs.ParseKind(e.Exception); ok {
			return errs.New(k, e.Message)
		}
	case errKindNotImplemented:
		return errs.NotImplemented{What: e.Message}
	case errKindOutOfMemory:
		return ErrOutOfMemory
	case errKindTimeout:
		return ErrTimeout
	}
	return errors.New(e.Message)
}
