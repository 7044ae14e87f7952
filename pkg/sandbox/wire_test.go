package sandbox

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandcalc/sandcalc/pkg/diag"
	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/mods/datetime"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

func mustDecimal(t *testing.T, s string) *vals.Decimal {
	t.Helper()
	d, err := vals.ParseDecimal(s)
	require.NoError(t, err)
	return d
}

func mustSet(t *testing.T, frozen bool, elems ...any) *vals.Set {
	t.Helper()
	newSet := vals.NewSet
	if frozen {
		newSet = vals.NewFrozenSet
	}
	s, err := newSet(elems...)
	require.NoError(t, err)
	return s
}

// Values must survive a trip through JSON, which is what happens between the
// worker and its parent.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	w, err := EncodeValue(v)
	require.NoError(t, err)
	data, err := json.Marshal(w)
	require.NoError(t, err)
	var w2 Value
	require.NoError(t, json.Unmarshal(data, &w2))
	got, err := DecodeValue(w2)
	require.NoError(t, err)
	return got
}

func TestValueRoundTrip(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	dict := vals.NewDict()
	require.NoError(t, dict.Set("a", 1))
	require.NoError(t, dict.Set(vals.Tuple{1, 2}, vals.NewList("x")))
	date, err := datetime.NewDate(2024, 2, 29)
	require.NoError(t, err)
	dt, err := datetime.ParseISODateTime("2024-02-29T12:30:00")
	require.NoError(t, err)
	delta, err := datetime.NewTimeDelta(1, 2, 3)
	require.NoError(t, err)

	for _, v := range []any{
		vals.None,
		vals.Ellipsis,
		true,
		42,
		-7,
		huge,
		0.1,
		1e300,
		complex(1, -2),
		mustDecimal(t, "0.3"),
		mustDecimal(t, "1E+5"),
		"héllo\n",
		vals.Bytes("\x00\xff"),
		vals.NewList(1, "two", vals.NewList(3.0)),
		vals.Tuple{},
		vals.Tuple{1, vals.None},
		mustSet(t, false, 1, 2, 3),
		mustSet(t, true, "a"),
		dict,
		vals.Range{Start: 0, Stop: 10, Step: 3},
		vals.Slice{Start: 1, Stop: vals.None, Step: vals.None},
		date,
		dt,
		delta,
	} {
		got := roundTrip(t, v)
		assert.Truef(t, vals.Equal(v, got), "%s became %s", vals.Repr(v), vals.Repr(got))
		assert.Equal(t, vals.Repr(v), vals.Repr(got))
	}
}

func TestValueRoundTrip_KeepsGoTypes(t *testing.T) {
	assert.IsType(t, 0, roundTrip(t, 5))
	assert.IsType(t, &big.Int{}, roundTrip(t, new(big.Int).Lsh(big.NewInt(1), 100)))
	assert.IsType(t, &vals.Decimal{}, roundTrip(t, mustDecimal(t, "2.5")))
	assert.IsType(t, vals.Tuple{}, roundTrip(t, vals.Tuple{1}))
	assert.IsType(t, vals.Bytes(""), roundTrip(t, vals.Bytes("b")))
}

func TestValueRoundTrip_NamedValues(t *testing.T) {
	globals := eval.Globals(false)
	for _, name := range []string{"abs", "int", "math", "datetime"} {
		v := globals[name]
		require.NotNilf(t, v, "global %s", name)
		got := roundTrip(t, v)
		assert.Samef(t, v, got, "%s should decode to the same object", name)
	}
}

func TestValueRoundTrip_UnknownValue(t *testing.T) {
	v := vals.Method(1, "bit_length", func([]any, vals.Kwargs) (any, error) { return 1, nil })
	got := roundTrip(t, v)
	opaque, ok := got.(vals.Opaque)
	require.Truef(t, ok, "got %T", got)
	assert.Equal(t, vals.Repr(v), opaque.Repr)
}

func TestDecodeValue_BadInput(t *testing.T) {
	for _, w := range []Value{
		{T: "no-such-tag"},
		{T: "int", V: json.RawMessage(`"12x"`)},
		{T: "decimal", V: json.RawMessage(`"1.2.3"`)},
		{T: "named", V: json.RawMessage(`"no-such-builtin"`)},
	} {
		_, err := DecodeValue(w)
		assert.Errorf(t, err, "decoding %+v", w)
	}
}

func TestDecodeBindings_UnknownName(t *testing.T) {
	_, err := DecodeBindings(map[string]Value{
		"f": {T: "named", V: json.RawMessage(`"math.no_such_function"`)}})
	assert.ErrorContains(t, err, `unknown named value "math.no_such_function"`)
}

func TestBindingsRoundTrip(t *testing.T) {
	m := map[string]any{"x": 1, "y": vals.NewList(2.5), "z": mustDecimal(t, "0.1")}
	w, err := EncodeBindings(m)
	require.NoError(t, err)
	got, err := DecodeBindings(w)
	require.NoError(t, err)
	require.Len(t, got, len(m))
	for k, v := range m {
		assert.Truef(t, vals.Equal(v, got[k]), "binding %s", k)
	}
}

var errorRoundTripTests = []struct {
	name  string
	err   error
	check func(t *testing.T, err error)
}{
	{
		name: "syntax error",
		err: &parse.Error{Message: "invalid syntax",
			Context: diag.Context{Name: "[calc]", Source: "1 +", Ranging: diag.Ranging{From: 3, To: 3}},
			Partial: true},
		check: func(t *testing.T, err error) {
			e := parse.UnpackError(err)
			require.NotNil(t, e)
			assert.Equal(t, "invalid syntax", e.Message)
			assert.Equal(t, "1 +", e.Context.Source)
			assert.Equal(t, 3, e.Context.From)
			assert.True(t, e.Partial)
		},
	},
	{
		name: "policy violation",
		err: &eval.BadSyntax{Message: "lambda expressions are not allowed",
			Context: diag.Context{Name: "[calc]", Source: "lambda: 0", Ranging: diag.Ranging{From: 0, To: 9}}},
		check: func(t *testing.T, err error) {
			e := eval.UnpackBadSyntax(err)
			require.NotNil(t, e)
			assert.Equal(t, "lambda expressions are not allowed", e.Message)
			assert.Equal(t, diag.Ranging{From: 0, To: 9}, e.Context.Ranging)
		},
	},
	{
		name: "native error",
		err:  errs.New(errs.ZeroDivisionError, "division by zero"),
		check: func(t *testing.T, err error) {
			assert.True(t, errs.Is(err, errs.ZeroDivisionError))
			assert.Equal(t, errs.New(errs.ZeroDivisionError, "division by zero").Error(), err.Error())
		},
	},
	{
		name: "not implemented",
		err:  errs.NotImplemented{What: "complex floor division"},
		check: func(t *testing.T, err error) {
			var ni errs.NotImplemented
			require.True(t, errors.As(err, &ni))
			assert.Equal(t, "complex floor division", ni.What)
		},
	},
	{
		name:  "timeout",
		err:   ErrTimeout,
		check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrTimeout) },
	},
	{
		name:  "out of memory",
		err:   ErrOutOfMemory,
		check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrOutOfMemory) },
	},
	{
		name:  "anything else",
		err:   errors.New("boom"),
		check: func(t *testing.T, err error) { assert.EqualError(t, err, "boom") },
	},
}

func TestErrorRoundTrip(t *testing.T) {
	for _, test := range errorRoundTripTests {
		t.Run(test.name, func(t *testing.T) {
			data, err := json.Marshal(EncodeError(test.err))
			require.NoError(t, err)
			var w Error
			require.NoError(t, json.Unmarshal(data, &w))
			test.check(t, w.Decode())
		})
	}
}
