package policy

import (
	"testing"

	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

var Args = tt.Args

var mathModule = &vals.Module{Name: "math", Attrs: map[string]any{}}

func TestCheckAttr(t *testing.T) {
	tt.Test(t, CheckAttr,
		Args(mathModule, "sqrt").Rets(true, ""),
		Args(mathModule, "__loader__").Rets(false,
			"access to attribute '__loader__' of module 'math' is not allowed"),
		Args(vals.DictType, "fromkeys").Rets(true, ""),
		Args(vals.DictType, "mro").Rets(false,
			"access to attribute 'mro' of class 'dict' is not allowed"),
		Args(vals.DecimalType, "from_float").Rets(true, ""),
		// Every class can read what the entry of "type" lists.
		Args(vals.ListType, "__name__").Rets(true, ""),
		Args(vals.IntType, "__name__").Rets(true, ""),
		Args(vals.DictType, "__name__").Rets(true, ""),
		Args(vals.IntType, "from_bytes").Rets(false,
			"access to attribute 'from_bytes' of 'type' objects is not allowed"),
		Args(vals.ListType, "__subclasses__").Rets(false,
			"access to attribute '__subclasses__' of 'type' objects is not allowed"),
		Args("s", "upper").Rets(true, ""),
		Args("s", "format").Rets(false,
			"access to attribute 'format' of 'str' objects is not allowed"),
		Args(vals.DecimalFromInt(2), "sqrt").Rets(true, ""),
		Args(true, "bit_length").Rets(true, ""),
		Args(vals.NewBuiltin("len", nil), "__self__").Rets(false,
			"no attributes of 'builtin_function_or_method' objects are accessible"),
		Args(vals.None, "x").Rets(false, "no attributes of 'NoneType' objects are accessible"),
	)
}

func TestOperatorTables(t *testing.T) {
	for op := parse.Add; op <= parse.FloorDiv; op++ {
		if BinOps[op] == nil {
			t.Errorf("no binary operator for %v", op)
		}
	}
	for op := parse.Eq; op <= parse.NotIn; op++ {
		if CmpOps[op] == nil {
			t.Errorf("no comparison operator for %v", op)
		}
	}
	for _, op := range []parse.Kind{parse.Invert, parse.Not, parse.UAdd, parse.USub} {
		if UnaryOps[op] == nil {
			t.Errorf("no unary operator for %v", op)
		}
	}
}

func TestBoolOps(t *testing.T) {
	fold := func(op parse.Kind, values ...any) any {
		b := BoolOps[op]
		acc := b.Start
		for _, v := range values {
			acc = b.Combine(acc, v)
		}
		return acc
	}
	tt.Test(t, tt.Fn(fold).Named("fold"),
		Args(parse.And, 1, 2).Rets(2),
		Args(parse.And, 0, 2).Rets(0),
		Args(parse.And, 1, "", 3).Rets(""),
		Args(parse.Or, 0, 2).Rets(true),
		Args(parse.Or, 0, "").Rets(true),
		Args(parse.Or, "a", 0).Rets(true),
	)
}

func TestInstancesListNoDunders(t *testing.T) {
	for typ, attrs := range Instances {
		for name := range attrs {
			if typ != "type" && len(name) > 4 && name[:2] == "__" {
				t.Errorf("dunder %s listed for %s", name, typ)
			}
		}
	}
}
