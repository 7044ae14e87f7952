package vals

import (
	"testing"

	"github.com/sandcalc/sandcalc/pkg/tt"
)

// Calls a type and returns the repr of the result.
func construct(t *Type, args ...any) string {
	return reprOrErr(Call(t, args, nil))
}

func TestConstructors(t *testing.T) {
	tt.Test(t, tt.Fn(construct).Named("construct"),
		Args(IntType).Rets("0"),
		Args(IntType, 3.9).Rets("3"),
		Args(IntType, -3.9).Rets("-3"),
		Args(IntType, dec("1e3")).Rets("1000"),
		Args(IntType, " 42 ").Rets("42"),
		Args(IntType, "1_000").Rets("1000"),
		Args(IntType, "ff", 16).Rets("255"),
		Args(IntType, "0x_ff", 0).Rets("255"),
		Args(IntType, "010", 0).Rets("ValueError: invalid literal for int() with base 0: '010'"),
		Args(IntType, "1.5").Rets("ValueError: invalid literal for int() with base 10: '1.5'"),
		Args(IntType, 1.5, 10).Rets("TypeError: int() can't convert non-string with explicit base"),
		Args(IntType, "1", 99).Rets("ValueError: int() base must be >= 2 and <= 36, or 0"),
		Args(BoolType, list()).Rets("False"),
		Args(BoolType, "x").Rets("True"),
		Args(FloatType, "  1_000.5 ").Rets("1000.5"),
		Args(FloatType, "-inf").Rets("-inf"),
		Args(FloatType, "1e400").Rets("inf"),
		Args(FloatType, "abc").Rets("ValueError: could not convert string to float: 'abc'"),
		Args(ComplexType, 1, 2).Rets("(1+2j)"),
		Args(ComplexType, "1+2j").Rets("(1+2j)"),
		Args(ComplexType, "1+2i").Rets("ValueError: complex() arg is a malformed string"),
		Args(ComplexType, "x", 1).Rets(
			"TypeError: complex() can't take second arg if first is a string"),
		Args(DecimalType).Rets("Decimal('0')"),
		Args(DecimalType, "1.10").Rets("Decimal('1.10')"),
		Args(DecimalType, 0.1).Rets("Decimal('0.1000000000000000055511151231257827021181583404541015625')"),
		Args(DecimalType, "1.2.3").Rets(
			"decimal.InvalidOperation: [<class 'decimal.ConversionSyntax'>]"),
		Args(StrType, 1.5).Rets("'1.5'"),
		Args(StrType).Rets("''"),
		Args(ListType, "ab").Rets("['a', 'b']"),
		Args(TupleType).Rets("()"),
		Args(TupleType, list(1)).Rets("(1,)"),
		Args(DictType, list(Tuple{"a", 1})).Rets("{'a': 1}"),
		Args(DictType, list(1)).Rets(
			"TypeError: cannot convert dictionary update sequence element #0 to a sequence"),
		Args(DictType, list("abc")).Rets(
			"ValueError: dictionary update sequence element #0 has length 3; 2 is required"),
		Args(SetType, "aba").Rets("{'a', 'b'}"),
		Args(SetType).Rets("set()"),
		Args(FrozenSetType, list(1)).Rets("frozenset({1})"),
		Args(RangeType, 3).Rets("range(0, 3)"),
		Args(RangeType, 0, 10, 0).Rets("ValueError: range() arg 3 must not be zero"),
		Args(RangeType, 1.5).Rets(
			"TypeError: 'float' object cannot be interpreted as an integer"),
		Args(SliceType, 2).Rets("slice(None, 2, None)"),
		Args(TypeType, 1).Rets("<class 'int'>"),
		Args(TypeType, dec("1")).Rets("<class 'decimal.Decimal'>"),
	)
	if got := reprOrErr(Call(DecimalType, []any{"1"}, Kwargs{{"context", None}})); got !=
		"TypeError: Decimal() context argument is not supported" {
		t.Errorf("Decimal with context returned %s", got)
	}
	if got := callMethod(DecimalType, "from_float", 0.25); got != "Decimal('0.25')" {
		t.Errorf("Decimal.from_float returned %s", got)
	}
}

func TestDecimalRange(t *testing.T) {
	r, err := NewDecimalRange(dec("0"), dec("1"), dec("0.25"))
	if err != nil {
		t.Fatal(err)
	}
	elems, err := Collect(r)
	if err != nil {
		t.Fatal(err)
	}
	if got := Repr(Tuple(elems)); got !=
		"(Decimal('0'), Decimal('0.25'), Decimal('0.50'), Decimal('0.75'))" {
		t.Errorf("got %s", got)
	}
	if _, err := NewDecimalRange(dec("0"), dec("1"), dec("0")); err == nil {
		t.Errorf("zero step did not fail")
	}
}
