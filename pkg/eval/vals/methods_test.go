package vals

import (
	"testing"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

// Calls a method and returns the repr of the result.
func callMethod(recv any, name string, args ...any) string {
	return callMethodKw(recv, name, nil, args...)
}

func callMethodKw(recv any, name string, kw Kwargs, args ...any) string {
	m, err := GetAttr(recv, name)
	if err != nil {
		return err.Error()
	}
	return reprOrErr(Call(m, args, kw))
}

func TestStrMethods(t *testing.T) {
	tt.Test(t, tt.Fn(callMethod).Named("callMethod"),
		Args("Hello World", "upper").Rets("'HELLO WORLD'"),
		Args("Hello World", "swapcase").Rets("'hELLO wORLD'"),
		Args("hello world", "title").Rets("'Hello World'"),
		Args("hello World", "capitalize").Rets("'Hello world'"),
		Args("  x ", "strip").Rets("'x'"),
		Args("xxhixx", "strip", "x").Rets("'hi'"),
		Args("xxhi", "lstrip", "x").Rets("'hi'"),
		Args("a,b,,c", "split", ",").Rets("['a', 'b', '', 'c']"),
		Args(" a  b ", "split").Rets("['a', 'b']"),
		Args("a b c", "split", None, 1).Rets("['a', 'b c']"),
		Args("a b c", "rsplit", None, 1).Rets("['a b', 'c']"),
		Args("a,b,c", "rsplit", ",", 1).Rets("['a,b', 'c']"),
		Args("a", "split", "").Rets("ValueError: empty separator"),
		Args("a\nb\r\nc", "splitlines").Rets("['a', 'b', 'c']"),
		Args(",", "join", list("a", "b")).Rets("'a,b'"),
		Args(",", "join", list("a", 1)).Rets(
			"TypeError: sequence item 1: expected str instance, int found"),
		Args("a-b-c", "partition", "-").Rets("('a', '-', 'b-c')"),
		Args("a-b-c", "rpartition", "-").Rets("('a-b', '-', 'c')"),
		Args("a-b-c", "partition", "+").Rets("('a-b-c', '', '')"),
		Args("hello", "find", "l").Rets("2"),
		Args("hello", "rfind", "l").Rets("3"),
		Args("hello", "find", "l", 4).Rets("-1"),
		Args("héllo", "find", "l").Rets("2"),
		Args("hello", "index", "z").Rets("ValueError: substring not found"),
		Args("hello", "count", "l").Rets("2"),
		Args("abc", "startswith", Tuple{"x", "a"}).Rets("True"),
		Args("abc", "endswith", "bc").Rets("True"),
		Args("abc", "center", 7, "*").Rets("'**abc**'"),
		Args("abc", "ljust", 5).Rets("'abc  '"),
		Args("abc", "rjust", 5, "-").Rets("'--abc'"),
		Args("42", "zfill", 5).Rets("'00042'"),
		Args("-42", "zfill", 5).Rets("'-0042'"),
		Args("aaa", "replace", "a", "b", 2).Rets("'bba'"),
		Args("prefix_x", "removeprefix", "prefix_").Rets("'x'"),
		Args("123", "isdigit").Rets("True"),
		Args("12a", "isdigit").Rets("False"),
		Args("", "isalpha").Rets("False"),
		Args("Hello World", "istitle").Rets("True"),
		Args("abc", "nope").Rets("AttributeError: 'str' object has no attribute 'nope'"),
	)
}

func TestListMethods(t *testing.T) {
	l := list(3, 1, 2)
	if got := callMethod(l, "sort"); got != "None" {
		t.Errorf("sort returned %s", got)
	}
	if got := Repr(l); got != "[1, 2, 3]" {
		t.Errorf("after sort, got %s", got)
	}
	callMethodKw(l, "sort", Kwargs{{"reverse", true}})
	if got := Repr(l); got != "[3, 2, 1]" {
		t.Errorf("after reverse sort, got %s", got)
	}

	words := list("bb", "a", "ccc")
	callMethodKw(words, "sort", Kwargs{{"key", NewBuiltin("len", func(args []any, kw Kwargs) (any, error) {
		return Len(args[0])
	})}})
	if got := Repr(words); got != "['a', 'bb', 'ccc']" {
		t.Errorf("after sort by len, got %s", got)
	}

	tt.Test(t, tt.Fn(callMethod).Named("callMethod"),
		Args(list(1, 2), "append", 3).Rets("None"),
		Args(list(1, 2), "pop").Rets("2"),
		Args(list(1, 2), "pop", 0).Rets("1"),
		Args(list(), "pop").Rets("IndexError: pop from empty list"),
		Args(list(1), "pop", 5).Rets("IndexError: pop index out of range"),
		Args(list(1, 2, 1), "count", 1).Rets("2"),
		Args(list(1, 2, 1), "index", 2).Rets("1"),
		Args(list(1, "a"), "sort").Rets(
			"TypeError: '<' not supported between instances of 'str' and 'int'"),
		Args(Tuple{1, 2, 2}, "count", 2).Rets("2"),
		Args(Tuple{1, 2}, "append", 2).Rets(
			"AttributeError: 'tuple' object has no attribute 'append'"),
	)

	l = list(1)
	callMethod(l, "extend", Tuple{2, 3})
	callMethod(l, "insert", 0, 0)
	callMethod(l, "remove", 2)
	callMethod(l, "reverse")
	if got := Repr(l); got != "[3, 1, 0]" {
		t.Errorf("got %s", got)
	}
}

func TestDictMethods(t *testing.T) {
	d := dict("a", 1)
	tt.Test(t, tt.Fn(callMethod).Named("callMethod"),
		Args(d, "get", "a").Rets("1"),
		Args(d, "get", "x").Rets("None"),
		Args(d, "get", "x", 0).Rets("0"),
		Args(d, "keys").Rets("dict_keys(['a'])"),
		Args(d, "items").Rets("dict_items([('a', 1)])"),
		Args(d, "pop", "x").Rets("KeyError: 'x'"),
		Args(d, "pop", "x", 5).Rets("5"),
		Args(d, "setdefault", "k", 2).Rets("2"),
		Args(dict(), "popitem").Rets("KeyError: 'popitem(): dictionary is empty'"),
	)
	callMethodKw(d, "update", Kwargs{{"z", 26}}, list(Tuple{"b", 2}))
	if got := Repr(d); got != "{'a': 1, 'k': 2, 'b': 2, 'z': 26}" {
		t.Errorf("got %s", got)
	}
	if got := callMethod(DictType, "fromkeys", "ab", 0); got != "{'a': 0, 'b': 0}" {
		t.Errorf("dict.fromkeys returned %s", got)
	}
}

func TestSetMethods(t *testing.T) {
	s := set(1, 2)
	callMethod(s, "add", 3)
	callMethod(s, "discard", 1)
	if got := Repr(s); got != "{2, 3}" {
		t.Errorf("got %s", got)
	}
	if got := callMethod(s, "remove", 9); got != "KeyError: 9" {
		t.Errorf("remove of missing element returned %s", got)
	}
	callMethod(s, "update", list(4), Tuple{5})
	if got := Repr(s); got != "{2, 3, 4, 5}" {
		t.Errorf("after update, got %s", got)
	}
	callMethod(s, "intersection_update", list(3, 4, 9))
	if got := Repr(s); got != "{3, 4}" {
		t.Errorf("after intersection_update, got %s", got)
	}

	f := &Set{d: *dict(1, nil, 2, nil), Frozen: true}
	tt.Test(t, tt.Fn(callMethod).Named("callMethod"),
		Args(f, "union", list(3)).Rets("frozenset({1, 2, 3})"),
		Args(f, "issubset", list(1, 2, 3)).Rets("True"),
		Args(f, "isdisjoint", Tuple{3}).Rets("True"),
		Args(f, "add", 3).Rets("AttributeError: 'frozenset' object has no attribute 'add'"),
	)
}

func TestNumberMethods(t *testing.T) {
	tt.Test(t, tt.Fn(callMethod).Named("callMethod"),
		Args(10, "bit_length").Rets("4"),
		Args(-255, "bit_count").Rets("8"),
		Args(true, "as_integer_ratio").Rets("(1, 1)"),
		Args(0.5, "as_integer_ratio").Rets("(1, 2)"),
		Args(2.0, "is_integer").Rets("True"),
		Args(1.5, "is_integer").Rets("False"),
		Args(3+4i, "conjugate").Rets("(3-4j)"),
		Args(dec("2"), "sqrt").Rets("Decimal('1.414213562373095048801688724')"),
		Args(dec("-1"), "sqrt").Rets(
			"decimal.InvalidOperation: [<class 'decimal.InvalidOperation'>]"),
		Args(dec("1.2345"), "quantize", dec("0.01")).Rets("Decimal('1.23')"),
		Args(dec("1.20"), "normalize").Rets("Decimal('1.2')"),
		Args(dec("2.5"), "to_integral_value").Rets("Decimal('2')"),
		Args(dec("-0.75"), "as_integer_ratio").Rets("(-3, 4)"),
		Args(dec("123.4"), "adjusted").Rets("2"),
		Args(dec("NaN"), "is_nan").Rets("True"),
		Args(dec("-1"), "copy_abs").Rets("Decimal('1')"),
	)
	tt.Test(t, GetAttr,
		Args(1+2i, "imag").Rets(2.0, nil),
		Args(5, "numerator").Rets(5, nil),
		Args(1.5, "real").Rets(1.5, nil),
		Args(5, "nope").Rets(nil,
			errs.New(errs.AttributeError, "'int' object has no attribute 'nope'")),
	)
}
