package eval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	. "github.com/sandcalc/sandcalc/pkg/eval/evaltest"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

func TestCalculate_Scenarios(t *testing.T) {
	TestDecimal(t,
		That("1+2").Gives(D("3")),
		That("money = 1000").Gives(vals.None).Binds("money", D("1000")),
		That("a = 11;\nif a > 10:\n    a += 100\na").
			Gives(D("111")).Binds("a", D("111")),
		That("1/0").Throws(ErrorWithKind(errs.ZeroDivisionError)),
		That("[x*10 for x in [0,1,2]]").
			Gives(L(D("0"), D("10"), D("20"))).DoesNotBind("x"),
	)
}

func TestCalculate(t *testing.T) {
	r, err := eval.Calculate("x = 2\nx ** 10", false)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != 1024 {
		t.Errorf("got value %v, want 1024", r.Value)
	}
	if len(r.Bindings) != 1 || r.Bindings["x"] != 2 {
		t.Errorf("got bindings %v, want x = 2", r.Bindings)
	}
}

func TestLiterals(t *testing.T) {
	Test(t,
		That("42").Gives(42),
		That("1_000").Gives(1000),
		That("0x10").Gives(16),
		That("2.5").Gives(2.5),
		That("1e3").Gives(1000.0),
		That("2j").Gives(complex(0, 2)),
		That("'a' 'b'").Gives("ab"),
		That("b'xy'").Gives(vals.Bytes("xy")),
		That("None").Gives(vals.None),
		That("True").Gives(true),
		That("...").Gives(vals.Ellipsis),
		That("100000000000000000000").Gives(ReprIs("100000000000000000000")),
	)
	TestDecimal(t,
		That("42").Gives(D("42")),
		That("0.1").Gives(D("0.1")),
		That("0.1 + 0.2").Gives(D("0.3")),
		That("1e3").Gives(D("1000.0")),
		That("2j").Gives(complex(0, 2)),
		That("'s'").Gives("s"),
		That("True").Gives(true),
	)
}

func TestDecimalPromotion(t *testing.T) {
	TestDecimal(t,
		That("1 + int(2)").Gives(D("3")),
		That("int(2) + 1").Gives(D("3")),
		That("divmod(7, 2)").Gives(T(D("3"), D("1"))),
		That("1 / 4").Gives(D("0.25")),
	)
}

func TestOperators(t *testing.T) {
	Test(t,
		That("7 // 2, 7 % 2, -7 // 2").Gives(T(3, 1, -4)),
		That("2 ** -1").Gives(0.5),
		That("1 << 3 | 1").Gives(9),
		That("~5").Gives(-6),
		That("not 0").Gives(true),
		That("-'a'").Throws(ErrorWithKind(errs.TypeError)),
		That("[1] * 3").Gives(L(1, 1, 1)),
		That("'%s=%d' % ('a', 1)").Gives("a=1"),
	)
}

func TestBoolOp_EvaluatesEveryOperand(t *testing.T) {
	Test(t,
		That("1 and 2").Gives(2),
		That("0 and 2").Gives(0),
		// The fold of "or" starts from True and never leaves it.
		That("0 or '' or 3").Gives(true),
		That("0 or 0").Gives(true),
		That("[] or ''").Gives(true),
		That("1 or 2").Gives(true),
		// Every operand is evaluated, even after the result is known.
		That("0 and (y := 5)").Gives(0).Binds("y", 5),
		That("1 or 1/0").Throws(ErrorWithKind(errs.ZeroDivisionError)),
	)
}

func TestCompare(t *testing.T) {
	Test(t,
		That("1 < 2 < 3").Gives(true),
		That("1 < 3 < 2").Gives(false),
		That("3 > 2 == 2").Gives(true),
		That("1 in [1, 2], 3 not in [1]").Gives(T(true, true)),
		That("None is None, 1 is not None").Gives(T(true, true)),
		// Comparators are evaluated even after a false comparison.
		That("2 < 1 < (z := 0)").Gives(false).Binds("z", 0),
		That("1 < 'a'").Throws(ErrorWithKind(errs.TypeError)),
	)
}

func TestNames(t *testing.T) {
	Test(t,
		That("undefined").Throws(Exc(errs.NameError, "name 'undefined' is not defined")),
		That("pi").Gives(Approximately(3.141592653589793)),
		That("abs(-3)").Gives(3),
		That("a = 1").Then("a + 1").Gives(2),
		That("(n := 10) + n").Gives(20).Binds("n", 10),
	)
}

func TestDisplays(t *testing.T) {
	Test(t,
		That("[1, *[2, 3]]").Gives(L(1, 2, 3)),
		That("(1, *'ab')").Gives(T(1, "a", "b")),
		That("len({1, 1, 2})").Gives(2),
		That("{'a': 1, **{'b': 2}}").Gives(ReprIs("{'a': 1, 'b': 2}")),
		That("{**[1]}").Throws(ErrorWithKind(errs.TypeError)),
		That("[*1]").Throws(Exc(errs.TypeError, "Value after * must be an iterable, not int")),
		That("{[]: 1}").Throws(ErrorWithKind(errs.TypeError)),
		That("1 if 0 else 2").Gives(2),
		That("1 if 1 else 1/0").Gives(1),
	)
}

func TestSubscript(t *testing.T) {
	Test(t,
		That("[1, 2, 3][-1]").Gives(3),
		That("'hello'[1:3]").Gives("el"),
		That("[1, 2, 3, 4][::2]").Gives(L(1, 3)),
		That("{'a': 1}['a']").Gives(1),
		That("{'a': 1}['b']").Throws(ErrorWithKind(errs.KeyError)),
		That("[1][5]").Throws(ErrorWithKind(errs.IndexError)),
	)
	TestDecimal(t,
		That("[1, 2, 3][1]").Gives(D("2")),
		That("'abc'[0:2]").Gives("ab"),
	)
}

func TestFString(t *testing.T) {
	Test(t,
		That("x = 3.14159\nf'{x:.2f}'").Gives("3.14"),
		That("f'{1+1}'").Gives("2"),
		That("f'{\"a\"!r}'").Gives("'a'"),
		That("w = 6\nf'{10:>{w}}'").Gives("    10"),
		That("x = 1\nf'{x=}'").Gives("x=1"),
		That("f'{\"é\"!a}'").Gives(`'\xe9'`),
	)
}

func TestCall(t *testing.T) {
	Test(t,
		That("max(*[1, 5, 3])").Gives(5),
		That("sorted([3, 1, 2], reverse=True)").Gives(L(3, 2, 1)),
		That("sorted([3, 1, 2], **{'reverse': True})").Gives(L(3, 2, 1)),
		That("sorted([1], reverse=True, **{'reverse': False})").
			Throws(ErrorWithKind(errs.TypeError)),
		That("sorted([1], **{1: 2})").Throws(Exc(errs.TypeError, "keywords must be strings")),
		That("1()").Throws(Exc(errs.TypeError, "'int' object is not callable")),
	)
}

func TestAttribute(t *testing.T) {
	Test(t,
		That("'abc'.upper()").Gives("ABC"),
		That("math.sqrt(16)").Gives(4.0),
		That("math.pi").Gives(Approximately(3.141592653589793)),
		That("(1.5).is_integer()").Gives(false),
		That("datetime.date(2024, 1, 2).year").Gives(2024),
		That("type(1).__name__, type([]).__name__, int.__name__").
			Gives(T("int", "list", "int")),
		That("datetime.date.__name__").Gives("date"),
		That("math.__dict__").
			RejectsWith("access to attribute '__dict__' of module 'math' is not allowed"),
		That("'a'.format").
			RejectsWith("access to attribute 'format' of 'str' objects is not allowed"),
		That("datetime.date.resolution").
			RejectsWith("access to attribute 'resolution' of class 'datetime.date' is not allowed"),
		That("abs.__self__").
			RejectsWith("no attributes of 'builtin_function_or_method' objects are accessible"),
		That("(1).__class__").
			RejectsWith("access to attribute '__class__' of 'int' objects is not allowed"),
		That("int.from_bytes").
			RejectsWith("access to attribute 'from_bytes' of 'type' objects is not allowed"),
	)
}

func TestAssign(t *testing.T) {
	Test(t,
		That("a = b = 3").Binds("a", 3, "b", 3),
		That("a, b = 1, 2").Binds("a", 1, "b", 2),
		That("[a, (b, c)] = [1, (2, 3)]").Binds("a", 1, "b", 2, "c", 3),
		That("a, b = 'xy'").Binds("a", "x", "b", "y"),
		That("a, b = 1, 2, 3").
			Throws(Exc(errs.ValueError, "too many values to unpack (expected 2)")).
			Binds("a", 1, "b", 2),
		That("a, b, c = 1, 2").
			Throws(Exc(errs.ValueError, "not enough values to unpack (expected 3, got 2)")).
			Binds("a", 1, "b", 2).DoesNotBind("c"),
		That("a, b = 1").Throws(Exc(errs.TypeError, "cannot unpack non-iterable int object")),
		That("l = [1, 2, 3]\nl[0] = 9\nl").Gives(L(9, 2, 3)),
		That("l = [1, 2, 3]\nl[1:] = [7]\nl").Gives(L(1, 7)),
		That("l = [1, 2, 3, 4]\nl[::2] = [0]").Throws(ErrorWithKind(errs.ValueError)),
		That("d = {}\nd['k'] = 1\nd").Gives(ReprIs("{'k': 1}")),
		That("x.y = 1").RejectsWith("cannot assign to attribute").DoesNotBind("x"),
		That("a, *b = 1, 2").RejectsWith("cannot assign to starred expression"),
		That("d = {}\nd[1, 2] = 3").RejectsWith("cannot assign to subscript with a tuple index"),
	)
}

func TestAugAssign(t *testing.T) {
	Test(t,
		That("a = 1\na += 2").Binds("a", 3),
		That("a = 10\na //= 3").Binds("a", 3),
		That("s = 'x'\ns *= 3").Binds("s", "xxx"),
		That("l = [1, 2]\nm = l\nl += (3,)\nm").Gives(L(1, 2, 3)),
		That("l = [1]\nm = l\nl *= 2\nm").Gives(L(1, 1)),
		That("t = (1,)\nu = t\nt += (2,)\nu").Gives(T(1)),
		That("s = {1}\nr = s\ns |= {2}\nlen(r)").Gives(2),
		That("d = {'a': 1}\ne = d\nd |= {'b': 2}\nlen(e)").Gives(2),
		That("l = [1, 2]\nl[0] += 5\nl").Gives(L(6, 2)),
		That("undefined += 1").Throws(ErrorWithKind(errs.NameError)),
		That("l = [1]\nl[0:1] += [2]").RejectsWith("cannot use augmented assignment on slice"),
		That("x.y += 1").RejectsWith("cannot use augmented assignment on attribute"),
	)
}

func TestDelete(t *testing.T) {
	Test(t,
		That("a = 1\ndel a").DoesNotBind("a"),
		That("a = b = 1\ndel a, b").DoesNotBind("a", "b"),
		That("l = [1, 2, 3]\ndel l[0]\nl").Gives(L(2, 3)),
		That("d = {'a': 1}\ndel d['a']\nd").Gives(ReprIs("{}")),
		That("del a").Throws(ErrorWithKind(errs.NameError)),
		That("l = [1, 2]\ndel l[0:1]").RejectsWith("cannot delete slice"),
		That("del x.y").RejectsWith("cannot delete attribute"),
	)
}

func TestIf(t *testing.T) {
	Test(t,
		That("if 0:\n  r = 1\nelif 1:\n  r = 2\nelse:\n  r = 3").Binds("r", 2),
		That("if []: r = 1\nelse: r = 0").Binds("r", 0),
	)
}

func TestFor(t *testing.T) {
	Test(t,
		That("s = 0\nfor i in range(5):\n  s += i").Binds("s", 10, "i", 4),
		That("for a, b in [(1, 2), (3, 4)]:\n  pass").Binds("a", 3, "b", 4),
		That("r = []\nfor i in range(5):\n  if i == 2:\n    continue\n  r.append(i)\nr").
			Gives(L(0, 1, 3, 4)),
		// The else clause runs once after the last iteration without a break.
		That("n = 0\nfor i in [1, 2]:\n  pass\nelse:\n  n += 1").Binds("n", 1),
		That("n = 0\nfor i in [1, 2]:\n  continue\nelse:\n  n += 1").Binds("n", 1),
		That("n = 0\nfor i in []:\n  pass\nelse:\n  n += 1").Binds("n", 1),
		// A break skips the else clause.
		That("n = 0\nfor i in [1, 2]:\n  break\nelse:\n  n += 1").Binds("n", 0, "i", 1),
		That("for x.y in [1]: pass").RejectsWith("cannot assign to attribute"),
		That("for i in 5: pass").Throws(ErrorWithKind(errs.TypeError)),
	)
}

func TestWhile(t *testing.T) {
	Test(t,
		That("i = 0\nwhile i < 3:\n  i += 1").Binds("i", 3),
		That("i = 0\nwhile True:\n  i += 1\n  if i == 5:\n    break").Binds("i", 5),
		That("i = 0\nn = 0\nwhile i < 2:\n  i += 1\nelse:\n  n = 1").Binds("n", 1),
		That("i = 0\nn = 0\nwhile True:\n  break\nelse:\n  n = 1").Binds("n", 0),
	)
}

func TestTopLevelInterrupts(t *testing.T) {
	Test(t,
		That("break\na = 1").Binds("a", 1),
		That("if True:\n  continue\n  b = 1\na = 2").Binds("a", 2).DoesNotBind("b"),
	)
}

func TestComprehensions(t *testing.T) {
	Test(t,
		That("[x**2 for x in [1, 2, 3]]").Gives(L(1, 4, 9)).DoesNotBind("x"),
		That("x = 'pre'\n[x for x in [1, 2]]\nx").Gives("pre"),
		That("[(i, j) for i in range(3) if i for j in range(i)]").
			Gives(L(T(1, 0), T(2, 0), T(2, 1))).DoesNotBind("i", "j"),
		That("[x for x in range(10) if x % 2 if x > 4]").Gives(L(5, 7, 9)),
		That("sorted({x % 3 for x in range(10)})").Gives(L(0, 1, 2)),
		That("{k: v for k, v in [('a', 1), ('b', 2)]}").Gives(ReprIs("{'a': 1, 'b': 2}")).
			DoesNotBind("k", "v"),
		That("[[y for y in range(x)] for x in range(3)]").Gives(L(L(), L(0), L(0, 1))),
		That("n = 2\n[x * n for x in [1]]").Gives(L(2)),
		That("[x for x in 1]").Throws(ErrorWithKind(errs.TypeError)),
		That("[x.y for x.y in [1]]").RejectsWith("cannot assign to attribute"),
	)
}

func TestRejectedConstructs(t *testing.T) {
	Test(t,
		That("def f(): pass").RejectsWith("function definitions are not allowed").DoesNotBind("f"),
		That("async def f(): pass").RejectsWith("async function definitions are not allowed"),
		That("class A: pass").RejectsWith("class definitions are not allowed").DoesNotBind("A"),
		That("f = lambda x: x").RejectsWith("lambda expressions are not allowed").DoesNotBind("f"),
		That("import os").RejectsWith("import statements are not allowed").DoesNotBind("os"),
		That("from os import path").RejectsWith("from-import statements are not allowed"),
		That("yield x").RejectsWith("yield expressions are not allowed"),
		That("yield from x").RejectsWith("yield from expressions are not allowed"),
		That("with a: pass").RejectsWith("with statements are not allowed"),
		That("try:\n  pass\nexcept:\n  pass").RejectsWith("try statements are not allowed"),
		That("try:\n  pass\nexcept* E:\n  pass").RejectsWith("try-except* statements are not allowed"),
		That("global x").RejectsWith("global declarations are not allowed"),
		That("nonlocal x").RejectsWith("nonlocal declarations are not allowed"),
		That("return x").RejectsWith("return statements are not allowed"),
		That("raise x").RejectsWith("raise statements are not allowed"),
		That("async for x in y: pass").RejectsWith("async for loops are not allowed"),
		That("async with a: pass").RejectsWith("async with statements are not allowed"),
		That("await x").RejectsWith("await expressions are not allowed"),
		That("g = (x for x in [1])").RejectsWith("generator expressions are not allowed").DoesNotBind("g"),
		That("x: int = 1").RejectsWith("annotated assignments are not allowed").DoesNotBind("x"),
		That("assert 1").RejectsWith("assert statements are not allowed"),
		That("type X = int").RejectsWith("type alias declarations are not allowed"),
		That("[x async for x in y]").RejectsWith("asynchronous comprehensions are not allowed"),
		That("1 +").DoesNotParse(),
	)
}

func TestBadSyntaxRange(t *testing.T) {
	_, err := eval.New(eval.Config{}).Run("a = 1\nx = lambda: 0")
	bs := eval.UnpackBadSyntax(err)
	if bs == nil {
		t.Fatalf("got error %v, want *BadSyntax", err)
	}
	if got := bs.Context.Source[bs.Range().From:bs.Range().To]; got != "lambda: 0" {
		t.Errorf("got culprit %q, want %q", got, "lambda: 0")
	}
}

func TestBuiltins(t *testing.T) {
	Test(t,
		That("all([1, 2]), all([1, 0]), any([]), any([0, 3])").Gives(T(true, false, false, true)),
		That("bin(5), oct(8), hex(255)").Gives(T("0b101", "0o10", "0xff")),
		That("chr(97), ord('a')").Gives(T("a", 97)),
		That("chr(-1)").Throws(ErrorWithKind(errs.ValueError)),
		That("ord('ab')").Throws(ErrorWithKind(errs.TypeError)),
		That("isinstance(True, int), isinstance(1, (str, float))").Gives(T(true, false)),
		That("isinstance(1, 2)").Throws(ErrorWithKind(errs.TypeError)),
		That("format(3.5, '.3f'), format(7)").Gives(T("3.500", "7")),
		That("len('abc'), len([1]), len({})").Gives(T(3, 1, 0)),
		That("max(1, 5, 3), min([4, 2, 8])").Gives(T(5, 2)),
		That("max(['a', 'bbb', 'cc'], key=len)").Gives("bbb"),
		That("max([], default=0)").Gives(0),
		That("max([])").Throws(Exc(errs.ValueError, "max() iterable argument is empty")),
		That("min(1, 2, default=0)").Throws(ErrorWithKind(errs.TypeError)),
		That("round(2.5), round(3.5), round(-0.5)").Gives(T(2, 4, 0)),
		That("round(2.675, 2)").Gives(2.67),
		That("round(1234, -2), round(1250, -2), round(1350, -2)").Gives(T(1200, 1200, 1400)),
		That("round(float('inf'))").Throws(ErrorWithKind(errs.OverflowError)),
		That("sum([1, 2, 3]), sum([[1], [2]], [])").Gives(T(6, L(1, 2))),
		That("sum(['a'], '')").Throws(ErrorWithKind(errs.TypeError)),
		That("list(reversed([1, 2, 3]))").Gives(L(3, 2, 1)),
		That("reversed({1})").Throws(Exc(errs.TypeError, "'set' object is not reversible")),
		That("list(enumerate('ab', 1))").Gives(L(T(1, "a"), T(2, "b"))),
		That("list(filter(None, [0, 1, '', 'a']))").Gives(L(1, "a")),
		That("list(filter(bool, [0, 2]))").Gives(L(2)),
		That("list(map(abs, [-1, -2]))").Gives(L(1, 2)),
		That("list(map(pow, [2, 3], [2, 2]))").Gives(L(4, 9)),
		That("list(zip('ab', [1, 2, 3]))").Gives(L(T("a", 1), T("b", 2))),
		That("list(zip('ab', [1], strict=True))").
			Throws(Exc(errs.ValueError, "zip() argument 2 is shorter than argument 1")),
		That("list(zip('a', [1, 2], strict=True))").
			Throws(Exc(errs.ValueError, "zip() argument 2 is longer than argument 1")),
		That("list(zip())").Gives(L()),
		That("pow(2, 10), pow(2, 10, 1000)").Gives(T(1024, 24)),
		That("repr('a'), str(1), int('10', 2)").Gives(T("'a'", "1", 2)),
		That("type(1) == int, type(type)").Gives(T(true, vals.TypeType)),
		That("Decimal('1.5') + 1").Gives(D("2.5")),
		That("dict(a=1)").Gives(ReprIs("{'a': 1}")),
		That("list(range(1, 10, 3))").Gives(L(1, 4, 7)),
		That("range(0, 1, 0.5)").Throws(ErrorWithKind(errs.TypeError)),
	)
	TestDecimal(t,
		That("list(range(0, 1, 0.25))").Gives(L(D("0"), D("0.25"), D("0.50"), D("0.75"))),
		That("hex(255)").Gives("0xff"),
		That("hex(2.5)").Throws(ErrorWithKind(errs.TypeError)),
		That("round(2.5)").Gives(2),
		That("round(1.2345, 2)").Gives(D("1.23")),
		That("sum([0.1, 0.2])").Gives(D("0.3")),
		That("chr(65)").Gives("A"),
		That("list(enumerate('a'))").Gives(L(T(0, "a"))),
	)
}

func TestBindingsPersistAcrossRuns(t *testing.T) {
	ev := eval.New(eval.Config{})
	if _, err := ev.Run("a = 1"); err != nil {
		t.Fatal(err)
	}
	r, err := ev.Run("b = a + 1")
	if err != nil {
		t.Fatal(err)
	}
	if r.Bindings["a"] != 1 || r.Bindings["b"] != 2 {
		t.Errorf("got bindings %v", r.Bindings)
	}
	ev.Reset()
	if _, err := ev.Run("a"); !errs.Is(err, errs.NameError) {
		t.Errorf("after Reset, got error %v, want NameError", err)
	}
}

func TestBind(t *testing.T) {
	Test(t,
		That("a * 2").WithSetup(func(ev *eval.Evaluator) {
			ev.Bind(map[string]any{"a": 21})
		}).Gives(42).Binds("a", 21),
	)
}

func TestRunContext_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eval.New(eval.Config{}).RunContext(ctx, parse.Source{Name: "[test]", Code: "while True: pass"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got error %v, want context.Canceled", err)
	}
}

func TestCheck(t *testing.T) {
	violations, err := eval.Check(Src("def f(): pass\nx.y = 1\nmath.system\n[a for a.b in c]\nmath.sqrt(2)"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"function definitions are not allowed",
		"cannot assign to attribute",
		"access to attribute 'system' of module 'math' is not allowed",
		"cannot assign to attribute",
	}
	if len(violations) != len(want) {
		t.Fatalf("got %d violations, want %d: %v", len(violations), len(want), violations)
	}
	for i, v := range violations {
		if v.Message != want[i] {
			t.Errorf("violation %d: got %q, want %q", i, v.Message, want[i])
		}
	}

	_, err = eval.Check(Src("1 +"))
	if parse.UnpackError(err) == nil {
		t.Errorf("got error %v, want parse error", err)
	}
}
