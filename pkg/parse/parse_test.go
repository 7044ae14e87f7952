package parse

import (
	"testing"

	"github.com/sandcalc/sandcalc/pkg/tt"
)

func parseBody(code string) (string, error) {
	m, err := Parse(Source{Name: "[test]", Code: code})
	if err != nil {
		return "", err
	}
	return Dump(m.Body), nil
}

func parseExpr(code string) (string, error) {
	e, err := ParseExpr(Source{Name: "[test]", Code: code})
	if err != nil {
		return "", err
	}
	return Dump(e), nil
}

func TestParse_Expressions(t *testing.T) {
	tt.Test(t, tt.Fn(parseBody).Named("parse"),
		tt.Args("1+2").Rets(
			`[Expr(Value=BinOp(Left=Constant(Value=1), Op=Add, Right=Constant(Value=2)))]`, nil),
		tt.Args("a - b - c").Rets(
			`[Expr(Value=BinOp(Left=BinOp(Left=Name(ID="a"), Op=Sub, Right=Name(ID="b")), Op=Sub, Right=Name(ID="c")))]`, nil).
			Named("left associativity"),
		tt.Args("-2**2").Rets(
			`[Expr(Value=UnaryOp(Op=USub, Operand=BinOp(Left=Constant(Value=2), Op=Pow, Right=Constant(Value=2))))]`, nil).
			Named("power binds tighter than unary minus"),
		tt.Args("2**-1").Rets(
			`[Expr(Value=BinOp(Left=Constant(Value=2), Op=Pow, Right=UnaryOp(Op=USub, Operand=Constant(Value=1))))]`, nil),
		tt.Args("not a and b or c").Rets(
			`[Expr(Value=BoolOp(Op=Or, Values=[BoolOp(Op=And, Values=[UnaryOp(Op=Not, Operand=Name(ID="a")), Name(ID="b")]), Name(ID="c")]))]`, nil),
		tt.Args("1 < x <= 2").Rets(
			`[Expr(Value=Compare(Left=Constant(Value=1), Ops=[Lt, LtE], Comparators=[Name(ID="x"), Constant(Value=2)]))]`, nil),
		tt.Args("a not in b is not c").Rets(
			`[Expr(Value=Compare(Left=Name(ID="a"), Ops=[NotIn, IsNot], Comparators=[Name(ID="b"), Name(ID="c")]))]`, nil),
		tt.Args("x if c else y").Rets(
			`[Expr(Value=IfExp(Test=Name(ID="c"), Body=Name(ID="x"), Orelse=Name(ID="y")))]`, nil),
		tt.Args("(y := 5)").Rets(
			`[Expr(Value=NamedExpr(Target=Name(ID="y"), Value=Constant(Value=5)))]`, nil),
		tt.Args("lambda x: x").Rets(
			`[Expr(Value=Lambda(Args=Arguments(Names=["x"]), Body=Name(ID="x")))]`, nil),

		// Displays
		tt.Args("()").Rets(`[Expr(Value=Tuple())]`, nil),
		tt.Args("(1,)").Rets(`[Expr(Value=Tuple(Elts=[Constant(Value=1)]))]`, nil),
		tt.Args("(1)").Rets(`[Expr(Value=Constant(Value=1))]`, nil),
		tt.Args("None, True, ...").Rets(
			`[Expr(Value=Tuple(Elts=[Constant(Value=None), Constant(Value=true), Constant(Value=Ellipsis)]))]`, nil),
		tt.Args("{1, 2}").Rets(
			`[Expr(Value=Set(Elts=[Constant(Value=1), Constant(Value=2)]))]`, nil),
		tt.Args("{1: 2, **d}").Rets(
			`[Expr(Value=Dict(Keys=[Constant(Value=1), nil], Values=[Constant(Value=2), Name(ID="d")]))]`, nil),
		tt.Args("[x*2 for x in y if x]").Rets(
			`[Expr(Value=ListComp(Elt=BinOp(Left=Name(ID="x"), Op=Mult, Right=Constant(Value=2)), Generators=[Comprehension(Target=Name(ID="x"), Iter=Name(ID="y"), Ifs=[Name(ID="x")])]))]`, nil),
		tt.Args("(x for x in y)").Rets(
			`[Expr(Value=GeneratorExp(Elt=Name(ID="x"), Generators=[Comprehension(Target=Name(ID="x"), Iter=Name(ID="y"))]))]`, nil),

		// Trailers
		tt.Args("f(a, *b, k=1, **c)").Rets(
			`[Expr(Value=Call(Func=Name(ID="f"), Args=[Name(ID="a"), Starred(Value=Name(ID="b"))], Keywords=[Keyword(Arg="k", Value=Constant(Value=1)), Keyword(Value=Name(ID="c"))]))]`, nil),
		tt.Args("a.b[1:2, ::3]").Rets(
			`[Expr(Value=Subscript(Value=Attribute(Value=Name(ID="a"), Attr="b"), Slice=Tuple(Elts=[Slice(Lower=Constant(Value=1), Upper=Constant(Value=2)), Slice(Step=Constant(Value=3))])))]`, nil),
	)
}

func TestParse_Literals(t *testing.T) {
	tt.Test(t, tt.Fn(parseExpr).Named("parseExpr"),
		tt.Args("0x_ff").Rets(`Constant(Value=255)`, nil),
		tt.Args("0o17").Rets(`Constant(Value=15)`, nil),
		tt.Args("0b101").Rets(`Constant(Value=5)`, nil),
		tt.Args("1_000.5").Rets(`Constant(Value=1000.5)`, nil),
		tt.Args("1e3").Rets(`Constant(Value=1000)`, nil),
		tt.Args("1e400").Rets(`Constant(Value=+Inf)`, nil),
		tt.Args("2j").Rets(`Constant(Value=(0+2i))`, nil),
		tt.Args("12345678901234567890123").Rets(`Constant(Value=12345678901234567890123)`, nil),

		tt.Args(`'a' "b"`).Rets(`Constant(Value="ab")`, nil).Named("implicit concatenation"),
		tt.Args(`r'\n'`).Rets(`Constant(Value="\\n")`, nil),
		tt.Args(`'\x41\u00e9'`).Rets(`Constant(Value="Aé")`, nil),
		tt.Args(`'\q'`).Rets(`Constant(Value="\\q")`, nil).Named("unknown escapes are kept"),
		tt.Args(`b'ab\x00'`).Rets(`Constant(Value=b"ab\x00")`, nil),
		tt.Args("'''a\nb'''").Rets(`Constant(Value="a\nb")`, nil),

		tt.Args(`f"{{x}}"`).Rets(`JoinedStr(Values=[Constant(Value="{x}")])`, nil),
		tt.Args(`f"a{x!r:>{w}}b{y=}"`).Rets(
			`JoinedStr(Values=[Constant(Value="a"), FormattedValue(Value=Name(ID="x"), Conversion='r', FormatSpec=JoinedStr(Values=[Constant(Value=">"), FormattedValue(Value=Name(ID="w"))])), Constant(Value="by="), FormattedValue(Value=Name(ID="y"), Conversion='r')])`, nil),
		tt.Args(`f"{x:.2f}" 'z'`).Rets(
			`JoinedStr(Values=[FormattedValue(Value=Name(ID="x"), FormatSpec=JoinedStr(Values=[Constant(Value=".2f")])), Constant(Value="z")])`, nil),
		tt.Args(`f"{'a' + "b"}"`).Rets(
			`JoinedStr(Values=[FormattedValue(Value=BinOp(Left=Constant(Value="a"), Op=Add, Right=Constant(Value="b")))])`, nil).
			Named("nested strings"),
		tt.Args(`f"{a == b}"`).Rets(
			`JoinedStr(Values=[FormattedValue(Value=Compare(Left=Name(ID="a"), Ops=[Eq], Comparators=[Name(ID="b")]))])`, nil),
	)
}

func TestParse_Statements(t *testing.T) {
	tt.Test(t, tt.Fn(parseBody).Named("parse"),
		tt.Args("a = b = 3").Rets(
			`[Assign(Targets=[Name(ID="a"), Name(ID="b")], Value=Constant(Value=3))]`, nil),
		tt.Args("a, *b = c").Rets(
			`[Assign(Targets=[Tuple(Elts=[Name(ID="a"), Starred(Value=Name(ID="b"))])], Value=Name(ID="c"))]`, nil),
		tt.Args("x += 1").Rets(
			`[AugAssign(Target=Name(ID="x"), Op=Add, Value=Constant(Value=1))]`, nil),
		tt.Args("x: int = 1").Rets(
			`[AnnAssign(Target=Name(ID="x"), Annotation=Name(ID="int"), Value=Constant(Value=1))]`, nil),
		tt.Args("del a, b[0]").Rets(
			`[Delete(Targets=[Name(ID="a"), Subscript(Value=Name(ID="b"), Slice=Constant(Value=0))])]`, nil),
		tt.Args("a = 1; b = 2").Rets(
			`[Assign(Targets=[Name(ID="a")], Value=Constant(Value=1)), Assign(Targets=[Name(ID="b")], Value=Constant(Value=2))]`, nil),
		tt.Args("x = 1 # comment\n\n  \n# c\ny").Rets(
			`[Assign(Targets=[Name(ID="x")], Value=Constant(Value=1)), Expr(Value=Name(ID="y"))]`, nil).
			Named("blank and comment lines"),
		tt.Args("x = (1 +\n     2)").Rets(
			`[Assign(Targets=[Name(ID="x")], Value=BinOp(Left=Constant(Value=1), Op=Add, Right=Constant(Value=2)))]`, nil).
			Named("implicit line joining"),
		tt.Args("x = 1 + \\\n 2").Rets(
			`[Assign(Targets=[Name(ID="x")], Value=BinOp(Left=Constant(Value=1), Op=Add, Right=Constant(Value=2)))]`, nil).
			Named("explicit line joining"),

		tt.Args("if a:\n    b\nelif c:\n    d\nelse:\n    e").Rets(
			`[If(Test=Name(ID="a"), Body=[Expr(Value=Name(ID="b"))], Orelse=[If(Test=Name(ID="c"), Body=[Expr(Value=Name(ID="d"))], Orelse=[Expr(Value=Name(ID="e"))])])]`, nil),
		tt.Args("for i in range(3):\n    pass\nelse:\n    break").Rets(
			`[For(Target=Name(ID="i"), Iter=Call(Func=Name(ID="range"), Args=[Constant(Value=3)]), Body=[Pass()], Orelse=[Break()])]`, nil),
		tt.Args("while x: x -= 1; y").Rets(
			`[While(Test=Name(ID="x"), Body=[AugAssign(Target=Name(ID="x"), Op=Sub, Value=Constant(Value=1)), Expr(Value=Name(ID="y"))])]`, nil),

		// Constructs that parse but are refused by the evaluator.
		tt.Args("def f(x, y=1, *a, **k) -> int:\n    return x").Rets(
			`[FunctionDef(Name="f", Args=Arguments(Names=["x", "y", "a", "k"], Defaults=[Constant(Value=1)]), Body=[Return(Value=Name(ID="x"))], Returns=Name(ID="int"))]`, nil),
		tt.Args("async def f(): await x").Rets(
			`[FunctionDef(Name="f", Args=Arguments(), Body=[Expr(Value=Await(Value=Name(ID="x")))], Async=true)]`, nil),
		tt.Args("class A(B, metaclass=M): pass").Rets(
			`[ClassDef(Name="A", Bases=[Name(ID="B")], Keywords=[Keyword(Arg="metaclass", Value=Name(ID="M"))], Body=[Pass()])]`, nil),
		tt.Args("import os.path as p, sys").Rets(
			`[Import(Names=[Alias(Name="os.path", AsName="p"), Alias(Name="sys")])]`, nil),
		tt.Args("from ..a import (b as c,)").Rets(
			`[ImportFrom(Module="a", Names=[Alias(Name="b", AsName="c")], Level=2)]`, nil),
		tt.Args("try:\n    pass\nexcept* E as e:\n    pass").Rets(
			`[Try(Body=[Pass()], Handlers=[ExceptHandler(Type=Name(ID="E"), Name="e", Body=[Pass()])], Star=true)]`, nil),
		tt.Args("with open(f) as g, h: pass").Rets(
			`[With(Items=[WithItem(ContextExpr=Call(Func=Name(ID="open"), Args=[Name(ID="f")]), OptionalVars=Name(ID="g")), WithItem(ContextExpr=Name(ID="h"))], Body=[Pass()])]`, nil),
		tt.Args("type T = int").Rets(
			`[TypeAlias(Name=Name(ID="T"), Value=Name(ID="int"))]`, nil),
		tt.Args("global a, b").Rets(`[Global(Names=["a", "b"])]`, nil),
		tt.Args("yield").Rets(`[Expr(Value=Yield())]`, nil),
		tt.Args("raise E from c").Rets(`[Raise(Exc=Name(ID="E"), Cause=Name(ID="c"))]`, nil),
		tt.Args("assert x, 'm'").Rets(`[Assert(Test=Name(ID="x"), Msg=Constant(Value="m"))]`, nil),
	)
}

var errorTestCases = []struct {
	name string
	code string

	wantErrPart  string
	wantErrAtEnd bool
	wantErrMsg   string
}{
	{
		name:         "incomplete binary expression",
		code:         "1 +",
		wantErrAtEnd: true,
		wantErrMsg:   "invalid syntax",
	},
	{
		name:         "missing block",
		code:         "if x:",
		wantErrAtEnd: true,
		wantErrMsg:   "expected an indented block after 'if' statement on line 1",
	},
	{
		name:         "unclosed parenthesis",
		code:         "(1, 2",
		wantErrAtEnd: true,
		wantErrMsg:   "'(' was never closed",
	},
	{
		name:         "unterminated triple-quoted string",
		code:         "'''abc",
		wantErrAtEnd: true,
		wantErrMsg:   "unterminated triple-quoted string literal (detected at line 1)",
	},
	{
		name:         "conditional expression without else",
		code:         "x if y",
		wantErrAtEnd: true,
		wantErrMsg:   "expected 'else' after 'if' expression",
	},
	{
		name:        "unterminated string",
		code:        "'abc",
		wantErrPart: "'abc",
		wantErrMsg:  "unterminated string literal (detected at line 1)",
	},
	{
		name:        "extra token",
		code:        "a b",
		wantErrPart: "b",
		wantErrMsg:  "invalid syntax",
	},
	{
		name:        "match statement",
		code:        "match x:\n    case 1: pass",
		wantErrPart: "x",
		wantErrMsg:  "invalid syntax",
	},
	{
		name:        "unexpected indent",
		code:        "  x",
		wantErrPart: "  ",
		wantErrMsg:  "unexpected indent",
	},
	{
		name:        "inconsistent dedent",
		code:        "if x:\n    a\n  b",
		wantErrPart: "  ",
		wantErrMsg:  "unindent does not match any outer indentation level",
	},
	{
		name:        "assignment to literal",
		code:        "1 = x",
		wantErrPart: "1",
		wantErrMsg:  "cannot assign to literal",
	},
	{
		name:        "assignment to literal in tuple",
		code:        "(a, 1) = x",
		wantErrPart: "1",
		wantErrMsg:  "cannot assign to literal",
	},
	{
		name:        "assignment to call",
		code:        "f() = 1",
		wantErrPart: "f()",
		wantErrMsg:  "cannot assign to function call",
	},
	{
		name:        "deletion of call",
		code:        "del f()",
		wantErrPart: "f()",
		wantErrMsg:  "cannot delete function call",
	},
	{
		name:        "augmented assignment to expression",
		code:        "x + 1 += 2",
		wantErrPart: "x + 1",
		wantErrMsg:  "'expression' is an illegal expression for augmented assignment",
	},
	{
		name:        "try without handlers",
		code:        "try:\n    pass\nx",
		wantErrPart: "x",
		wantErrMsg:  "expected 'except' or 'finally' block",
	},
	{
		name:        "positional argument after keyword",
		code:        "f(k=1, a)",
		wantErrPart: "a",
		wantErrMsg:  "positional argument follows keyword argument",
	},
	{
		name:        "positional argument after keyword unpacking",
		code:        "f(**k, a)",
		wantErrPart: "a",
		wantErrMsg:  "positional argument follows keyword argument unpacking",
	},
	{
		name:        "leading zeros",
		code:        "x = 012",
		wantErrPart: "012",
		wantErrMsg:  "leading zeros in decimal integer literals are not permitted; use an 0o prefix for octal integers",
	},
	{
		name:        "invalid binary literal",
		code:        "x = 0b2",
		wantErrPart: "0b",
		wantErrMsg:  "invalid binary literal",
	},
	{
		name:        "invalid decimal literal",
		code:        "1abc",
		wantErrPart: "1a",
		wantErrMsg:  "invalid decimal literal",
	},
	{
		name:        "unmatched closing parenthesis",
		code:        "x = )",
		wantErrPart: ")",
		wantErrMsg:  "unmatched ')'",
	},
	{
		name:        "truncated escape",
		code:        `'\xZZ'`,
		wantErrPart: `'\xZZ'`,
		wantErrMsg:  `(unicode error) truncated \xXX escape`,
	},
	{
		name:        "non-ASCII bytes",
		code:        "b'é'",
		wantErrPart: "b'é'",
		wantErrMsg:  "bytes can only contain ASCII literal characters",
	},
	{
		name:        "bytes mixed with str",
		code:        "'a' b'b'",
		wantErrPart: "b'b'",
		wantErrMsg:  "cannot mix bytes and nonbytes literals",
	},
	{
		name:        "empty replacement field",
		code:        "f'{}'",
		wantErrPart: "{}",
		wantErrMsg:  "f-string: valid expression required before '}'",
	},
	{
		name:        "bad conversion",
		code:        "f'{x!z}'",
		wantErrPart: "!z",
		wantErrMsg:  "f-string: invalid conversion character: expected 's', 'r', or 'a'",
	},
	{
		name:        "single closing brace in f-string",
		code:        "f'}'",
		wantErrPart: "}",
		wantErrMsg:  "f-string: single '}' is not allowed",
	},
}

func TestParse_Errors(t *testing.T) {
	for _, test := range errorTestCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(Source{Name: "[test]", Code: test.code})
			if err == nil {
				t.Fatalf("Parse(%q) returns no error, want error with %q",
					test.code, test.wantErrMsg)
			}
			parseError := UnpackError(err)
			if parseError == nil {
				t.Fatalf("Parse(%q) returns %T, want *Error", test.code, err)
			}
			r := parseError.Context
			if errPart := test.code[r.From:r.To]; errPart != test.wantErrPart {
				t.Errorf("Parse(%q) returns error with part %q, want %q",
					test.code, errPart, test.wantErrPart)
			}
			if atEnd := r.From == len(test.code); atEnd != test.wantErrAtEnd {
				t.Errorf("Parse(%q) returns error at end = %v, want %v",
					test.code, atEnd, test.wantErrAtEnd)
			}
			if parseError.Partial != test.wantErrAtEnd {
				t.Errorf("Parse(%q) returns error with Partial = %v, want %v",
					test.code, parseError.Partial, test.wantErrAtEnd)
			}
			if errMsg := parseError.Message; errMsg != test.wantErrMsg {
				t.Errorf("Parse(%q) returns error with message %q, want %q",
					test.code, errMsg, test.wantErrMsg)
			}
		})
	}
}

func TestParse_ErrorString(t *testing.T) {
	_, err := Parse(Source{Name: "a.py", Code: "x = 1\ny z"})
	want := "syntax error: a.py:2:3: invalid syntax"
	if err == nil || err.Error() != want {
		t.Errorf("got error %v, want %q", err, want)
	}
}

func TestParseExpr(t *testing.T) {
	tt.Test(t, tt.Fn(parseExpr).Named("parseExpr"),
		tt.Args("1, 2").Rets(`Tuple(Elts=[Constant(Value=1), Constant(Value=2)])`, nil),
		tt.Args("x = 1").Rets("", tt.Any),
	)
}

func TestKind(t *testing.T) {
	tt.Test(t, Kind.String,
		tt.Args(KindExprStmt).Rets("Expr"),
		tt.Args(KindAsyncFunctionDef).Rets("AsyncFunctionDef"),
		tt.Args(NotIn).Rets("NotIn"),
	)
	tt.Test(t, Kind.Symbol,
		tt.Args(FloorDiv).Rets("//"),
		tt.Args(IsNot).Rets("is not"),
		tt.Args(KindName).Rets(""),
	)
}

func TestWalk(t *testing.T) {
	m, err := Parse(Source{Name: "[test]", Code: "f(a, b[c])\nd = [e for e in g]"})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	Walk(m, func(n Node) bool {
		if name, ok := n.(*Name); ok {
			names = append(names, name.ID)
		}
		return true
	})
	want := []string{"f", "a", "b", "c", "d", "e", "e", "g"}
	if !equalStrings(names, want) {
		t.Errorf("got names %v, want %v", names, want)
	}
}

func TestWalk_Prune(t *testing.T) {
	m, _ := Parse(Source{Name: "[test]", Code: "x = [y for y in z]"})
	count := 0
	Walk(m, func(n Node) bool {
		count++
		return n.Kind() != KindListComp
	})
	// Module, Assign, Name x, ListComp
	if count != 4 {
		t.Errorf("visited %d nodes, want 4", count)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRanges(t *testing.T) {
	code := "x = foo(1, bar)"
	m, err := Parse(Source{Name: "[test]", Code: code})
	if err != nil {
		t.Fatal(err)
	}
	call := m.Body[0].(*Assign).Value.(*Call)
	if got := code[call.From:call.To]; got != "foo(1, bar)" {
		t.Errorf("call range covers %q", got)
	}
	arg := call.Args[1]
	r := arg.Range()
	if got := code[r.From:r.To]; got != "bar" {
		t.Errorf("argument range covers %q", got)
	}
}
