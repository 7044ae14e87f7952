package parse

import "github.com/sandcalc/sandcalc/pkg/diag"

// Node represents a node in the syntax tree.
type Node interface {
	diag.Ranger
	Kind() Kind
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

type stmtNode struct{ diag.Ranging }

func (stmtNode) stmt() {}

type exprNode struct{ diag.Ranging }

func (exprNode) expr() {}

// Module is the root of a parsed source.
type Module struct {
	stmtNode
	Body []Stmt
}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	stmtNode
	Value Expr
}

// Assign is an assignment statement. There is more than one target in chained
// assignments like "a = b = 1".
type Assign struct {
	stmtNode
	Targets []Expr
	Value   Expr
}

// AugAssign is an augmented assignment like "a += 1".
type AugAssign struct {
	stmtNode
	Target Expr
	Op     Kind
	Value  Expr
}

// AnnAssign is an annotated assignment like "a: int = 1". Value may be nil.
type AnnAssign struct {
	stmtNode
	Target     Expr
	Annotation Expr
	Value      Expr
}

type Delete struct {
	stmtNode
	Targets []Expr
}

type Pass struct{ stmtNode }

type Break struct{ stmtNode }

type Continue struct{ stmtNode }

// If is an if statement. An elif clause is represented as an If that is the
// only statement of Orelse.
type If struct {
	stmtNode
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type For struct {
	stmtNode
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
	Async  bool
}

type While struct {
	stmtNode
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

// Arguments is the parameter list of a function definition or a lambda. Only
// the names are kept.
type Arguments struct {
	Names    []string
	Defaults []Expr
}

type FunctionDef struct {
	stmtNode
	Name       string
	Args       *Arguments
	Body       []Stmt
	Decorators []Expr
	Returns    Expr
	Async      bool
}

type ClassDef struct {
	stmtNode
	Name       string
	Bases      []Expr
	Keywords   []*Keyword
	Body       []Stmt
	Decorators []Expr
}

type Return struct {
	stmtNode
	Value Expr
}

// Alias is a name in an import statement.
type Alias struct {
	Name   string
	AsName string
}

type Import struct {
	stmtNode
	Names []*Alias
}

type ImportFrom struct {
	stmtNode
	Module string
	Names  []*Alias
	Level  int
}

type Global struct {
	stmtNode
	Names []string
}

type Nonlocal struct {
	stmtNode
	Names []string
}

type Raise struct {
	stmtNode
	Exc   Expr
	Cause Expr
}

// Try is a try statement. Star is set for "except*" clauses.
type Try struct {
	stmtNode
	Body      []Stmt
	Handlers  []*ExceptHandler
	Orelse    []Stmt
	Finalbody []Stmt
	Star      bool
}

// ExceptHandler is an except clause.
type ExceptHandler struct {
	diag.Ranging
	Type Expr
	Name string
	Body []Stmt
}

// WithItem is one context manager of a with statement.
type WithItem struct {
	ContextExpr  Expr
	OptionalVars Expr
}

type With struct {
	stmtNode
	Items []*WithItem
	Body  []Stmt
	Async bool
}

type Assert struct {
	stmtNode
	Test Expr
	Msg  Expr
}

// TypeAlias is a statement like "type Point = tuple[float, float]".
type TypeAlias struct {
	stmtNode
	Name  *Name
	Value Expr
}

// BoolOp is a chain of "and" or a chain of "or" operators.
type BoolOp struct {
	exprNode
	Op     Kind
	Values []Expr
}

// NamedExpr is an assignment expression, "target := value".
type NamedExpr struct {
	exprNode
	Target *Name
	Value  Expr
}

type BinOp struct {
	exprNode
	Left  Expr
	Op    Kind
	Right Expr
}

type UnaryOp struct {
	exprNode
	Op      Kind
	Operand Expr
}

type Lambda struct {
	exprNode
	Args *Arguments
	Body Expr
}

// IfExp is a conditional expression, "body if test else orelse".
type IfExp struct {
	exprNode
	Test   Expr
	Body   Expr
	Orelse Expr
}

// Dict is a dict display. A nil key means the corresponding value is unpacked
// with "**".
type Dict struct {
	exprNode
	Keys   []Expr
	Values []Expr
}

type Set struct {
	exprNode
	Elts []Expr
}

type List struct {
	exprNode
	Elts []Expr
}

type Tuple struct {
	exprNode
	Elts []Expr
}

type ListComp struct {
	exprNode
	Elt        Expr
	Generators []*Comprehension
}

type SetComp struct {
	exprNode
	Elt        Expr
	Generators []*Comprehension
}

type DictComp struct {
	exprNode
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

type GeneratorExp struct {
	exprNode
	Elt        Expr
	Generators []*Comprehension
}

// Comprehension is one "for ... in ... if ..." clause.
type Comprehension struct {
	exprNode
	Target Expr
	Iter   Expr
	Ifs    []Expr
	Async  bool
}

type Await struct {
	exprNode
	Value Expr
}

type Yield struct {
	exprNode
	Value Expr
}

type YieldFrom struct {
	exprNode
	Value Expr
}

// Compare is a possibly chained comparison. Ops and Comparators have the same
// length.
type Compare struct {
	exprNode
	Left        Expr
	Ops         []Kind
	Comparators []Expr
}

type Call struct {
	exprNode
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// Keyword is a keyword argument of a call. An empty Arg means the value is
// unpacked with "**".
type Keyword struct {
	exprNode
	Arg   string
	Value Expr
}

// FormattedValue is a replacement field of an f-string. Conversion is one of
// 0, 'r', 's' and 'a'; FormatSpec may be nil.
type FormattedValue struct {
	exprNode
	Value      Expr
	Conversion rune
	FormatSpec *JoinedStr
}

// JoinedStr is an f-string. Its values are string Constant and
// FormattedValue nodes.
type JoinedStr struct {
	exprNode
	Values []Expr
}

// Constant is a literal. The value is one of None, Ellipsis, bool, int,
// *big.Int, float64, complex128, string and []byte.
type Constant struct {
	exprNode
	Value any
}

type Attribute struct {
	exprNode
	Value Expr
	Attr  string
}

type Subscript struct {
	exprNode
	Value Expr
	Slice Expr
}

type Starred struct {
	exprNode
	Value Expr
}

type Name struct {
	exprNode
	ID string
}

// Slice is the "lower:upper:step" form in a subscript. Any part may be nil.
type Slice struct {
	exprNode
	Lower Expr
	Upper Expr
	Step  Expr
}

// NoneType is the type of the None constant.
type NoneType struct{}

func (NoneType) String() string { return "None" }

// EllipsisType is the type of the Ellipsis constant.
type EllipsisType struct{}

func (EllipsisType) String() string { return "Ellipsis" }

var (
	// None is the value of the "None" literal.
	None = NoneType{}
	// Ellipsis is the value of the "..." literal.
	Ellipsis = EllipsisType{}
)

func (*Module) Kind() Kind         { return KindModule }
func (*ExprStmt) Kind() Kind       { return KindExprStmt }
func (*Assign) Kind() Kind         { return KindAssign }
func (*AugAssign) Kind() Kind      { return KindAugAssign }
func (*AnnAssign) Kind() Kind      { return KindAnnAssign }
func (*Delete) Kind() Kind         { return KindDelete }
func (*Pass) Kind() Kind           { return KindPass }
func (*Break) Kind() Kind          { return KindBreak }
func (*Continue) Kind() Kind       { return KindContinue }
func (*If) Kind() Kind             { return KindIf }
func (*While) Kind() Kind          { return KindWhile }
func (*ClassDef) Kind() Kind       { return KindClassDef }
func (*Return) Kind() Kind         { return KindReturn }
func (*Import) Kind() Kind         { return KindImport }
func (*ImportFrom) Kind() Kind     { return KindImportFrom }
func (*Global) Kind() Kind         { return KindGlobal }
func (*Nonlocal) Kind() Kind       { return KindNonlocal }
func (*Raise) Kind() Kind          { return KindRaise }
func (*ExceptHandler) Kind() Kind  { return KindExceptHandler }
func (*Assert) Kind() Kind         { return KindAssert }
func (*TypeAlias) Kind() Kind      { return KindTypeAlias }
func (*BoolOp) Kind() Kind         { return KindBoolOp }
func (*NamedExpr) Kind() Kind      { return KindNamedExpr }
func (*BinOp) Kind() Kind          { return KindBinOp }
func (*UnaryOp) Kind() Kind        { return KindUnaryOp }
func (*Lambda) Kind() Kind         { return KindLambda }
func (*IfExp) Kind() Kind          { return KindIfExp }
func (*Dict) Kind() Kind           { return KindDict }
func (*Set) Kind() Kind            { return KindSet }
func (*List) Kind() Kind           { return KindList }
func (*Tuple) Kind() Kind          { return KindTuple }
func (*ListComp) Kind() Kind       { return KindListComp }
func (*SetComp) Kind() Kind        { return KindSetComp }
func (*DictComp) Kind() Kind       { return KindDictComp }
func (*GeneratorExp) Kind() Kind   { return KindGeneratorExp }
func (*Comprehension) Kind() Kind  { return KindComprehension }
func (*Await) Kind() Kind          { return KindAwait }
func (*Yield) Kind() Kind          { return KindYield }
func (*YieldFrom) Kind() Kind      { return KindYieldFrom }
func (*Compare) Kind() Kind        { return KindCompare }
func (*Call) Kind() Kind           { return KindCall }
func (*Keyword) Kind() Kind        { return KindKeyword }
func (*FormattedValue) Kind() Kind { return KindFormattedValue }
func (*JoinedStr) Kind() Kind      { return KindJoinedStr }
func (*Constant) Kind() Kind       { return KindConstant }
func (*Attribute) Kind() Kind      { return KindAttribute }
func (*Subscript) Kind() Kind      { return KindSubscript }
func (*Starred) Kind() Kind        { return KindStarred }
func (*Name) Kind() Kind           { return KindName }
func (*Slice) Kind() Kind          { return KindSlice }

func (n *For) Kind() Kind {
	if n.Async {
		return KindAsyncFor
	}
	return KindFor
}

func (n *FunctionDef) Kind() Kind {
	if n.Async {
		return KindAsyncFunctionDef
	}
	return KindFunctionDef
}

func (n *Try) Kind() Kind {
	if n.Star {
		return KindTryStar
	}
	return KindTry
}

func (n *With) Kind() Kind {
	if n.Async {
		return KindAsyncWith
	}
	return KindWith
}
