package parse

// Kind identifies the type of a node, or the operator carried by an operator
// node. The names are those of the reference grammar's syntax tree, and are
// used as dispatch keys by the evaluator and the operator tables.
type Kind int

// Node kinds. Kinds of statement nodes come first.
const (
	KindInvalid Kind = iota

	KindModule
	KindExprStmt
	KindAssign
	KindAugAssign
	KindAnnAssign
	KindDelete
	KindPass
	KindBreak
	KindContinue
	KindIf
	KindFor
	KindAsyncFor
	KindWhile
	KindFunctionDef
	KindAsyncFunctionDef
	KindClassDef
	KindReturn
	KindImport
	KindImportFrom
	KindGlobal
	KindNonlocal
	KindRaise
	KindTry
	KindTryStar
	KindExceptHandler
	KindWith
	KindAsyncWith
	KindAssert
	KindTypeAlias

	// Expression kinds.

	KindBoolOp
	KindNamedExpr
	KindBinOp
	KindUnaryOp
	KindLambda
	KindIfExp
	KindDict
	KindSet
	KindList
	KindTuple
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindComprehension
	KindAwait
	KindYield
	KindYieldFrom
	KindCompare
	KindCall
	KindKeyword
	KindFormattedValue
	KindJoinedStr
	KindConstant
	KindAttribute
	KindSubscript
	KindStarred
	KindName
	KindSlice

	// Operator kinds.

	Add
	Sub
	Mult
	MatMult
	Div
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
	FloorDiv

	And
	Or

	Invert
	Not
	UAdd
	USub

	Eq
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn

	nKinds
)

var kindNames = [nKinds]string{
	KindInvalid: "Invalid",

	KindModule:           "Module",
	KindExprStmt:         "Expr",
	KindAssign:           "Assign",
	KindAugAssign:        "AugAssign",
	KindAnnAssign:        "AnnAssign",
	KindDelete:           "Delete",
	KindPass:             "Pass",
	KindBreak:            "Break",
	KindContinue:         "Continue",
	KindIf:               "If",
	KindFor:              "For",
	KindAsyncFor:         "AsyncFor",
	KindWhile:            "While",
	KindFunctionDef:      "FunctionDef",
	KindAsyncFunctionDef: "AsyncFunctionDef",
	KindClassDef:         "ClassDef",
	KindReturn:           "Return",
	KindImport:           "Import",
	KindImportFrom:       "ImportFrom",
	KindGlobal:           "Global",
	KindNonlocal:         "Nonlocal",
	KindRaise:            "Raise",
	KindTry:              "Try",
	KindTryStar:          "TryStar",
	KindExceptHandler:    "ExceptHandler",
	KindWith:             "With",
	KindAsyncWith:        "AsyncWith",
	KindAssert:           "Assert",
	KindTypeAlias:        "TypeAlias",

	KindBoolOp:         "BoolOp",
	KindNamedExpr:      "NamedExpr",
	KindBinOp:          "BinOp",
	KindUnaryOp:        "UnaryOp",
	KindLambda:         "Lambda",
	KindIfExp:          "IfExp",
	KindDict:           "Dict",
	KindSet:            "Set",
	KindList:           "List",
	KindTuple:          "Tuple",
	KindListComp:       "ListComp",
	KindSetComp:        "SetComp",
	KindDictComp:       "DictComp",
	KindGeneratorExp:   "GeneratorExp",
	KindComprehension:  "comprehension",
	KindAwait:          "Await",
	KindYield:          "Yield",
	KindYieldFrom:      "YieldFrom",
	KindCompare:        "Compare",
	KindCall:           "Call",
	KindKeyword:        "keyword",
	KindFormattedValue: "FormattedValue",
	KindJoinedStr:      "JoinedStr",
	KindConstant:       "Constant",
	KindAttribute:      "Attribute",
	KindSubscript:      "Subscript",
	KindStarred:        "Starred",
	KindName:           "Name",
	KindSlice:          "Slice",

	Add:      "Add",
	Sub:      "Sub",
	Mult:     "Mult",
	MatMult:  "MatMult",
	Div:      "Div",
	Mod:      "Mod",
	Pow:      "Pow",
	LShift:   "LShift",
	RShift:   "RShift",
	BitOr:    "BitOr",
	BitXor:   "BitXor",
	BitAnd:   "BitAnd",
	FloorDiv: "FloorDiv",
	And:      "And",
	Or:       "Or",
	Invert:   "Invert",
	Not:      "Not",
	UAdd:     "UAdd",
	USub:     "USub",
	Eq:       "Eq",
	NotEq:    "NotEq",
	Lt:       "Lt",
	LtE:      "LtE",
	Gt:       "Gt",
	GtE:      "GtE",
	Is:       "Is",
	IsNot:    "IsNot",
	In:       "In",
	NotIn:    "NotIn",
}

func (k Kind) String() string {
	if k < 0 || k >= nKinds {
		return "Kind(?)"
	}
	return kindNames[k]
}

// Symbol returns the source spelling of an operator kind, or "" if k is not an
// operator.
func (k Kind) Symbol() string {
	return opSymbols[k]
}

var opSymbols = map[Kind]string{
	Add: "+", Sub: "-", Mult: "*", MatMult: "@", Div: "/", Mod: "%", Pow: "**",
	LShift: "<<", RShift: ">>", BitOr: "|", BitXor: "^", BitAnd: "&",
	FloorDiv: "//", And: "and", Or: "or",
	Invert: "~", Not: "not", UAdd: "+", USub: "-",
	Eq: "==", NotEq: "!=", Lt: "<", LtE: "<=", Gt: ">", GtE: ">=",
	Is: "is", IsNot: "is not", In: "in", NotIn: "not in",
}

var binOpTokens = map[string]Kind{
	"+": Add, "-": Sub, "*": Mult, "@": MatMult, "/": Div, "%": Mod,
	"**": Pow, "<<": LShift, ">>": RShift, "|": BitOr, "^": BitXor,
	"&": BitAnd, "//": FloorDiv,
}

var augAssignTokens = map[string]Kind{
	"+=": Add, "-=": Sub, "*=": Mult, "@=": MatMult, "/=": Div, "%=": Mod,
	"**=": Pow, "<<=": LShift, ">>=": RShift, "|=": BitOr, "^=": BitXor,
	"&=": BitAnd, "//=": FloorDiv,
}
