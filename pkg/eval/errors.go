package eval

import (
	"fmt"

	"github.com/sandcalc/sandcalc/pkg/diag"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

// BadSyntax is a policy violation: a construct that parses but may not be
// run, or an attribute that may not be read.
type BadSyntax = diag.Error[BadSyntaxTag]

// BadSyntaxTag parameterizes [diag.Error] to define [BadSyntax].
type BadSyntaxTag struct{}

func (BadSyntaxTag) ErrorTag() string { return "bad syntax" }

// UnpackBadSyntax returns the *BadSyntax wrapped in err, or nil if there is
// none.
func UnpackBadSyntax(err error) *BadSyntax {
	return diag.UnpackError[BadSyntaxTag](err)
}

func newBadSyntax(src parse.Source, r diag.Ranger, msg string) *BadSyntax {
	return &BadSyntax{Message: msg, Context: *diag.NewContext(src.Name, src.Code, r)}
}

func (ev *Evaluator) badSyntax(r diag.Ranger, format string, args ...any) error {
	return newBadSyntax(ev.src, r, fmt.Sprintf(format, args...))
}

// Constructs that are recognized and always rejected, with the phrase used
// to name them.
var rejected = map[parse.Kind]string{
	parse.KindFunctionDef:      "function definitions",
	parse.KindAsyncFunctionDef: "async function definitions",
	parse.KindClassDef:         "class definitions",
	parse.KindLambda:           "lambda expressions",
	parse.KindGeneratorExp:     "generator expressions",
	parse.KindImport:           "import statements",
	parse.KindImportFrom:       "from-import statements",
	parse.KindGlobal:           "global declarations",
	parse.KindNonlocal:         "nonlocal declarations",
	parse.KindReturn:           "return statements",
	parse.KindRaise:            "raise statements",
	parse.KindTry:              "try statements",
	parse.KindTryStar:          "try-except* statements",
	parse.KindWith:             "with statements",
	parse.KindAsyncWith:        "async with statements",
	parse.KindAsyncFor:         "async for loops",
	parse.KindAwait:            "await expressions",
	parse.KindYield:            "yield expressions",
	parse.KindYieldFrom:        "yield from expressions",
	parse.KindTypeAlias:        "type alias declarations",
	parse.KindAnnAssign:        "annotated assignments",
	parse.KindAssert:           "assert statements",
}

func rejectedMessage(k parse.Kind) (string, bool) {
	phrase, ok := rejected[k]
	if !ok {
		return "", false
	}
	return phrase + " are not allowed", true
}

// Verbs for target errors.
const (
	assignVerb    = "assign to"
	augAssignVerb = "use augmented assignment on"
	deleteVerb    = "delete"
)

// Checks the structure of an assignment, augmented assignment or deletion
// target. It returns the offending node and a message if the target is not
// allowed.
func checkTarget(n parse.Expr, verb string) (parse.Node, string) {
	switch n := n.(type) {
	case *parse.Name:
		return nil, ""
	case *parse.Tuple:
		return checkTargets(n, n.Elts, verb)
	case *parse.List:
		return checkTargets(n, n.Elts, verb)
	case *parse.Subscript:
		switch n.Slice.(type) {
		case *parse.Tuple:
			return n, "cannot " + verb + " subscript with a tuple index"
		case *parse.Slice:
			if verb != assignVerb {
				return n, "cannot " + verb + " slice"
			}
		}
		return nil, ""
	}
	return n, "cannot " + verb + " " + describe(n)
}

func checkTargets(n parse.Expr, elts []parse.Expr, verb string) (parse.Node, string) {
	if verb == augAssignVerb {
		return n, "cannot " + verb + " " + describe(n)
	}
	for _, elt := range elts {
		if bad, msg := checkTarget(elt, verb); bad != nil {
			return bad, msg
		}
	}
	return nil, ""
}

func describe(n parse.Expr) string {
	switch n.(type) {
	case *parse.Attribute:
		return "attribute"
	case *parse.Starred:
		return "starred expression"
	case *parse.Tuple:
		return "tuple"
	case *parse.List:
		return "list"
	case *parse.Call:
		return "function call"
	case *parse.Constant, *parse.JoinedStr:
		return "literal"
	case *parse.Subscript:
		return "subscript"
	}
	return "expression"
}

func (ev *Evaluator) checkTarget(n parse.Expr, verb string) error {
	if bad, msg := checkTarget(n, verb); bad != nil {
		return ev.badSyntax(bad, "%s", msg)
	}
	return nil
}
