package parse

import (
	"fmt"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/diag"
)

// parser is a recursive-descent parser over the token stream. Errors abort
// parsing by panicking with a parseError, which Parse recovers.
type parser struct {
	srcName string
	src     string
	toks    []token
	i       int
}

type parseError struct{ err *Error }

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

func (ps *parser) peek() token { return ps.toks[ps.i] }

func (ps *parser) peekAt(n int) token {
	if ps.i+n < len(ps.toks) {
		return ps.toks[ps.i+n]
	}
	return ps.toks[len(ps.toks)-1]
}

func (ps *parser) next() token {
	t := ps.toks[ps.i]
	if t.typ != tokEOF {
		ps.i++
	}
	return t
}

func (ps *parser) isOp(v string) bool { return ps.peek().is(tokOp, v) }

func (ps *parser) isKw(v string) bool { return ps.peek().is(tokName, v) }

func (ps *parser) acceptOp(v string) bool {
	if ps.isOp(v) {
		ps.next()
		return true
	}
	return false
}

func (ps *parser) acceptKw(v string) bool {
	if ps.isKw(v) {
		ps.next()
		return true
	}
	return false
}

func (ps *parser) expectOp(v string) token {
	if !ps.isOp(v) {
		ps.errorf(ps.peek(), "expected '%s'", v)
	}
	return ps.next()
}

func (ps *parser) expectKw(v string) token {
	if !ps.isKw(v) {
		ps.errorf(ps.peek(), "expected '%s'", v)
	}
	return ps.next()
}

func (ps *parser) errorf(r diag.Ranger, format string, args ...any) {
	rg := r.Range()
	panic(parseError{&Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(ps.srcName, ps.src, rg),
		Partial: rg.From == len(ps.src),
	}})
}

func (ps *parser) invalidSyntax() {
	t := ps.peek()
	if t.typ == tokIndent {
		ps.errorf(t, "unexpected indent")
	}
	ps.errorf(t, "invalid syntax")
}

// Returns the end of the last consumed token that carries source text.
func (ps *parser) prevEnd() int {
	for j := ps.i - 1; j >= 0; j-- {
		switch ps.toks[j].typ {
		case tokNewline, tokIndent, tokDedent:
			continue
		}
		return ps.toks[j].To
	}
	return 0
}

func (ps *parser) from(start int) diag.Ranging {
	return diag.Ranging{From: start, To: ps.prevEnd()}
}

func (ps *parser) identifier() (string, token) {
	t := ps.peek()
	if t.typ != tokName || keywords[t.val] {
		ps.errorf(t, "expected a name, got %s", t.describe())
	}
	ps.next()
	return t.val, t
}

// Reports whether the next token can start an expression.
func (ps *parser) canStartExpr() bool {
	t := ps.peek()
	switch t.typ {
	case tokName:
		switch t.val {
		case "None", "True", "False", "not", "lambda", "await", "yield":
			return true
		}
		return !keywords[t.val]
	case tokNumber, tokString:
		return true
	case tokOp:
		switch t.val {
		case "(", "[", "{", "-", "+", "~", "*", "...":
			return true
		}
	}
	return false
}

// Statements.

func (ps *parser) module() *Module {
	m := &Module{}
	for ps.peek().typ != tokEOF {
		m.Body = append(m.Body, ps.statement()...)
	}
	m.Ranging = diag.Ranging{From: 0, To: len(ps.src)}
	return m
}

func (ps *parser) statement() []Stmt {
	t := ps.peek()
	if t.typ == tokName {
		switch t.val {
		case "if":
			return []Stmt{ps.ifStmt()}
		case "while":
			return []Stmt{ps.whileStmt()}
		case "for":
			return []Stmt{ps.forStmt(t.From, false)}
		case "try":
			return []Stmt{ps.tryStmt()}
		case "with":
			return []Stmt{ps.withStmt(t.From, false)}
		case "def":
			return []Stmt{ps.funcDef(t.From, nil, false)}
		case "class":
			return []Stmt{ps.classDef(t.From, nil)}
		case "async":
			ps.next()
			switch {
			case ps.isKw("def"):
				return []Stmt{ps.funcDef(t.From, nil, true)}
			case ps.isKw("for"):
				return []Stmt{ps.forStmt(t.From, true)}
			case ps.isKw("with"):
				return []Stmt{ps.withStmt(t.From, true)}
			}
			ps.invalidSyntax()
		}
	}
	if t.is(tokOp, "@") {
		return []Stmt{ps.decorated()}
	}
	return ps.simpleStmts()
}

func (ps *parser) simpleStmts() []Stmt {
	var stmts []Stmt
	for {
		stmts = append(stmts, ps.simpleStmt())
		if !ps.acceptOp(";") || ps.peek().typ == tokNewline {
			break
		}
	}
	if ps.peek().typ != tokNewline {
		ps.invalidSyntax()
	}
	ps.next()
	return stmts
}

func (ps *parser) atSimpleEnd() bool {
	t := ps.peek()
	return t.typ == tokNewline || t.typ == tokEOF || t.is(tokOp, ";")
}

func (ps *parser) simpleStmt() Stmt {
	t := ps.peek()
	if t.typ == tokName {
		switch t.val {
		case "pass":
			ps.next()
			return &Pass{stmtNode{t.Ranging}}
		case "break":
			ps.next()
			return &Break{stmtNode{t.Ranging}}
		case "continue":
			ps.next()
			return &Continue{stmtNode{t.Ranging}}
		case "return":
			ps.next()
			n := &Return{}
			if !ps.atSimpleEnd() {
				n.Value = ps.starExpressions()
			}
			n.Ranging = ps.from(t.From)
			return n
		case "raise":
			ps.next()
			n := &Raise{}
			if !ps.atSimpleEnd() {
				n.Exc = ps.expression()
				if ps.acceptKw("from") {
					n.Cause = ps.expression()
				}
			}
			n.Ranging = ps.from(t.From)
			return n
		case "global", "nonlocal":
			ps.next()
			var names []string
			for {
				name, _ := ps.identifier()
				names = append(names, name)
				if !ps.acceptOp(",") {
					break
				}
			}
			if t.val == "global" {
				return &Global{stmtNode{ps.from(t.From)}, names}
			}
			return &Nonlocal{stmtNode{ps.from(t.From)}, names}
		case "del":
			ps.next()
			n := &Delete{}
			for {
				target := ps.targetItem()
				ps.checkTarget(target, true)
				n.Targets = append(n.Targets, target)
				if !ps.acceptOp(",") || ps.atSimpleEnd() {
					break
				}
			}
			n.Ranging = ps.from(t.From)
			return n
		case "assert":
			ps.next()
			n := &Assert{Test: ps.expression()}
			if ps.acceptOp(",") {
				n.Msg = ps.expression()
			}
			n.Ranging = ps.from(t.From)
			return n
		case "import":
			return ps.importStmt()
		case "from":
			return ps.importFrom()
		case "type":
			if next := ps.peekAt(1); next.typ == tokName && !keywords[next.val] {
				if after := ps.peekAt(2); after.is(tokOp, "=") || after.is(tokOp, "[") {
					return ps.typeAlias()
				}
			}
		}
	}
	return ps.exprStmt()
}

func (ps *parser) exprStmt() Stmt {
	start := ps.peek().From
	first := ps.assignValue()
	t := ps.peek()
	switch {
	case t.is(tokOp, "="):
		exprs := []Expr{first}
		for ps.acceptOp("=") {
			exprs = append(exprs, ps.assignValue())
		}
		targets := exprs[:len(exprs)-1]
		for _, target := range targets {
			ps.checkTarget(target, false)
		}
		return &Assign{stmtNode{ps.from(start)}, targets, exprs[len(exprs)-1]}
	case t.typ == tokOp && augAssignTokens[t.val] != KindInvalid:
		switch first.(type) {
		case *Name, *Attribute, *Subscript:
		default:
			ps.errorf(first, "'%s' is an illegal expression for augmented assignment", describeExpr(first))
		}
		ps.next()
		value := ps.assignValue()
		return &AugAssign{stmtNode{ps.from(start)}, first, augAssignTokens[t.val], value}
	case t.is(tokOp, ":"):
		switch first.(type) {
		case *Name, *Attribute, *Subscript:
		case *Tuple:
			ps.errorf(first, "only single target (not tuple) can be annotated")
		case *List:
			ps.errorf(first, "only single target (not list) can be annotated")
		default:
			ps.errorf(first, "illegal target for annotation")
		}
		ps.next()
		n := &AnnAssign{Target: first, Annotation: ps.expression()}
		if ps.acceptOp("=") {
			n.Value = ps.assignValue()
		}
		n.Ranging = ps.from(start)
		return n
	}
	return &ExprStmt{stmtNode{ps.from(start)}, first}
}

func (ps *parser) assignValue() Expr {
	if ps.isKw("yield") {
		return ps.yieldExpr()
	}
	return ps.starExpressions()
}

// Verifies that e can be the target of an assignment, or of a deletion when
// del is true.
func (ps *parser) checkTarget(e Expr, del bool) {
	switch e := e.(type) {
	case *Name, *Attribute, *Subscript:
	case *Tuple:
		for _, elt := range e.Elts {
			ps.checkTarget(elt, del)
		}
	case *List:
		for _, elt := range e.Elts {
			ps.checkTarget(elt, del)
		}
	case *Starred:
		if del {
			ps.errorf(e, "cannot delete starred")
		}
		ps.checkTarget(e.Value, del)
	default:
		verb := "assign to"
		if del {
			verb = "delete"
		}
		ps.errorf(e, "cannot %s %s", verb, describeExpr(e))
	}
}

func describeExpr(e Expr) string {
	switch e := e.(type) {
	case *Constant:
		switch e.Value.(type) {
		case NoneType:
			return "None"
		case bool:
			if e.Value.(bool) {
				return "True"
			}
			return "False"
		case EllipsisType:
			return "ellipsis"
		}
		return "literal"
	case *Call:
		return "function call"
	case *Compare:
		return "comparison"
	case *Lambda:
		return "lambda"
	case *IfExp:
		return "conditional expression"
	case *ListComp:
		return "list comprehension"
	case *SetComp:
		return "set comprehension"
	case *DictComp:
		return "dict comprehension"
	case *GeneratorExp:
		return "generator expression"
	case *Dict:
		return "dict literal"
	case *Set:
		return "set display"
	case *JoinedStr, *FormattedValue:
		return "f-string expression"
	case *NamedExpr:
		return "named expression"
	case *Await:
		return "await expression"
	case *Yield, *YieldFrom:
		return "yield expression"
	case *Tuple:
		return "tuple"
	case *List:
		return "list"
	case *Name:
		return "name"
	case *Attribute:
		return "attribute"
	case *Subscript:
		return "subscript"
	case *Starred:
		return "starred"
	}
	return "expression"
}

func (ps *parser) importStmt() Stmt {
	start := ps.next().From
	n := &Import{}
	for {
		alias := &Alias{Name: ps.dottedName()}
		if ps.acceptKw("as") {
			alias.AsName, _ = ps.identifier()
		}
		n.Names = append(n.Names, alias)
		if !ps.acceptOp(",") {
			break
		}
	}
	n.Ranging = ps.from(start)
	return n
}

func (ps *parser) dottedName() string {
	name, _ := ps.identifier()
	for ps.acceptOp(".") {
		part, _ := ps.identifier()
		name += "." + part
	}
	return name
}

func (ps *parser) importFrom() Stmt {
	start := ps.next().From
	n := &ImportFrom{}
	for {
		if ps.acceptOp(".") {
			n.Level++
		} else if ps.acceptOp("...") {
			n.Level += 3
		} else {
			break
		}
	}
	if !ps.isKw("import") {
		n.Module = ps.dottedName()
	}
	ps.expectKw("import")
	if ps.isOp("*") {
		ps.next()
		n.Names = []*Alias{{Name: "*"}}
	} else {
		paren := ps.acceptOp("(")
		for {
			alias := &Alias{}
			alias.Name, _ = ps.identifier()
			if ps.acceptKw("as") {
				alias.AsName, _ = ps.identifier()
			}
			n.Names = append(n.Names, alias)
			if !ps.acceptOp(",") || (paren && ps.isOp(")")) {
				break
			}
		}
		if paren {
			ps.expectOp(")")
		}
	}
	n.Ranging = ps.from(start)
	return n
}

func (ps *parser) typeAlias() Stmt {
	start := ps.next().From
	_, t := ps.identifier()
	name := &Name{exprNode{t.Ranging}, t.val}
	if ps.isOp("[") {
		ps.skipBracketed("[", "]")
	}
	ps.expectOp("=")
	value := ps.expression()
	return &TypeAlias{stmtNode{ps.from(start)}, name, value}
}

// Skips a bracketed list, such as type parameters, that is recognized but
// not represented in the tree.
func (ps *parser) skipBracketed(open, close string) {
	ps.expectOp(open)
	depth := 1
	for depth > 0 {
		t := ps.next()
		switch {
		case t.typ == tokEOF:
			ps.errorf(t, "'%s' was never closed", open)
		case t.is(tokOp, open):
			depth++
		case t.is(tokOp, close):
			depth--
		}
	}
}

// Parses the ":" and the body of a compound statement. The keyword token and
// a description of the statement are used in error messages.
func (ps *parser) block(what string, kw token) []Stmt {
	ps.expectOp(":")
	if ps.peek().typ != tokNewline {
		return ps.simpleStmts()
	}
	ps.next()
	if ps.peek().typ != tokIndent {
		ps.errorf(ps.peek(), "expected an indented block after %s on line %d",
			what, lineOf(ps.src, kw.From))
	}
	ps.next()
	var body []Stmt
	for ps.peek().typ != tokDedent && ps.peek().typ != tokEOF {
		body = append(body, ps.statement()...)
	}
	ps.next()
	return body
}

func (ps *parser) ifStmt() Stmt {
	kw := ps.next()
	n := &If{Test: ps.namedExpression()}
	n.Body = ps.block(fmt.Sprintf("'%s' statement", kw.val), kw)
	if ps.isKw("elif") {
		n.Orelse = []Stmt{ps.ifStmt()}
	} else if ps.isKw("else") {
		elseKw := ps.next()
		n.Orelse = ps.block("'else' statement", elseKw)
	}
	n.Ranging = ps.from(kw.From)
	return n
}

func (ps *parser) elseBlock() []Stmt {
	if ps.isKw("else") {
		kw := ps.next()
		return ps.block("'else' statement", kw)
	}
	return nil
}

func (ps *parser) whileStmt() Stmt {
	kw := ps.next()
	n := &While{Test: ps.namedExpression()}
	n.Body = ps.block("'while' statement", kw)
	n.Orelse = ps.elseBlock()
	n.Ranging = ps.from(kw.From)
	return n
}

func (ps *parser) forStmt(start int, async bool) Stmt {
	kw := ps.next()
	n := &For{Async: async}
	n.Target = ps.targetList()
	ps.checkTarget(n.Target, false)
	ps.expectKw("in")
	n.Iter = ps.starExpressions()
	n.Body = ps.block("'for' statement", kw)
	n.Orelse = ps.elseBlock()
	n.Ranging = ps.from(start)
	return n
}

func (ps *parser) tryStmt() Stmt {
	kw := ps.next()
	n := &Try{Body: ps.block("'try' statement", kw)}
	for ps.isKw("except") {
		ekw := ps.next()
		star := ps.acceptOp("*")
		if len(n.Handlers) == 0 {
			n.Star = star
		} else if star != n.Star {
			ps.errorf(ekw, "cannot have both 'except' and 'except*' on the same 'try'")
		}
		h := &ExceptHandler{}
		if !ps.isOp(":") {
			h.Type = ps.expression()
			if ps.isOp(",") {
				ps.errorf(ps.peek(), "multiple exception types must be parenthesized")
			}
			if ps.acceptKw("as") {
				h.Name, _ = ps.identifier()
			}
		} else if star {
			ps.errorf(ps.peek(), "expected one or more exception types")
		}
		what := "'except' statement"
		if star {
			what = "'except*' statement"
		}
		h.Body = ps.block(what, ekw)
		h.Ranging = ps.from(ekw.From)
		n.Handlers = append(n.Handlers, h)
	}
	if len(n.Handlers) > 0 {
		n.Orelse = ps.elseBlock()
	}
	if ps.isKw("finally") {
		fkw := ps.next()
		n.Finalbody = ps.block("'finally' statement", fkw)
	}
	if len(n.Handlers) == 0 && n.Finalbody == nil {
		ps.errorf(ps.peek(), "expected 'except' or 'finally' block")
	}
	n.Ranging = ps.from(kw.From)
	return n
}

func (ps *parser) withStmt(start int, async bool) Stmt {
	kw := ps.next()
	n := &With{Async: async}
	if ps.isOp("(") {
		n.Items = ps.tryParenthesizedWithItems()
	}
	if n.Items == nil {
		for {
			n.Items = append(n.Items, ps.withItem())
			if !ps.acceptOp(",") {
				break
			}
		}
	}
	n.Body = ps.block("'with' statement", kw)
	n.Ranging = ps.from(start)
	return n
}

func (ps *parser) withItem() *WithItem {
	item := &WithItem{ContextExpr: ps.expression()}
	if ps.acceptKw("as") {
		item.OptionalVars = ps.targetItem()
		ps.checkTarget(item.OptionalVars, false)
	}
	return item
}

// Tries to parse "(item, item as x, ...)" followed by ":". Restores the
// position and returns nil if the parenthesis turns out to start an ordinary
// expression.
func (ps *parser) tryParenthesizedWithItems() (items []*WithItem) {
	save := ps.i
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			ps.i = save
			items = nil
		}
	}()
	ps.next()
	for !ps.isOp(")") {
		items = append(items, ps.withItem())
		if !ps.acceptOp(",") {
			break
		}
	}
	ps.expectOp(")")
	if !ps.isOp(":") {
		ps.i = save
		return nil
	}
	return items
}

func (ps *parser) decorated() Stmt {
	start := ps.peek().From
	var decorators []Expr
	for ps.acceptOp("@") {
		decorators = append(decorators, ps.namedExpression())
		if ps.peek().typ != tokNewline {
			ps.invalidSyntax()
		}
		ps.next()
	}
	switch {
	case ps.isKw("def"):
		return ps.funcDef(start, decorators, false)
	case ps.isKw("class"):
		return ps.classDef(start, decorators)
	case ps.isKw("async") && ps.peekAt(1).is(tokName, "def"):
		ps.next()
		return ps.funcDef(start, decorators, true)
	}
	ps.invalidSyntax()
	return nil
}

func (ps *parser) funcDef(start int, decorators []Expr, async bool) Stmt {
	kw := ps.next()
	n := &FunctionDef{Decorators: decorators, Async: async}
	n.Name, _ = ps.identifier()
	if ps.isOp("[") {
		ps.skipBracketed("[", "]")
	}
	ps.expectOp("(")
	n.Args = ps.params(")", true)
	ps.expectOp(")")
	if ps.acceptOp("->") {
		n.Returns = ps.expression()
	}
	n.Body = ps.block("function definition", kw)
	n.Ranging = ps.from(start)
	return n
}

// Parses a parameter list up to (but not including) the closing token.
func (ps *parser) params(closing string, annotations bool) *Arguments {
	args := &Arguments{}
	param := func() {
		name, _ := ps.identifier()
		args.Names = append(args.Names, name)
		if annotations && ps.acceptOp(":") {
			ps.expression()
		}
	}
	for !ps.isOp(closing) {
		switch {
		case ps.acceptOp("/"):
		case ps.acceptOp("**"):
			param()
		case ps.acceptOp("*"):
			if ps.peek().typ == tokName {
				param()
			}
		default:
			param()
			if ps.acceptOp("=") {
				args.Defaults = append(args.Defaults, ps.expression())
			}
		}
		if !ps.acceptOp(",") {
			break
		}
	}
	return args
}

func (ps *parser) classDef(start int, decorators []Expr) Stmt {
	kw := ps.next()
	n := &ClassDef{Decorators: decorators}
	n.Name, _ = ps.identifier()
	if ps.isOp("[") {
		ps.skipBracketed("[", "]")
	}
	if ps.isOp("(") {
		n.Bases, n.Keywords = ps.callArgs()
	}
	n.Body = ps.block("class definition", kw)
	n.Ranging = ps.from(start)
	return n
}

// Expressions.

// Parses one or more comma-separated (possibly starred) expressions. More
// than one expression, or a trailing comma, makes a tuple.
func (ps *parser) starExpressions() Expr {
	start := ps.peek().From
	first := ps.starExpression()
	if !ps.isOp(",") {
		return first
	}
	elts := []Expr{first}
	for ps.acceptOp(",") {
		if !ps.canStartExpr() {
			break
		}
		elts = append(elts, ps.starExpression())
	}
	return &Tuple{exprNode{ps.from(start)}, elts}
}

func (ps *parser) starExpression() Expr {
	if ps.isOp("*") {
		start := ps.next().From
		value := ps.bitOr()
		return &Starred{exprNode{ps.from(start)}, value}
	}
	return ps.expression()
}

func (ps *parser) starNamedExpression() Expr {
	if ps.isOp("*") {
		start := ps.next().From
		value := ps.bitOr()
		return &Starred{exprNode{ps.from(start)}, value}
	}
	return ps.namedExpression()
}

// Parses an assignment target list, as used by for loops and comprehensions.
func (ps *parser) targetList() Expr {
	start := ps.peek().From
	first := ps.targetItem()
	if !ps.isOp(",") {
		return first
	}
	elts := []Expr{first}
	for ps.acceptOp(",") {
		if ps.isKw("in") || !ps.canStartExpr() {
			break
		}
		elts = append(elts, ps.targetItem())
	}
	return &Tuple{exprNode{ps.from(start)}, elts}
}

func (ps *parser) targetItem() Expr {
	if ps.isOp("*") {
		start := ps.next().From
		value := ps.bitOr()
		return &Starred{exprNode{ps.from(start)}, value}
	}
	return ps.bitOr()
}

func (ps *parser) namedExpression() Expr {
	if t := ps.peek(); t.typ == tokName && !keywords[t.val] && ps.peekAt(1).is(tokOp, ":=") {
		ps.next()
		ps.next()
		target := &Name{exprNode{t.Ranging}, t.val}
		value := ps.expression()
		return &NamedExpr{exprNode{ps.from(t.From)}, target, value}
	}
	return ps.expression()
}

func (ps *parser) expression() Expr {
	if ps.isKw("lambda") {
		return ps.lambdef()
	}
	start := ps.peek().From
	body := ps.disjunction()
	if !ps.acceptKw("if") {
		return body
	}
	test := ps.disjunction()
	if !ps.isKw("else") {
		ps.errorf(ps.peek(), "expected 'else' after 'if' expression")
	}
	ps.next()
	orelse := ps.expression()
	return &IfExp{exprNode{ps.from(start)}, test, body, orelse}
}

func (ps *parser) lambdef() Expr {
	start := ps.next().From
	args := ps.params(":", false)
	ps.expectOp(":")
	body := ps.expression()
	return &Lambda{exprNode{ps.from(start)}, args, body}
}

func (ps *parser) yieldExpr() Expr {
	start := ps.next().From
	if ps.acceptKw("from") {
		value := ps.expression()
		return &YieldFrom{exprNode{ps.from(start)}, value}
	}
	n := &Yield{}
	if ps.canStartExpr() {
		n.Value = ps.starExpressions()
	}
	n.Ranging = ps.from(start)
	return n
}

func (ps *parser) boolOp(kw string, op Kind, operand func() Expr) Expr {
	start := ps.peek().From
	first := operand()
	if !ps.isKw(kw) {
		return first
	}
	values := []Expr{first}
	for ps.acceptKw(kw) {
		values = append(values, operand())
	}
	return &BoolOp{exprNode{ps.from(start)}, op, values}
}

func (ps *parser) disjunction() Expr {
	return ps.boolOp("or", Or, ps.conjunction)
}

func (ps *parser) conjunction() Expr {
	return ps.boolOp("and", And, ps.inversion)
}

func (ps *parser) inversion() Expr {
	if ps.isKw("not") {
		start := ps.next().From
		operand := ps.inversion()
		return &UnaryOp{exprNode{ps.from(start)}, Not, operand}
	}
	return ps.comparison()
}

func (ps *parser) compareOp() Kind {
	t := ps.peek()
	switch {
	case t.typ == tokOp:
		switch t.val {
		case "==":
			return Eq
		case "!=":
			return NotEq
		case "<":
			return Lt
		case "<=":
			return LtE
		case ">":
			return Gt
		case ">=":
			return GtE
		}
	case t.val == "in" && t.typ == tokName:
		return In
	case t.val == "is" && t.typ == tokName:
		if ps.peekAt(1).is(tokName, "not") {
			return IsNot
		}
		return Is
	case t.val == "not" && t.typ == tokName:
		if ps.peekAt(1).is(tokName, "in") {
			return NotIn
		}
	}
	return KindInvalid
}

func (ps *parser) comparison() Expr {
	start := ps.peek().From
	left := ps.bitOr()
	op := ps.compareOp()
	if op == KindInvalid {
		return left
	}
	n := &Compare{Left: left}
	for ; op != KindInvalid; op = ps.compareOp() {
		ps.next()
		if op == IsNot || op == NotIn {
			ps.next()
		}
		n.Ops = append(n.Ops, op)
		n.Comparators = append(n.Comparators, ps.bitOr())
	}
	n.Ranging = ps.from(start)
	return n
}

// Parses a left-associative chain of binary operators drawn from ops.
func (ps *parser) binary(operand func() Expr, ops ...string) Expr {
	start := ps.peek().From
	left := operand()
	for {
		t := ps.peek()
		matched := false
		for _, op := range ops {
			if t.is(tokOp, op) {
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
		ps.next()
		right := operand()
		left = &BinOp{exprNode{ps.from(start)}, left, binOpTokens[t.val], right}
	}
}

func (ps *parser) bitOr() Expr  { return ps.binary(ps.bitXor, "|") }
func (ps *parser) bitXor() Expr { return ps.binary(ps.bitAnd, "^") }
func (ps *parser) bitAnd() Expr { return ps.binary(ps.shift, "&") }
func (ps *parser) shift() Expr  { return ps.binary(ps.sum, "<<", ">>") }
func (ps *parser) sum() Expr    { return ps.binary(ps.term, "+", "-") }
func (ps *parser) term() Expr   { return ps.binary(ps.factor, "*", "/", "//", "%", "@") }

func (ps *parser) factor() Expr {
	t := ps.peek()
	var op Kind
	switch {
	case t.is(tokOp, "-"):
		op = USub
	case t.is(tokOp, "+"):
		op = UAdd
	case t.is(tokOp, "~"):
		op = Invert
	default:
		return ps.power()
	}
	ps.next()
	operand := ps.factor()
	return &UnaryOp{exprNode{ps.from(t.From)}, op, operand}
}

func (ps *parser) power() Expr {
	start := ps.peek().From
	base := ps.awaitPrimary()
	if !ps.acceptOp("**") {
		return base
	}
	exp := ps.factor()
	return &BinOp{exprNode{ps.from(start)}, base, Pow, exp}
}

func (ps *parser) awaitPrimary() Expr {
	if ps.isKw("await") {
		start := ps.next().From
		value := ps.primary()
		return &Await{exprNode{ps.from(start)}, value}
	}
	return ps.primary()
}

func (ps *parser) primary() Expr {
	start := ps.peek().From
	e := ps.atom()
	for {
		switch {
		case ps.acceptOp("."):
			attr, _ := ps.identifier()
			e = &Attribute{exprNode{ps.from(start)}, e, attr}
		case ps.isOp("("):
			args, keywords := ps.callArgs()
			e = &Call{exprNode{ps.from(start)}, e, args, keywords}
		case ps.acceptOp("["):
			slice := ps.slices()
			ps.expectOp("]")
			e = &Subscript{exprNode{ps.from(start)}, e, slice}
		default:
			return e
		}
	}
}

// Parses a parenthesized argument list.
func (ps *parser) callArgs() ([]Expr, []*Keyword) {
	ps.expectOp("(")
	var args []Expr
	var kws []*Keyword
	for !ps.isOp(")") {
		t := ps.peek()
		switch {
		case t.is(tokOp, "*"):
			ps.next()
			value := ps.expression()
			args = append(args, &Starred{exprNode{ps.from(t.From)}, value})
		case t.is(tokOp, "**"):
			ps.next()
			value := ps.expression()
			kws = append(kws, &Keyword{exprNode{ps.from(t.From)}, "", value})
		case t.typ == tokName && !keywords[t.val] && ps.peekAt(1).is(tokOp, "="):
			ps.next()
			ps.next()
			value := ps.expression()
			kws = append(kws, &Keyword{exprNode{ps.from(t.From)}, t.val, value})
		default:
			arg := ps.namedExpression()
			if ps.isKw("for") || ps.isKw("async") {
				gens := ps.comprehensions()
				arg = &GeneratorExp{exprNode{ps.from(t.From)}, arg, gens}
			}
			if len(kws) > 0 {
				if kws[len(kws)-1].Arg == "" {
					ps.errorf(arg, "positional argument follows keyword argument unpacking")
				}
				ps.errorf(arg, "positional argument follows keyword argument")
			}
			args = append(args, arg)
		}
		if !ps.acceptOp(",") {
			break
		}
	}
	ps.expectOp(")")
	return args, kws
}

// Parses the content of a subscript.
func (ps *parser) slices() Expr {
	start := ps.peek().From
	first := ps.slice()
	if !ps.isOp(",") {
		return first
	}
	elts := []Expr{first}
	for ps.acceptOp(",") {
		if ps.isOp("]") {
			break
		}
		elts = append(elts, ps.slice())
	}
	return &Tuple{exprNode{ps.from(start)}, elts}
}

func (ps *parser) slice() Expr {
	start := ps.peek().From
	n := &Slice{}
	if !ps.isOp(":") {
		lower := ps.starNamedExpression()
		if !ps.isOp(":") {
			return lower
		}
		n.Lower = lower
	}
	ps.expectOp(":")
	endOfPart := func() bool { return ps.isOp(":") || ps.isOp("]") || ps.isOp(",") }
	if !endOfPart() {
		n.Upper = ps.expression()
	}
	if ps.acceptOp(":") && !ps.isOp("]") && !ps.isOp(",") {
		n.Step = ps.expression()
	}
	n.Ranging = ps.from(start)
	return n
}

func (ps *parser) atom() Expr {
	t := ps.peek()
	switch t.typ {
	case tokName:
		switch t.val {
		case "None":
			ps.next()
			return &Constant{exprNode{t.Ranging}, None}
		case "True", "False":
			ps.next()
			return &Constant{exprNode{t.Ranging}, t.val == "True"}
		}
		if keywords[t.val] {
			ps.invalidSyntax()
		}
		ps.next()
		return &Name{exprNode{t.Ranging}, t.val}
	case tokNumber:
		ps.next()
		v, err := parseNumber(t.val)
		if err != nil {
			ps.errorf(t, "%v", err)
		}
		return &Constant{exprNode{t.Ranging}, v}
	case tokString:
		return ps.strings()
	case tokOp:
		switch t.val {
		case "(":
			return ps.parenAtom()
		case "[":
			return ps.listAtom()
		case "{":
			return ps.braceAtom()
		case "...":
			ps.next()
			return &Constant{exprNode{t.Ranging}, Ellipsis}
		}
	}
	ps.invalidSyntax()
	return nil
}

func (ps *parser) parenAtom() Expr {
	open := ps.next()
	if ps.isOp(")") {
		ps.next()
		return &Tuple{exprNode{ps.from(open.From)}, nil}
	}
	if ps.isKw("yield") {
		y := ps.yieldExpr()
		ps.expectOp(")")
		return y
	}
	first := ps.starNamedExpression()
	if ps.isKw("for") || ps.isKw("async") {
		gens := ps.comprehensions()
		ps.expectOp(")")
		return &GeneratorExp{exprNode{ps.from(open.From)}, first, gens}
	}
	if ps.acceptOp(")") {
		if _, ok := first.(*Starred); ok {
			ps.errorf(first, "cannot use starred expression here")
		}
		return first
	}
	elts := []Expr{first}
	for ps.acceptOp(",") {
		if ps.isOp(")") {
			break
		}
		elts = append(elts, ps.starNamedExpression())
	}
	ps.expectOp(")")
	return &Tuple{exprNode{ps.from(open.From)}, elts}
}

func (ps *parser) listAtom() Expr {
	open := ps.next()
	if ps.acceptOp("]") {
		return &List{exprNode{ps.from(open.From)}, nil}
	}
	first := ps.starNamedExpression()
	if ps.isKw("for") || ps.isKw("async") {
		gens := ps.comprehensions()
		ps.expectOp("]")
		return &ListComp{exprNode{ps.from(open.From)}, first, gens}
	}
	elts := []Expr{first}
	for ps.acceptOp(",") {
		if ps.isOp("]") {
			break
		}
		elts = append(elts, ps.starNamedExpression())
	}
	ps.expectOp("]")
	return &List{exprNode{ps.from(open.From)}, elts}
}

func (ps *parser) braceAtom() Expr {
	open := ps.next()
	if ps.acceptOp("}") {
		return &Dict{exprNode{ps.from(open.From)}, nil, nil}
	}
	var firstKey, firstValue Expr
	isDict := false
	if ps.acceptOp("**") {
		isDict = true
		firstValue = ps.bitOr()
	} else {
		firstKey = ps.starNamedExpression()
		if ps.acceptOp(":") {
			isDict = true
			firstValue = ps.expression()
		}
	}
	if !isDict {
		if ps.isKw("for") || ps.isKw("async") {
			gens := ps.comprehensions()
			ps.expectOp("}")
			return &SetComp{exprNode{ps.from(open.From)}, firstKey, gens}
		}
		elts := []Expr{firstKey}
		for ps.acceptOp(",") {
			if ps.isOp("}") {
				break
			}
			elts = append(elts, ps.starNamedExpression())
		}
		ps.expectOp("}")
		return &Set{exprNode{ps.from(open.From)}, elts}
	}
	if firstKey != nil && (ps.isKw("for") || ps.isKw("async")) {
		gens := ps.comprehensions()
		ps.expectOp("}")
		return &DictComp{exprNode{ps.from(open.From)}, firstKey, firstValue, gens}
	}
	keys := []Expr{firstKey}
	values := []Expr{firstValue}
	for ps.acceptOp(",") {
		if ps.isOp("}") {
			break
		}
		if ps.acceptOp("**") {
			keys = append(keys, nil)
			values = append(values, ps.bitOr())
			continue
		}
		keys = append(keys, ps.expression())
		ps.expectOp(":")
		values = append(values, ps.expression())
	}
	ps.expectOp("}")
	return &Dict{exprNode{ps.from(open.From)}, keys, values}
}

func (ps *parser) comprehensions() []*Comprehension {
	var gens []*Comprehension
	for ps.isKw("for") || (ps.isKw("async") && ps.peekAt(1).is(tokName, "for")) {
		start := ps.peek().From
		gen := &Comprehension{Async: ps.acceptKw("async")}
		ps.expectKw("for")
		gen.Target = ps.targetList()
		ps.checkTarget(gen.Target, false)
		ps.expectKw("in")
		gen.Iter = ps.disjunction()
		for ps.acceptKw("if") {
			gen.Ifs = append(gen.Ifs, ps.disjunction())
		}
		gen.Ranging = ps.from(start)
		gens = append(gens, gen)
	}
	return gens
}

// Parses one or more adjacent string literals, which are concatenated.
func (ps *parser) strings() Expr {
	start := ps.peek().From
	var values []Expr
	var text strings.Builder
	textFrom := start
	isFString := false
	isBytes := false
	flush := func(to int) {
		if text.Len() > 0 {
			values = append(values, &Constant{exprNode{diag.Ranging{From: textFrom, To: to}}, text.String()})
			text.Reset()
		}
	}
	for i := 0; ps.peek().typ == tokString; i++ {
		t := ps.next()
		prefix, bodyFrom, bodyTo := splitString(t.val)
		bytes := strings.ContainsRune(prefix, 'b')
		if i == 0 {
			isBytes = bytes
		} else if bytes != isBytes {
			ps.errorf(t, "cannot mix bytes and nonbytes literals")
		}
		raw := strings.ContainsRune(prefix, 'r')
		if strings.ContainsRune(prefix, 'f') {
			isFString = true
			for _, part := range ps.fstringParts(t.From+bodyFrom, t.From+bodyTo, raw) {
				if c, ok := part.(*Constant); ok {
					if text.Len() == 0 {
						textFrom = c.From
					}
					text.WriteString(c.Value.(string))
				} else {
					flush(part.Range().From)
					values = append(values, part)
				}
			}
			continue
		}
		body := t.val[bodyFrom:bodyTo]
		if bytes {
			for j := 0; j < len(body); j++ {
				if body[j] >= 0x80 {
					ps.errorf(t, "bytes can only contain ASCII literal characters")
				}
			}
		}
		if !raw {
			decoded, err := decodeEscapes(body, bytes)
			if err != nil {
				ps.errorf(t, "%v", err)
			}
			body = decoded
		}
		if text.Len() == 0 {
			textFrom = t.From
		}
		text.WriteString(body)
	}
	rg := ps.from(start)
	if isBytes {
		return &Constant{exprNode{rg}, []byte(text.String())}
	}
	if !isFString {
		return &Constant{exprNode{rg}, text.String()}
	}
	flush(rg.To)
	return &JoinedStr{exprNode{rg}, values}
}
