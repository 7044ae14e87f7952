package parse

// Children returns the child nodes of n in source order.
func Children(n Node) []Node {
	var ch []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil && !isNilNode(c) {
				ch = append(ch, c)
			}
		}
	}
	addStmts := func(stmts []Stmt) {
		for _, s := range stmts {
			add(s)
		}
	}
	addExprs := func(exprs []Expr) {
		for _, e := range exprs {
			add(e)
		}
	}
	addGens := func(gens []*Comprehension) {
		for _, g := range gens {
			add(g)
		}
	}
	switch n := n.(type) {
	case *Module:
		addStmts(n.Body)
	case *ExprStmt:
		add(n.Value)
	case *Assign:
		addExprs(n.Targets)
		add(n.Value)
	case *AugAssign:
		add(n.Target, n.Value)
	case *AnnAssign:
		add(n.Target, n.Annotation, n.Value)
	case *Delete:
		addExprs(n.Targets)
	case *If:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Orelse)
	case *For:
		add(n.Target, n.Iter)
		addStmts(n.Body)
		addStmts(n.Orelse)
	case *While:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Orelse)
	case *FunctionDef:
		addExprs(n.Decorators)
		addExprs(n.Args.Defaults)
		add(n.Returns)
		addStmts(n.Body)
	case *ClassDef:
		addExprs(n.Decorators)
		addExprs(n.Bases)
		for _, k := range n.Keywords {
			add(k)
		}
		addStmts(n.Body)
	case *Return:
		add(n.Value)
	case *Raise:
		add(n.Exc, n.Cause)
	case *Try:
		addStmts(n.Body)
		for _, h := range n.Handlers {
			add(h)
		}
		addStmts(n.Orelse)
		addStmts(n.Finalbody)
	case *ExceptHandler:
		add(n.Type)
		addStmts(n.Body)
	case *With:
		for _, item := range n.Items {
			add(item.ContextExpr, item.OptionalVars)
		}
		addStmts(n.Body)
	case *Assert:
		add(n.Test, n.Msg)
	case *TypeAlias:
		add(n.Name, n.Value)
	case *BoolOp:
		addExprs(n.Values)
	case *NamedExpr:
		add(n.Target, n.Value)
	case *BinOp:
		add(n.Left, n.Right)
	case *UnaryOp:
		add(n.Operand)
	case *Lambda:
		addExprs(n.Args.Defaults)
		add(n.Body)
	case *IfExp:
		add(n.Body, n.Test, n.Orelse)
	case *Dict:
		for i := range n.Values {
			add(n.Keys[i], n.Values[i])
		}
	case *Set:
		addExprs(n.Elts)
	case *List:
		addExprs(n.Elts)
	case *Tuple:
		addExprs(n.Elts)
	case *ListComp:
		add(n.Elt)
		addGens(n.Generators)
	case *SetComp:
		add(n.Elt)
		addGens(n.Generators)
	case *DictComp:
		add(n.Key, n.Value)
		addGens(n.Generators)
	case *GeneratorExp:
		add(n.Elt)
		addGens(n.Generators)
	case *Comprehension:
		add(n.Target, n.Iter)
		addExprs(n.Ifs)
	case *Await:
		add(n.Value)
	case *Yield:
		add(n.Value)
	case *YieldFrom:
		add(n.Value)
	case *Compare:
		add(n.Left)
		addExprs(n.Comparators)
	case *Call:
		add(n.Func)
		addExprs(n.Args)
		for _, k := range n.Keywords {
			add(k)
		}
	case *Keyword:
		add(n.Value)
	case *FormattedValue:
		add(n.Value, n.FormatSpec)
	case *JoinedStr:
		addExprs(n.Values)
	case *Attribute:
		add(n.Value)
	case *Subscript:
		add(n.Value, n.Slice)
	case *Starred:
		add(n.Value)
	case *Slice:
		add(n.Lower, n.Upper, n.Step)
	}
	return ch
}

// Reports whether c is an interface holding a nil pointer, as happens with
// optional fields of concrete pointer types.
func isNilNode(c Node) bool {
	switch c := c.(type) {
	case *JoinedStr:
		return c == nil
	case *Name:
		return c == nil
	}
	return false
}

// Walk calls f on n and, if f returns true, on each of the descendants of n
// in depth-first order.
func Walk(n Node, f func(Node) bool) {
	if !f(n) {
		return
	}
	for _, ch := range Children(n) {
		Walk(ch, f)
	}
}
