package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order.
// If visitor returns false, children are not visited.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *ClassDecl:
		for _, f := range n.Fields {
			Walk(f, v)
		}
		for _, s := range n.Statics {
			Walk(s, v)
		}
		for _, m := range n.Methods {
			Walk(m, v)
		}
		for _, f := range n.Funcs {
			Walk(f, v)
		}

	case *SubroutineDecl:
		for _, p := range n.Params {
			Walk(p, v)
		}
		if n.Body != nil {
			Walk(n.Body, v)
		}

	case *Block:
		for _, s := range n.Stmts {
			Walk(s, v)
		}

	case *LetStmt:
		Walk(n.Target, v)
		Walk(n.Value, v)

	case *IfStmt:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		if n.Else != nil {
			Walk(n.Else, v)
		}

	case *WhileStmt:
		Walk(n.Cond, v)
		Walk(n.Body, v)

	case *DoStmt:
		Walk(n.Call, v)

	case *ReturnStmt:
		Walk(n.Result, v)

	case *FunctionCall:
		for _, a := range n.Args {
			Walk(a, v)
		}

	case *MethodCall:
		if n.Callee != nil {
			Walk(n.Callee, v)
		}
		for _, a := range n.Args {
			Walk(a, v)
		}

	case *BinaryOp:
		Walk(n.X, v)
		Walk(n.Y, v)

	case *UnaryOp:
		Walk(n.X, v)

	case *RValue:
		Walk(n.X, v)

	case *IndexExpr:
		Walk(n.Index, v)
	}
}
