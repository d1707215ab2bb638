package syntax

import (
	"encoding/json"
	"io"
)

// FprintJSON writes a JSON representation of the AST to w.
func FprintJSON(w io.Writer, node Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(node))
}

func toJSON(node Node) interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *ClassDecl:
		return map[string]interface{}{
			"type":    "ClassDecl",
			"pos":     n.pos.String(),
			"name":    n.ClsName,
			"fields":  varsJSON(n.Fields),
			"statics": varsJSON(n.Statics),
			"methods": subsJSON(n.Methods),
			"funcs":   subsJSON(n.Funcs),
		}

	case *SubroutineDecl:
		return map[string]interface{}{
			"type":   "SubroutineDecl",
			"pos":    n.pos.String(),
			"kind":   n.Kind.String(),
			"name":   n.FnName,
			"ret":    n.RetType,
			"params": varsJSON(n.Params),
			"body":   toJSON(n.Body),
		}

	case *VarDecl:
		return map[string]interface{}{
			"type":    "VarDecl",
			"pos":     n.pos.String(),
			"name":    n.VarName,
			"vartype": n.TypeName,
		}

	case *Block:
		stmts := make([]interface{}, len(n.Stmts))
		for i, s := range n.Stmts {
			stmts[i] = toJSON(s)
		}
		return map[string]interface{}{
			"type":  "Block",
			"stmts": stmts,
		}

	case *LetStmt:
		return map[string]interface{}{
			"type":   "Let",
			"pos":    n.pos.String(),
			"target": toJSON(n.Target),
			"value":  toJSON(n.Value),
		}

	case *IfStmt:
		m := map[string]interface{}{
			"type": "If",
			"pos":  n.pos.String(),
			"cond": toJSON(n.Cond),
			"then": toJSON(n.Then),
		}
		if n.Else != nil {
			m["else"] = toJSON(n.Else)
		}
		return m

	case *WhileStmt:
		return map[string]interface{}{
			"type": "While",
			"pos":  n.pos.String(),
			"cond": toJSON(n.Cond),
			"body": toJSON(n.Body),
		}

	case *DoStmt:
		return map[string]interface{}{
			"type": "Do",
			"pos":  n.pos.String(),
			"call": toJSON(n.Call),
		}

	case *ReturnStmt:
		return map[string]interface{}{
			"type":   "Return",
			"pos":    n.pos.String(),
			"result": toJSON(n.Result),
		}

	case *FunctionCall:
		return map[string]interface{}{
			"type":  "FunctionCall",
			"class": n.Class,
			"fn":    n.Fn,
			"args":  exprsJSON(n.Args),
		}

	case *MethodCall:
		m := map[string]interface{}{
			"type": "MethodCall",
			"fn":   n.Fn,
			"args": exprsJSON(n.Args),
		}
		if n.Callee != nil {
			m["callee"] = toJSON(n.Callee)
		}
		return m

	case *BinaryOp:
		return map[string]interface{}{
			"type": "BinaryOp",
			"op":   n.Op.String(),
			"x":    toJSON(n.X),
			"y":    toJSON(n.Y),
		}

	case *UnaryOp:
		return map[string]interface{}{
			"type": "UnaryOp",
			"op":   n.Op.String(),
			"x":    toJSON(n.X),
		}

	case *RValue:
		return map[string]interface{}{
			"type": "RValue",
			"x":    toJSON(n.X),
		}

	case *Identifier:
		return map[string]interface{}{
			"type": "Identifier",
			"name": n.name,
		}

	case *IndexExpr:
		return map[string]interface{}{
			"type":  "IndexExpr",
			"name":  n.name,
			"index": toJSON(n.Index),
		}

	case *IntConst:
		return map[string]interface{}{"type": "IntConst", "value": n.Value}

	case *CharConst:
		return map[string]interface{}{"type": "CharConst", "value": n.Value}

	case *StrConst:
		return map[string]interface{}{"type": "StrConst", "value": n.Value}

	case *BoolConst:
		return map[string]interface{}{"type": "BoolConst", "value": n.Value}

	case *This:
		return map[string]interface{}{"type": "This"}

	case *Empty:
		return map[string]interface{}{"type": "Empty"}
	}

	return nil
}

func varsJSON(vars []*VarDecl) []interface{} {
	out := make([]interface{}, len(vars))
	for i, d := range vars {
		out[i] = toJSON(d)
	}
	return out
}

func subsJSON(subs []*SubroutineDecl) []interface{} {
	out := make([]interface{}, len(subs))
	for i, d := range subs {
		out[i] = toJSON(d)
	}
	return out
}

func exprsJSON(exprs []Expr) []interface{} {
	out := make([]interface{}, len(exprs))
	for i, e := range exprs {
		out[i] = toJSON(e)
	}
	return out
}
