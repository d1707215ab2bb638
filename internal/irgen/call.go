package irgen

import (
	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/mangle"
	"github.com/you-not-fish/jackal/internal/syntax"
)

// genFunctionCall lowers a class-qualified static dispatch.
func (g *Generator) genFunctionCall(e *syntax.FunctionCall) *ir.Value {
	retHint := g.expType

	args := make([]*ir.Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = g.genExpr(a)
	}

	g.expType = retHint
	return g.genCall(e.Class, e.Fn, args, e.Pos())
}

// genMethodCall lowers a call dispatched on an instance. When the
// callee is absent the receiver is the current function's first
// parameter (a same-class method call); otherwise the callee is
// evaluated as an lvalue and loaded to obtain the receiver. The
// receiver is prepended to the argument list and dispatch goes through
// the callee's declared class name.
func (g *Generator) genMethodCall(e *syntax.MethodCall) *ir.Value {
	retHint := g.expType

	var class string
	var recv *ir.Value

	if e.Callee == nil {
		class = g.cls.ClsName
		if len(g.argVals) == 0 {
			g.internalErrorf(g.fn, "method call %s in subroutine without receiver", e.Fn)
		}
		recv = g.argVals[0]
	} else {
		class = e.Callee.DeclType()
		if class == "" {
			g.internalErrorf(g.fn, "undefined identifier %q", e.Callee.Name())
		}
		ptr := g.genLValue(e.Callee)
		recv = g.fn.NewValue(g.b, ir.OpLoad, ptr.Type.(*ir.PointerType).Elem, ptr)
	}

	args := make([]*ir.Value, 0, len(e.Args)+1)
	args = append(args, recv)
	for _, a := range e.Args {
		args = append(args, g.genExpr(a))
	}

	g.expType = retHint
	return g.genCall(class, e.Fn, args, e.Pos())
}

// genCall emits a call to the mangled class member. If the target does
// not exist in the module yet, a placeholder function is synthesized
// whose parameter types match the actual argument types and whose
// return type matches the current expected type; a deferred-resolution
// entry records the class/name pair for later lookup.
func (g *Generator) genCall(class, name string, args []*ir.Value, pos syntax.Pos) *ir.Value {
	callee := g.mod.FuncByName(mangle.Name(class, name))

	if callee == nil {
		retTy := g.expType
		if retTy == nil {
			retTy = ir.Void
		}
		params := make([]ir.Param, len(args))
		for i, a := range args {
			params[i] = ir.Param{Typ: a.Type}
		}
		ph := ir.NewFunc(mangle.Placeholder, params, retTy)
		ph.Placeholder = true
		g.mod.AddFunc(ph)
		g.unresolved = append(g.unresolved, deferredCall{
			class:       class,
			name:        name,
			placeholder: ph,
		})
		callee = ph
	}

	call := g.fn.NewValuePos(g.b, ir.OpCall, callee.Ret, pos, args...)
	call.Aux = callee
	g.expType = call.Type
	return call
}
