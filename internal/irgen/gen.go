// Package irgen lowers the Jack AST to the IR module consumed by the
// JIT host.
package irgen

import (
	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/mangle"
	"github.com/you-not-fish/jackal/internal/syntax"
)

// Generator lowers class declarations into a shared target module.
//
// It maintains an insertion cursor, a local value map for the current
// subroutine, and a worklist of unresolved forward references that is
// drained by Resolve once all user code has been emitted. The module is
// exclusively owned by the Generator until Module is called.
type Generator struct {
	mod *ir.Module

	cls *syntax.ClassDecl // current class
	fn  *ir.Func          // current function
	b   *ir.Block         // insertion cursor; nil when unreachable

	vals    map[string]*ir.Value // name → stack slot (lvalue)
	argVals []*ir.Value          // formal parameter values in order

	// expType tracks the type expected by the surrounding expression.
	// It seeds the return type of forward-reference placeholders.
	expType ir.Type

	unresolved []deferredCall
}

// deferredCall records a call emitted against a placeholder function,
// to be linked up once the whole translation unit has been lowered.
type deferredCall struct {
	class, name string
	placeholder *ir.Func
}

// New creates a Generator emitting into the given module.
func New(mod *ir.Module) *Generator {
	return &Generator{mod: mod}
}

// Module transfers the module out of the generator.
func (g *Generator) Module() *ir.Module {
	m := g.mod
	g.mod = nil
	return m
}

// ----------------------------------------------------------------------------
// Type mapping

// typeByName maps a Jack type name to its IR type: int is a 32-bit
// integer, char 8-bit, boolean 1-bit, void is void, and any other name
// is a pointer to the named struct type, created opaquely on first
// sight.
func (g *Generator) typeByName(name string) ir.Type {
	switch name {
	case "int":
		return ir.I32
	case "char":
		return ir.I8
	case "boolean":
		return ir.I1
	case "void":
		return ir.Void
	default:
		return ir.NewPointer(g.mod.OpaqueStruct(name))
	}
}

// ----------------------------------------------------------------------------
// Class lowering

// Generate emits IR for each member of the class into the module:
// the class's struct type, a global per static, then methods followed
// by functions. Invariant violations raise InternalError.
func (g *Generator) Generate(cls *syntax.ClassDecl) {
	g.cls = cls

	fields := make([]ir.Type, len(cls.Fields))
	for i, f := range cls.Fields {
		fields[i] = g.typeByName(f.TypeName)
	}
	g.mod.DefineStruct(cls.ClsName, fields)

	for _, s := range cls.Statics {
		g.mod.AddGlobal(mangle.Name(cls.ClsName, s.VarName), g.typeByName(s.TypeName))
	}

	for _, m := range cls.Methods {
		g.genSubroutine(m)
	}
	for _, f := range cls.Funcs {
		g.genSubroutine(f)
	}
}

// genSubroutine lowers one subroutine declaration.
func (g *Generator) genSubroutine(decl *syntax.SubroutineDecl) {
	params := make([]ir.Param, len(decl.Params))
	for i, p := range decl.Params {
		params[i] = ir.Param{Name: p.VarName, Typ: g.typeByName(p.TypeName)}
	}

	fn := ir.NewFunc(
		mangle.Name(g.cls.ClsName, decl.FnName),
		params,
		g.typeByName(decl.RetType),
	)
	if err := g.mod.AddFunc(fn); err != nil {
		g.internalErrorf(nil, "%v", err)
	}

	g.fn = fn
	g.b = fn.Entry
	g.vals = make(map[string]*ir.Value)
	g.argVals = g.argVals[:0]

	g.allocateArguments(fn, decl)

	if decl.Kind == syntax.FuncConstructor {
		// Allocate the instance in the entry block and bind this to it
		// before the body is visited.
		st := g.mod.StructByName(g.cls.ClsName)
		words := int64(len(st.Fields))
		if words == 0 {
			words = 1
		}
		obj := fn.NewValue(fn.Entry, ir.OpAlloca, ir.NewPointer(st))
		obj.AuxInt = words
		obj.Aux = g.cls.ClsName

		slot := g.entrySlot(ir.NewPointer(st), "this")
		fn.NewValue(fn.Entry, ir.OpStore, nil, slot, obj)
		g.vals["this"] = slot
	}

	g.genBlock(decl.Body)

	// A body that falls off the end returns void implicitly.
	if g.b != nil && g.b.Kind == ir.BlockPlain && len(g.b.Succs) == 0 {
		g.b.Kind = ir.BlockReturn
	}

	normalizeReturns(fn)

	if err := ir.Verify(fn); err != nil {
		g.internalErrorf(fn, "invalid IR: %v", err)
	}
}

// allocateArguments materializes each formal parameter into a stack
// slot and records the name → slot binding, forcing a well-defined
// calling convention for the body.
func (g *Generator) allocateArguments(fn *ir.Func, decl *syntax.SubroutineDecl) {
	for i, p := range fn.Params {
		arg := fn.NewValue(fn.Entry, ir.OpArg, p.Typ)
		arg.AuxInt = int64(i)
		arg.Aux = p.Name
		g.argVals = append(g.argVals, arg)

		slot := g.entrySlot(p.Typ, p.Name)
		fn.NewValue(fn.Entry, ir.OpStore, nil, slot, arg)
		g.vals[p.Name] = slot
	}
}

// entrySlot reserves a one-word stack slot of the given type in the
// entry block. All slots go into the entry block to satisfy the
// mem2reg prerequisite.
func (g *Generator) entrySlot(typ ir.Type, name string) *ir.Value {
	slot := g.fn.NewValue(g.fn.Entry, ir.OpAlloca, ir.NewPointer(typ))
	slot.AuxInt = 1
	slot.Aux = name
	return slot
}

// ----------------------------------------------------------------------------
// Statements

// genBlock lowers a statement block, stopping at the first terminator.
func (g *Generator) genBlock(b *syntax.Block) {
	for _, s := range b.Stmts {
		if g.b == nil {
			// Unreachable code after a return.
			break
		}
		g.genStmt(s)
	}
}

// genStmt dispatches a statement to the appropriate lowering method.
func (g *Generator) genStmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.VarDecl:
		slot := g.entrySlot(g.typeByName(s.TypeName), s.VarName)
		g.vals[s.VarName] = slot

	case *syntax.LetStmt:
		ptr := g.genLValue(s.Target)
		val := g.genExpr(s.Value)
		g.fn.NewValue(g.b, ir.OpStore, nil, ptr, val)

	case *syntax.DoStmt:
		g.genExpr(s.Call)

	case *syntax.ReturnStmt:
		g.genReturn(s)

	case *syntax.IfStmt:
		g.genIf(s)

	case *syntax.WhileStmt:
		g.genWhile(s)

	case *syntax.Block:
		g.genBlock(s)

	default:
		g.internalErrorf(g.fn, "unhandled statement %T", s)
	}
}

// genReturn coerces the operand to the function's declared return type,
// sign-extending or truncating when both sides are integers.
func (g *Generator) genReturn(s *syntax.ReturnStmt) {
	g.expType = g.fn.Ret

	if _, bare := s.Result.(*syntax.Empty); bare {
		g.b.Kind = ir.BlockReturn
		g.b = nil
		return
	}

	v := g.genExpr(s.Result)
	v = g.coerceInt(v, g.fn.Ret)
	g.b.Kind = ir.BlockReturn
	g.b.SetControl(v)
	g.b = nil
}

// coerceInt adapts v to the target type when both are integer types of
// different widths.
func (g *Generator) coerceInt(v *ir.Value, target ir.Type) *ir.Value {
	vw, vok := ir.IsInt(v.Type)
	tw, tok := ir.IsInt(target)
	if !vok || !tok || vw == tw {
		return v
	}
	op := ir.OpSExt
	if vw > tw {
		op = ir.OpTrunc
	}
	return g.fn.NewValue(g.b, op, target, v)
}

// genIf lowers: if ( cond ) { then } [else { else }]
//
// The condition is compared for equality to true, making the branch
// condition explicit even though it is already 1-bit. Both arms
// terminate in cont unless the arm itself already returned; the
// insertion cursor ends at cont.
func (g *Generator) genIf(s *syntax.IfStmt) {
	cond := g.genExpr(s.Cond)
	cond = g.cmpTrue(cond)

	thenB := g.fn.NewBlock(ir.BlockPlain, "then")
	contB := g.fn.NewBlock(ir.BlockPlain, "cont")
	elseB := contB
	if s.Else != nil {
		elseB = g.fn.NewBlock(ir.BlockPlain, "else")
	}

	g.b.Kind = ir.BlockIf
	g.b.SetControl(cond)
	g.b.AddSucc(thenB)
	g.b.AddSucc(elseB)

	g.b = thenB
	g.genBlock(s.Then)
	if g.b != nil {
		g.b.AddSucc(contB)
	}

	if s.Else != nil {
		g.b = elseB
		g.genBlock(s.Else)
		if g.b != nil {
			g.b.AddSucc(contB)
		}
	}

	if len(contB.Preds) > 0 {
		g.b = contB
	} else {
		// Both arms returned; cont is dead fall-through.
		g.fn.RemoveBlock(contB)
		g.b = nil
	}
}

// genWhile lowers: while ( cond ) { body }
//
// The condition is re-evaluated in preheader on every iteration; the
// body branches back to preheader; the cursor ends at endloop.
func (g *Generator) genWhile(s *syntax.WhileStmt) {
	preheader := g.fn.NewBlock(ir.BlockPlain, "preheader")
	loop := g.fn.NewBlock(ir.BlockPlain, "loop")
	endloop := g.fn.NewBlock(ir.BlockPlain, "endloop")

	g.b.AddSucc(preheader)

	g.b = preheader
	cond := g.genExpr(s.Cond)
	cond = g.cmpTrue(cond)
	g.b.Kind = ir.BlockIf
	g.b.SetControl(cond)
	g.b.AddSucc(loop)
	g.b.AddSucc(endloop)

	g.b = loop
	g.genBlock(s.Body)
	if g.b != nil {
		g.b.AddSucc(preheader)
	}

	g.b = endloop
}

// cmpTrue compares a condition for equality to true.
func (g *Generator) cmpTrue(cond *ir.Value) *ir.Value {
	one := g.fn.NewValue(g.b, ir.OpConst, ir.I1)
	one.AuxInt = 1
	return g.fn.NewValue(g.b, ir.OpEq, ir.I1, cond, one)
}
