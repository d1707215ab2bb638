package irgen

import (
	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/mangle"
	"github.com/you-not-fish/jackal/internal/syntax"
)

// genExpr lowers an expression to an IR value.
func (g *Generator) genExpr(e syntax.Expr) *ir.Value {
	switch e := e.(type) {
	case *syntax.IntConst:
		v := g.fn.NewValuePos(g.b, ir.OpConst, ir.I32, e.Pos())
		v.AuxInt = e.Value
		g.expType = v.Type
		return v

	case *syntax.CharConst:
		v := g.fn.NewValuePos(g.b, ir.OpConst, ir.I8, e.Pos())
		v.AuxInt = int64(e.Value)
		g.expType = v.Type
		return v

	case *syntax.BoolConst:
		v := g.fn.NewValuePos(g.b, ir.OpConst, ir.I1, e.Pos())
		if e.Value {
			v.AuxInt = 1
		}
		g.expType = v.Type
		return v

	case *syntax.StrConst:
		return g.genStrConst(e)

	case *syntax.This:
		slot, ok := g.vals["this"]
		if !ok {
			g.internalErrorf(g.fn, "this is not bound in %s", g.fn.Name)
		}
		g.expType = slot.Type
		return slot

	case *syntax.RValue:
		ptr := g.genLValueExpr(e.X)
		elem := ptr.Type.(*ir.PointerType).Elem
		v := g.fn.NewValuePos(g.b, ir.OpLoad, elem, e.Pos(), ptr)
		g.expType = v.Type
		return v

	case *syntax.Identifier:
		return g.genLValue(e)

	case *syntax.IndexExpr:
		return g.genLValue(e)

	case *syntax.BinaryOp:
		return g.genBinaryOp(e)

	case *syntax.UnaryOp:
		return g.genUnaryOp(e)

	case *syntax.FunctionCall:
		return g.genFunctionCall(e)

	case *syntax.MethodCall:
		return g.genMethodCall(e)

	case *syntax.Empty:
		return nil

	default:
		g.internalErrorf(g.fn, "unhandled expression %T", e)
		return nil
	}
}

// genLValueExpr lowers an expression that must yield an address: a
// named value or this.
func (g *Generator) genLValueExpr(e syntax.Expr) *ir.Value {
	switch e := e.(type) {
	case *syntax.This:
		slot, ok := g.vals["this"]
		if !ok {
			g.internalErrorf(g.fn, "this is not bound in %s", g.fn.Name)
		}
		return slot
	case syntax.NamedValue:
		return g.genLValue(e)
	default:
		g.internalErrorf(g.fn, "expression %T is not addressable", e)
		return nil
	}
}

// genLValue lowers a named value to a pointer.
//
// Resolution order: the local value map (locals and parameters), the
// class's fields through this, then the module's globals under the
// mangled static name. The expected type is set to the pointee.
func (g *Generator) genLValue(nv syntax.NamedValue) *ir.Value {
	switch nv := nv.(type) {
	case *syntax.Identifier:
		ptr := g.findIdentifier(nv.Name())
		if ptr == nil {
			g.internalErrorf(g.fn, "undefined identifier %q", nv.Name())
		}
		g.expType = ptr.Type.(*ir.PointerType).Elem
		return ptr

	case *syntax.IndexExpr:
		return g.genIndexExpr(nv)

	default:
		g.internalErrorf(g.fn, "unhandled named value %T", nv)
		return nil
	}
}

// findIdentifier searches the local value map, then the class's fields
// via this, then the module globals. Returns nil when the name does
// not resolve.
func (g *Generator) findIdentifier(name string) *ir.Value {
	if slot, ok := g.vals[name]; ok {
		return slot
	}

	// Class field, addressed through this.
	if thisSlot, ok := g.vals["this"]; ok {
		if idx := g.cls.FieldIndex(name); idx >= 0 {
			st := g.mod.StructByName(g.cls.ClsName)
			thisPtr := g.fn.NewValue(g.b, ir.OpLoad, thisSlot.Type.(*ir.PointerType).Elem, thisSlot)
			fp := g.fn.NewValue(g.b, ir.OpFieldPtr, ir.NewPointer(st.Fields[idx]), thisPtr)
			fp.AuxInt = int64(idx)
			return fp
		}
	}

	// Class static, lowered to a module global under the mangled name.
	if glob := g.mod.GlobalByName(mangle.Name(g.cls.ClsName, name)); glob != nil {
		ga := g.fn.NewValue(g.b, ir.OpGlobalAddr, ir.NewPointer(glob.Typ))
		ga.Aux = glob
		return ga
	}

	return nil
}

// genIndexExpr lowers name[index] to an element pointer. The array
// layout is a struct whose first field is a pointer to the element
// storage: resolve the name, load the struct pointer, GEP to the data
// pointer field, load it, then GEP by the index.
func (g *Generator) genIndexExpr(e *syntax.IndexExpr) *ir.Value {
	slot := g.findIdentifier(e.Name())
	if slot == nil {
		g.internalErrorf(g.fn, "undefined identifier %q", e.Name())
	}

	structPtrT, ok := slot.Type.(*ir.PointerType).Elem.(*ir.PointerType)
	if !ok {
		g.internalErrorf(g.fn, "%q is not indexable", e.Name())
	}
	st, ok := structPtrT.Elem.(*ir.StructType)
	if !ok {
		g.internalErrorf(g.fn, "%q is not indexable", e.Name())
	}

	elemT := ir.Type(ir.I32)
	if len(st.Fields) > 0 {
		if dp, ok := st.Fields[0].(*ir.PointerType); ok {
			elemT = dp.Elem
		}
	}

	structPtr := g.fn.NewValue(g.b, ir.OpLoad, structPtrT, slot)
	dataFP := g.fn.NewValue(g.b, ir.OpFieldPtr, ir.NewPointer(ir.NewPointer(elemT)), structPtr)
	dataFP.AuxInt = 0
	data := g.fn.NewValue(g.b, ir.OpLoad, ir.NewPointer(elemT), dataFP)

	idx := g.genExpr(e.Index)
	elemPtr := g.fn.NewValuePos(g.b, ir.OpIndexPtr, ir.NewPointer(elemT), e.Pos(), data, idx)
	g.expType = elemT
	return elemPtr
}

// genStrConst emits the literal as a global C-string, reserves a String
// slot, calls the String.ptrtostr built-in, stores its return, and
// loads — yielding a String value.
func (g *Generator) genStrConst(e *syntax.StrConst) *ir.Value {
	glob := g.mod.AddStringGlobal(e.Value)
	charPtr := g.fn.NewValuePos(g.b, ir.OpGlobalAddr, ir.NewPointer(ir.I8), e.Pos())
	charPtr.Aux = glob

	strT := g.typeByName("String")
	slot := g.entrySlot(strT, "")

	g.expType = strT
	ret := g.genCall("String", "ptrtostr", []*ir.Value{charPtr}, e.Pos())
	g.fn.NewValue(g.b, ir.OpStore, nil, slot, ret)

	v := g.fn.NewValue(g.b, ir.OpLoad, strT, slot)
	g.expType = v.Type
	return v
}

// genBinaryOp lowers a binary operation: integer add/sub/mul/sdiv for
// + - * /, signed compares for > < =, and/or for & |.
func (g *Generator) genBinaryOp(e *syntax.BinaryOp) *ir.Value {
	lhs := g.genExpr(e.X)
	rhs := g.genExpr(e.Y)

	var op ir.Op
	typ := lhs.Type
	switch e.Op {
	case syntax.SymPlus:
		op = ir.OpAdd
	case syntax.SymMinus:
		op = ir.OpSub
	case syntax.SymMul:
		op = ir.OpMul
	case syntax.SymDiv:
		op = ir.OpSDiv
	case syntax.SymAnd:
		op = ir.OpAnd
	case syntax.SymOr:
		op = ir.OpOr
	case syntax.SymGt:
		op = ir.OpGt
		typ = ir.I1
	case syntax.SymLt:
		op = ir.OpLt
		typ = ir.I1
	case syntax.SymEq:
		op = ir.OpEq
		typ = ir.I1
	default:
		g.internalErrorf(g.fn, "unsupported binary operator %s", e.Op)
	}

	v := g.fn.NewValuePos(g.b, op, typ, e.Pos(), lhs, rhs)
	g.expType = v.Type
	return v
}

// genUnaryOp lowers - to integer negate and ~ to bitwise not.
func (g *Generator) genUnaryOp(e *syntax.UnaryOp) *ir.Value {
	operand := g.genExpr(e.X)

	var op ir.Op
	switch e.Op {
	case syntax.SymMinus:
		op = ir.OpNeg
	case syntax.SymNot:
		op = ir.OpNot
	default:
		g.internalErrorf(g.fn, "unsupported unary operator %s", e.Op)
	}

	v := g.fn.NewValuePos(g.b, op, operand.Type, e.Pos(), operand)
	g.expType = v.Type
	return v
}
