package irgen

import (
	"fmt"
	"os"

	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/mangle"
)

// InternalError indicates a front-end invariant violation observed by
// the generator: an identifier that does not resolve, or a deferred
// reference that remains unresolved after all user code was emitted.
// The generator dumps the offending function and the module, then
// aborts compilation by panicking with this value.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}

// internalErrorf prints the offending function and the module to
// stderr and aborts.
func (g *Generator) internalErrorf(f *ir.Func, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "\n[Internal Error] %s\nFunction:\n\n", msg)
	if f != nil {
		ir.Fprint(os.Stderr, f)
	} else {
		fmt.Fprintln(os.Stderr, "Not found")
	}
	fmt.Fprintf(os.Stderr, "\nModule:\n\n")
	if g.mod != nil {
		ir.FprintModule(os.Stderr, g.mod)
	}
	panic(&InternalError{Msg: msg})
}

// Resolve drains the deferred-resolution worklist: every placeholder
// is replaced by the function now registered under the mangled name.
// Call sites are rewritten in place; when the placeholder's inferred
// return type differs from the resolved return type (both integer), a
// sign-extend or truncate is inserted at each use site so that uses
// retain their original type contract. The placeholder is then deleted
// from the module.
//
// A reference that still does not resolve is an InternalError.
func (g *Generator) Resolve() {
	for _, u := range g.unresolved {
		target := g.mod.FuncByName(mangle.Name(u.class, u.name))
		if target == nil {
			g.internalErrorf(u.placeholder, "missing %s.%s", u.class, u.name)
		}
		g.replaceCalls(u.placeholder, target)
		g.mod.RemovePlaceholder(u.placeholder)
	}
	g.unresolved = g.unresolved[:0]
}

// replaceCalls rewrites every call against the placeholder to call the
// resolved function, casting the result back to the call's original
// type where the widths differ. The cast happens at the use site, not
// the definition site, so surrounding type constraints continue to
// hold.
func (g *Generator) replaceCalls(ph, target *ir.Func) {
	if len(ph.Params) != len(target.Params) {
		g.internalErrorf(target, "call to %s has %d arguments, want %d",
			target.Name, len(ph.Params), len(target.Params))
	}

	for _, f := range g.mod.Funcs() {
		for _, b := range f.Blocks {
			// Snapshot: the cast insertion appends to b.Values.
			values := make([]*ir.Value, len(b.Values))
			copy(values, b.Values)

			for _, v := range values {
				if v.Op != ir.OpCall || v.Aux != ph {
					continue
				}
				oldTy := v.Type
				v.Aux = target
				v.Type = target.Ret

				if ir.Equal(oldTy, target.Ret) {
					continue
				}
				ow, ook := ir.IsInt(oldTy)
				nw, nok := ir.IsInt(target.Ret)
				if !ook || !nok {
					continue
				}
				op := ir.OpSExt
				if nw > ow {
					op = ir.OpTrunc
				}
				cast := f.NewValueAfter(v, op, oldTy, v)
				f.ReplaceUses(v, cast)
			}
		}
	}
}
