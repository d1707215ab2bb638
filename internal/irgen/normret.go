package irgen

import "github.com/you-not-fish/jackal/internal/ir"

// normalizeReturns rewrites a multi-return function into single-return
// form: a trailing return block is created; if the return type is
// non-void a slot is reserved in the entry block; each return-with-value
// becomes a store to that slot followed by an unconditional branch to
// the trailing block, which loads and returns. Functions with zero or
// one return are left untouched.
func normalizeReturns(f *ir.Func) {
	var returns []*ir.Block
	for _, b := range f.Blocks {
		if b.Kind == ir.BlockReturn {
			returns = append(returns, b)
		}
	}
	if len(returns) <= 1 {
		return
	}

	retB := f.NewBlock(ir.BlockReturn, "ret")

	var slot *ir.Value
	if !ir.IsVoid(f.Ret) {
		slot = f.NewValueAtFront(f.Entry, ir.OpAlloca, ir.NewPointer(f.Ret))
		slot.AuxInt = 1
		slot.Aux = "retval"
	}

	for _, b := range returns {
		if len(b.Controls) > 0 && b.Controls[0] != nil {
			v := b.Controls[0]
			v.Uses--
			if slot != nil {
				f.NewValue(b, ir.OpStore, nil, slot, v)
			}
		}
		b.Controls = nil
		b.Kind = ir.BlockPlain
		b.AddSucc(retB)
	}

	if slot != nil {
		ld := f.NewValue(retB, ir.OpLoad, f.Ret, slot)
		retB.SetControl(ld)
	}
}
