package jit

import (
	"fmt"

	"github.com/you-not-fish/jackal/internal/ir"
)

// call executes a function with the given argument words and returns
// the result word. Integer values are kept canonically sign-extended
// at their declared width.
func (e *Engine) call(f *ir.Func, args []int64) (int64, error) {
	if f.Placeholder {
		return 0, fmt.Errorf("call to unresolved placeholder in %s", f.Name)
	}
	if len(args) != len(f.Params) {
		return 0, fmt.Errorf("%s: got %d arguments, want %d",
			f.Name, len(args), len(f.Params))
	}

	frame := make(map[*ir.Value]int64, f.NumValues())
	b := f.Entry
	var prev *ir.Block

	for {
		// Phi nodes read their inputs simultaneously on block entry.
		if prev != nil {
			if err := evalPhis(b, prev, frame); err != nil {
				return 0, fmt.Errorf("%s: %w", f.Name, err)
			}
		}

		for _, v := range b.Values {
			if v.Op == ir.OpPhi {
				continue
			}
			if err := e.evalValue(v, args, frame); err != nil {
				return 0, fmt.Errorf("%s: %w", f.Name, err)
			}
		}

		switch b.Kind {
		case ir.BlockPlain:
			if len(b.Succs) != 1 {
				return 0, fmt.Errorf("%s: malformed plain block %s", f.Name, b)
			}
			prev, b = b, b.Succs[0]

		case ir.BlockIf:
			if len(b.Controls) != 1 || len(b.Succs) != 2 {
				return 0, fmt.Errorf("%s: malformed if block %s", f.Name, b)
			}
			if frame[b.Controls[0]] != 0 {
				prev, b = b, b.Succs[0]
			} else {
				prev, b = b, b.Succs[1]
			}

		case ir.BlockReturn:
			if len(b.Controls) > 0 && b.Controls[0] != nil {
				return frame[b.Controls[0]], nil
			}
			return 0, nil

		default:
			return 0, fmt.Errorf("%s: invalid block kind in %s", f.Name, b)
		}
	}
}

// evalPhis commits all phi values of b using the definitions that
// reached the end of the predecessor block.
func evalPhis(b, prev *ir.Block, frame map[*ir.Value]int64) error {
	predIdx := -1
	for i, p := range b.Preds {
		if p == prev {
			predIdx = i
			break
		}
	}
	if predIdx < 0 {
		return fmt.Errorf("block %s entered from non-predecessor %s", b, prev)
	}

	// Read all inputs before writing any, so same-block phis do not
	// observe each other's new values.
	var phis []*ir.Value
	var ins []int64
	for _, v := range b.Values {
		if v.Op != ir.OpPhi {
			continue
		}
		arg := v.Args[predIdx]
		if arg == nil {
			return fmt.Errorf("phi %s has no value for predecessor %s", v, prev)
		}
		phis = append(phis, v)
		ins = append(ins, frame[arg])
	}
	for i, v := range phis {
		frame[v] = ins[i]
	}
	return nil
}

// evalValue computes one non-phi value into the frame.
func (e *Engine) evalValue(v *ir.Value, args []int64, frame map[*ir.Value]int64) error {
	arg := func(i int) int64 { return frame[v.Args[i]] }

	switch v.Op {
	case ir.OpConst:
		frame[v] = truncSigned(v.AuxInt, width(v.Type))

	case ir.OpArg:
		frame[v] = args[v.AuxInt]

	case ir.OpAlloca:
		n := v.AuxInt
		if n < 1 {
			n = 1
		}
		frame[v] = e.Alloc(n)

	case ir.OpLoad:
		addr := arg(0)
		if addr == 0 {
			return fmt.Errorf("load through null pointer (%s)", v.LongString())
		}
		frame[v] = e.Load(addr)

	case ir.OpStore:
		addr := arg(0)
		if addr == 0 {
			return fmt.Errorf("store through null pointer (%s)", v.LongString())
		}
		e.Store(addr, arg(1))

	case ir.OpAdd:
		frame[v] = truncSigned(arg(0)+arg(1), width(v.Type))
	case ir.OpSub:
		frame[v] = truncSigned(arg(0)-arg(1), width(v.Type))
	case ir.OpMul:
		frame[v] = truncSigned(arg(0)*arg(1), width(v.Type))
	case ir.OpSDiv:
		if arg(1) == 0 {
			return fmt.Errorf("integer division by zero (%s)", v.LongString())
		}
		frame[v] = truncSigned(arg(0)/arg(1), width(v.Type))
	case ir.OpNeg:
		frame[v] = truncSigned(-arg(0), width(v.Type))

	case ir.OpAnd:
		frame[v] = truncSigned(arg(0)&arg(1), width(v.Type))
	case ir.OpOr:
		frame[v] = truncSigned(arg(0)|arg(1), width(v.Type))
	case ir.OpNot:
		frame[v] = truncSigned(^arg(0), width(v.Type))

	case ir.OpEq:
		frame[v] = boolWord(arg(0) == arg(1))
	case ir.OpLt:
		frame[v] = boolWord(arg(0) < arg(1))
	case ir.OpGt:
		frame[v] = boolWord(arg(0) > arg(1))

	case ir.OpSExt, ir.OpTrunc:
		frame[v] = truncSigned(arg(0), width(v.Type))

	case ir.OpFieldPtr:
		base := arg(0)
		if base == 0 {
			return fmt.Errorf("field access through null pointer (%s)", v.LongString())
		}
		frame[v] = base + v.AuxInt

	case ir.OpIndexPtr:
		base := arg(0)
		if base == 0 {
			return fmt.Errorf("index through null pointer (%s)", v.LongString())
		}
		frame[v] = base + arg(1)

	case ir.OpGlobalAddr:
		g, ok := v.Aux.(*ir.Global)
		if !ok {
			return fmt.Errorf("global address without global (%s)", v.LongString())
		}
		frame[v] = e.globalAddr[g]

	case ir.OpCall:
		callee, ok := v.Aux.(*ir.Func)
		if !ok {
			return fmt.Errorf("call without callee (%s)", v.LongString())
		}
		callArgs := make([]int64, len(v.Args))
		for i := range v.Args {
			callArgs[i] = arg(i)
		}
		ret, err := e.call(callee, callArgs)
		if err != nil {
			return err
		}
		frame[v] = ret

	case ir.OpHostCall:
		hf, ok := v.Aux.(*ir.HostFunc)
		if !ok {
			return fmt.Errorf("host call without host function (%s)", v.LongString())
		}
		callArgs := make([]int64, len(v.Args))
		for i := range v.Args {
			callArgs[i] = arg(i)
		}
		frame[v] = hf.Fn(e, callArgs)

	case ir.OpCopy:
		frame[v] = arg(0)

	default:
		return fmt.Errorf("unhandled op %s (%s)", v.Op, v.LongString())
	}
	return nil
}

// width returns the bit width of an integer type, or 64 for pointers
// and other word-sized values.
func width(t ir.Type) int {
	if w, ok := ir.IsInt(t); ok {
		return w
	}
	return 64
}

// truncSigned truncates v to the given bit width and sign-extends the
// result back to 64 bits, keeping values canonical. Booleans (width 1)
// are kept as 0 or 1 rather than sign-extended: a true comparison
// yields 1.
func truncSigned(v int64, w int) int64 {
	if w >= 64 {
		return v
	}
	if w == 1 {
		return v & 1
	}
	shift := uint(64 - w)
	return v << shift >> shift
}

func boolWord(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
