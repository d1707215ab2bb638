package ir

import "github.com/you-not-fish/jackal/internal/syntax"

// Param describes a formal parameter of a function.
type Param struct {
	Name string
	Typ  Type
}

// Func represents an IR function: a control flow graph of Blocks, each
// containing Values. Entry is always Blocks[0].
type Func struct {
	// Name is the mangled function name (__<Class>__<Member>), or the
	// placeholder name for unresolved forward references.
	Name string

	// Params are the formal parameters in declaration order.
	Params []Param

	// Ret is the declared return type (Void for none).
	Ret Type

	// Blocks is the list of basic blocks. Blocks[0] is the entry block.
	Blocks []*Block

	// Entry is the entry block (same as Blocks[0]).
	Entry *Block

	// Placeholder marks a synthesized forward-reference stand-in. A
	// placeholder has no body and must not survive deferred resolution.
	Placeholder bool

	nextValueID ID
	nextBlockID ID
}

// NewFunc creates a new IR function with the given name and signature.
// An entry block is automatically created.
func NewFunc(name string, params []Param, ret Type) *Func {
	f := &Func{
		Name:   name,
		Params: params,
		Ret:    ret,
	}
	entry := f.NewBlock(BlockPlain, "entry")
	f.Entry = entry
	return f
}

// NewBlock creates a new basic block and appends it to the function.
func (f *Func) NewBlock(kind BlockKind, name string) *Block {
	b := &Block{
		ID:   f.nextBlockID,
		Name: name,
		Kind: kind,
		Func: f,
	}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewValue creates a new Value in the given block.
func (f *Func) NewValue(b *Block, op Op, typ Type, args ...*Value) *Value {
	v := &Value{
		ID:    f.nextValueID,
		Op:    op,
		Type:  typ,
		Block: b,
	}
	f.nextValueID++
	for _, arg := range args {
		v.AddArg(arg)
	}
	b.Values = append(b.Values, v)
	return v
}

// NewValuePos creates a new Value with a source position.
func (f *Func) NewValuePos(b *Block, op Op, typ Type, pos syntax.Pos, args ...*Value) *Value {
	v := f.NewValue(b, op, typ, args...)
	v.Pos = pos
	return v
}

// NewValueAtFront creates a new Value at the front of the given block.
// Used by mem2reg to place phis before the block's other values.
func (f *Func) NewValueAtFront(b *Block, op Op, typ Type) *Value {
	v := &Value{
		ID:    f.nextValueID,
		Op:    op,
		Type:  typ,
		Block: b,
	}
	f.nextValueID++
	b.Values = append([]*Value{v}, b.Values...)
	return v
}

// NewValueAfter creates a new Value placed immediately after the value
// after in its block. Used by deferred resolution to insert width casts
// at call sites.
func (f *Func) NewValueAfter(after *Value, op Op, typ Type, args ...*Value) *Value {
	b := after.Block
	v := &Value{
		ID:    f.nextValueID,
		Op:    op,
		Type:  typ,
		Block: b,
	}
	f.nextValueID++
	for _, arg := range args {
		v.AddArg(arg)
	}
	for i, cur := range b.Values {
		if cur == after {
			b.Values = append(b.Values, nil)
			copy(b.Values[i+2:], b.Values[i+1:])
			b.Values[i+1] = v
			return v
		}
	}
	b.Values = append(b.Values, v)
	return v
}

// ReplaceUses redirects every use of old to nv, in value arguments and
// in block controls, adjusting use counts.
func (f *Func) ReplaceUses(old, nv *Value) {
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v == nv {
				continue
			}
			for i, arg := range v.Args {
				if arg == old {
					v.ReplaceArg(i, nv)
				}
			}
		}
		for i, c := range b.Controls {
			if c == old {
				b.Controls[i] = nv
				old.Uses--
				nv.Uses++
			}
		}
	}
}

// RemoveBlock removes a block from the function's block list. The block
// must have no predecessors.
func (f *Func) RemoveBlock(dead *Block) {
	for _, s := range dead.Succs {
		s.removePred(dead)
	}
	for i, b := range f.Blocks {
		if b == dead {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			return
		}
	}
}

// NumBlocks returns the number of blocks in the function.
func (f *Func) NumBlocks() int { return len(f.Blocks) }

// NumValues returns the total number of values across all blocks.
func (f *Func) NumValues() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Values)
	}
	return n
}

// NumReturns returns the number of return blocks in the function.
func (f *Func) NumReturns() int {
	n := 0
	for _, b := range f.Blocks {
		if b.Kind == BlockReturn {
			n++
		}
	}
	return n
}
