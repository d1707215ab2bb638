package passes

import "github.com/you-not-fish/jackal/internal/ir"

// Mem2Reg promotes stack allocas to registers by inserting phi nodes
// and renaming variables. Only "simple" allocas (used only by load and
// store) are promoted; allocas whose address escapes — including every
// class-instance allocation, whose address feeds FieldPtr — are left
// intact.
func Mem2Reg(f *ir.Func) {
	// Ensure dominance tree is available.
	ir.ComputeDom(f)

	allocas := findPromotable(f)
	if len(allocas) == 0 {
		return
	}

	df := ir.ComputeDomFrontier(f)

	// For each alloca, find blocks that store to it.
	defBlocks := make(map[*ir.Value][]*ir.Block, len(allocas))
	for _, a := range allocas {
		defBlocks[a] = findDefBlocks(f, a)
	}

	// Insert phi nodes at the iterated dominance frontier.
	phiMap := insertPhis(f, allocas, defBlocks, df)

	// Rename variables using a domtree preorder walk.
	rename(f, allocas, phiMap)
}

// findPromotable returns all allocas that can be promoted to registers.
// An alloca is promotable if every use is an OpLoad (ptr) or an OpStore
// with the alloca as the destination.
func findPromotable(f *ir.Func) []*ir.Value {
	var allAllocas []*ir.Value
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.Op == ir.OpAlloca {
				allAllocas = append(allAllocas, v)
			}
		}
	}

	allocaSet := make(map[*ir.Value]bool, len(allAllocas))
	for _, a := range allAllocas {
		allocaSet[a] = true
	}

	// First pass: mark non-promotable allocas.
	nonPromotable := make(map[*ir.Value]bool)
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			for i, arg := range v.Args {
				if !allocaSet[arg] {
					continue
				}
				switch v.Op {
				case ir.OpLoad:
					if i != 0 {
						nonPromotable[arg] = true
					}
				case ir.OpStore:
					if i != 0 {
						// Alloca used as the stored value: the
						// address escapes.
						nonPromotable[arg] = true
					}
				default:
					// Any other use (FieldPtr, IndexPtr, call
					// argument) is non-promotable.
					nonPromotable[arg] = true
				}
			}
		}
		// An alloca used as a block control escapes too.
		for _, c := range b.Controls {
			if allocaSet[c] {
				nonPromotable[c] = true
			}
		}
	}

	var promotable []*ir.Value
	for _, a := range allAllocas {
		if !nonPromotable[a] {
			promotable = append(promotable, a)
		}
	}
	return promotable
}

// findDefBlocks returns the blocks containing stores to the given alloca.
func findDefBlocks(f *ir.Func, alloca *ir.Value) []*ir.Block {
	seen := make(map[*ir.Block]bool)
	var blocks []*ir.Block
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.Op == ir.OpStore && v.Args[0] == alloca {
				if !seen[b] {
					seen[b] = true
					blocks = append(blocks, b)
				}
			}
		}
	}
	return blocks
}

// insertPhis places phi nodes at the iterated dominance frontier for
// each alloca. Returns phiMap[block][alloca] = phi value.
func insertPhis(
	f *ir.Func,
	allocas []*ir.Value,
	defBlocks map[*ir.Value][]*ir.Block,
	df map[*ir.Block][]*ir.Block,
) map[*ir.Block]map[*ir.Value]*ir.Value {
	phiMap := make(map[*ir.Block]map[*ir.Value]*ir.Value)

	for _, alloca := range allocas {
		elemType := alloca.Type.(*ir.PointerType).Elem

		idf := iteratedDF(defBlocks[alloca], df)

		for _, b := range idf {
			phi := f.NewValueAtFront(b, ir.OpPhi, elemType)
			// Pre-allocate Args with nil entries (one per predecessor).
			phi.Args = make([]*ir.Value, len(b.Preds))

			if phiMap[b] == nil {
				phiMap[b] = make(map[*ir.Value]*ir.Value)
			}
			phiMap[b][alloca] = phi
		}
	}

	return phiMap
}

// iteratedDF computes the iterated dominance frontier from a set of
// defining blocks.
func iteratedDF(defs []*ir.Block, df map[*ir.Block][]*ir.Block) []*ir.Block {
	var result []*ir.Block
	inResult := make(map[*ir.Block]bool)
	worklist := make([]*ir.Block, len(defs))
	copy(worklist, defs)
	inWorklist := make(map[*ir.Block]bool, len(defs))
	for _, b := range defs {
		inWorklist[b] = true
	}

	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, d := range df[b] {
			if !inResult[d] {
				inResult[d] = true
				result = append(result, d)
				if !inWorklist[d] {
					inWorklist[d] = true
					worklist = append(worklist, d)
				}
			}
		}
	}
	return result
}

// rename walks the dominator tree in preorder, tracking reaching
// definitions for each alloca and wiring up phi arguments.
func rename(f *ir.Func, allocas []*ir.Value, phiMap map[*ir.Block]map[*ir.Value]*ir.Value) {
	// Create zero constants for each alloca's element type (in entry).
	zeroVals := make(map[*ir.Value]*ir.Value, len(allocas))
	for _, a := range allocas {
		elemType := a.Type.(*ir.PointerType).Elem
		zeroVals[a] = makeZero(f, elemType)
	}

	// Stacks of reaching definitions.
	stacks := make(map[*ir.Value][]*ir.Value, len(allocas))
	for _, a := range allocas {
		stacks[a] = []*ir.Value{zeroVals[a]}
	}

	allocaSet := make(map[*ir.Value]bool, len(allocas))
	for _, a := range allocas {
		allocaSet[a] = true
	}

	dead := make(map[*ir.Value]bool)

	var visit func(b *ir.Block)
	visit = func(b *ir.Block) {
		// Count definitions pushed in this block to pop later.
		pushCounts := make(map[*ir.Value]int, len(allocas))

		// 1. Phis in this block are new definitions.
		if pm, ok := phiMap[b]; ok {
			for alloca, phi := range pm {
				stacks[alloca] = append(stacks[alloca], phi)
				pushCounts[alloca]++
			}
		}

		// 2. Process values in order.
		for _, v := range b.Values {
			switch v.Op {
			case ir.OpLoad:
				if allocaSet[v.Args[0]] {
					alloca := v.Args[0]
					stack := stacks[alloca]
					reachingDef := stack[len(stack)-1]
					f.ReplaceUses(v, reachingDef)
					dead[v] = true
				}
			case ir.OpStore:
				if allocaSet[v.Args[0]] {
					alloca := v.Args[0]
					storedVal := v.Args[1]
					stacks[alloca] = append(stacks[alloca], storedVal)
					pushCounts[alloca]++
					dead[v] = true
				}
			}
		}

		// 3. Fill successor phis.
		for _, s := range b.Succs {
			pm, ok := phiMap[s]
			if !ok {
				continue
			}
			predIdx := -1
			for i, p := range s.Preds {
				if p == b {
					predIdx = i
					break
				}
			}
			if predIdx < 0 {
				continue
			}
			for alloca, phi := range pm {
				stack := stacks[alloca]
				val := stack[len(stack)-1]
				phi.Args[predIdx] = val
				val.Uses++
			}
		}

		// 4. Recurse into dominated blocks.
		for _, child := range b.Dominees {
			visit(child)
		}

		// 5. Pop definitions pushed in this block.
		for alloca, count := range pushCounts {
			stacks[alloca] = stacks[alloca][:len(stacks[alloca])-count]
		}
	}

	visit(f.Entry)

	removeDead(f, dead, allocaSet)
	cleanupPhis(f)
}

// makeZero creates a zero constant of the given type in the entry block.
// Pointer-typed slots start out null.
func makeZero(f *ir.Func, t ir.Type) *ir.Value {
	v := f.NewValue(f.Entry, ir.OpConst, t)
	v.AuxInt = 0
	return v
}

// removeDead removes dead loads/stores and unused allocas.
func removeDead(f *ir.Func, dead map[*ir.Value]bool, allocaSet map[*ir.Value]bool) {
	for _, b := range f.Blocks {
		var live []*ir.Value
		for _, v := range b.Values {
			if dead[v] {
				for _, arg := range v.Args {
					arg.Uses--
				}
				continue
			}
			live = append(live, v)
		}
		b.Values = live
	}

	// Remove promoted allocas with no remaining uses.
	for _, b := range f.Blocks {
		var live []*ir.Value
		for _, v := range b.Values {
			if allocaSet[v] && v.Uses == 0 {
				continue
			}
			live = append(live, v)
		}
		b.Values = live
	}
}

// cleanupPhis removes trivial phis (all args the same or self-referential).
func cleanupPhis(f *ir.Func) {
	changed := true
	for changed {
		changed = false
		for _, b := range f.Blocks {
			for _, v := range b.Values {
				if v.Op != ir.OpPhi {
					continue
				}
				if trivial := trivialPhi(v); trivial != nil {
					f.ReplaceUses(v, trivial)
					changed = true
				}
			}
		}
		if changed {
			for _, b := range f.Blocks {
				var live []*ir.Value
				for _, v := range b.Values {
					if v.Op == ir.OpPhi && v.Uses == 0 {
						for _, arg := range v.Args {
							if arg != nil {
								arg.Uses--
							}
						}
						continue
					}
					live = append(live, v)
				}
				b.Values = live
			}
		}
	}
}

// trivialPhi returns the single non-self value if the phi is trivial
// (all args are the same value or self-references), or nil if
// non-trivial.
func trivialPhi(phi *ir.Value) *ir.Value {
	var unique *ir.Value
	for _, arg := range phi.Args {
		if arg == nil || arg == phi {
			continue
		}
		if unique == nil {
			unique = arg
		} else if arg != unique {
			return nil
		}
	}
	return unique
}
