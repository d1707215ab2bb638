package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Verify checks the structural integrity of an IR function.
// It returns an error describing all violations found, or nil if valid.
func Verify(f *Func) error {
	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if f.Entry == nil {
		add("func %s: entry block is nil", f.Name)
		return combineErrors(errs)
	}

	if len(f.Blocks) == 0 {
		add("func %s: no blocks", f.Name)
		return combineErrors(errs)
	}

	if f.Blocks[0] != f.Entry {
		add("func %s: Blocks[0] is not the entry block", f.Name)
	}

	// Entry block has no predecessors.
	if len(f.Entry.Preds) != 0 {
		add("func %s: entry block %s has %d predecessors, want 0",
			f.Name, f.Entry, len(f.Entry.Preds))
	}

	blockSet := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		blockSet[b] = true
	}

	for _, b := range f.Blocks {
		if b.Kind == BlockInvalid {
			add("func %s, %s: block has invalid kind", f.Name, b)
		}
		if b.Func != f {
			add("func %s, %s: block Func pointer mismatch", f.Name, b)
		}

		for _, v := range b.Values {
			if v.Block != b {
				add("func %s, %s, %s: value Block pointer is %s, want %s",
					f.Name, b, v, v.Block, b)
			}

			// Non-void values must have a type. Calls may have nil
			// type when the callee is void.
			if !v.Op.IsVoid() && v.Type == nil && v.Op != OpCall && v.Op != OpHostCall {
				add("func %s, %s, %s (%s): non-void value has nil Type",
					f.Name, b, v, v.Op)
			}

			for i, arg := range v.Args {
				if arg == nil {
					add("func %s, %s, %s: arg[%d] is nil", f.Name, b, v, i)
				}
			}

			if v.Op == OpPhi && len(v.Args) != len(b.Preds) {
				add("func %s, %s, %s: phi has %d args but block has %d preds",
					f.Name, b, v, len(v.Args), len(b.Preds))
			}

			if v.Op == OpCall {
				callee, ok := v.Aux.(*Func)
				if !ok || callee == nil {
					add("func %s, %s, %s: call without callee", f.Name, b, v)
				}
			}
		}

		// Terminator checks.
		switch b.Kind {
		case BlockPlain:
			if len(b.Succs) != 1 {
				add("func %s, %s: plain block has %d succs, want 1",
					f.Name, b, len(b.Succs))
			}
		case BlockIf:
			if len(b.Controls) != 1 {
				add("func %s, %s: if block has %d controls, want 1",
					f.Name, b, len(b.Controls))
			}
			if len(b.Succs) != 2 {
				add("func %s, %s: if block has %d succs, want 2",
					f.Name, b, len(b.Succs))
			}
		case BlockReturn:
			if len(b.Succs) != 0 {
				add("func %s, %s: return block has %d succs, want 0",
					f.Name, b, len(b.Succs))
			}
		}

		// Succ/Pred symmetry.
		for _, s := range b.Succs {
			if !blockSet[s] {
				add("func %s, %s: successor %s not in function", f.Name, b, s)
				continue
			}
			found := false
			for _, p := range s.Preds {
				if p == b {
					found = true
					break
				}
			}
			if !found {
				add("func %s, %s: successor %s does not list it as pred",
					f.Name, b, s)
			}
		}
	}

	return combineErrors(errs)
}

// VerifyModule verifies every non-placeholder function in the module
// and checks that no placeholder survived deferred resolution.
func VerifyModule(m *Module) error {
	if n := m.NumPlaceholders(); n > 0 {
		return fmt.Errorf("module has %d unresolved placeholder function(s)", n)
	}
	for _, f := range m.Funcs() {
		if err := Verify(f); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "\n"))
}
