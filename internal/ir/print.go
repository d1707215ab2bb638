package ir

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Fprint writes the IR representation of a function to w.
//
// Format:
//
//	func __Main__main() i32:
//	  b0(entry):
//	    v0 = Const <i32> [5]
//	    v1 = Const <i32> [15]
//	    v2 = Add <i32> v0 v1
//	    Return v2
func Fprint(w io.Writer, f *Func) {
	fmt.Fprintf(w, "func %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			fmt.Fprintf(w, ", ")
		}
		fmt.Fprintf(w, "%s %s", p.Name, p.Typ)
	}
	fmt.Fprintf(w, ")")
	if f.Ret != nil && !IsVoid(f.Ret) {
		fmt.Fprintf(w, " %s", f.Ret)
	}
	if f.Placeholder {
		fmt.Fprintf(w, " <placeholder>")
	}
	fmt.Fprintf(w, ":\n")

	for _, b := range f.Blocks {
		fprintBlock(w, b, f)
	}
}

// fprintBlock writes a single block to w.
func fprintBlock(w io.Writer, b *Block, f *Func) {
	predsStr := ""
	if len(b.Preds) > 0 {
		preds := make([]string, len(b.Preds))
		for i, p := range b.Preds {
			preds[i] = p.String()
		}
		predsStr = " <- " + strings.Join(preds, " ")
	}

	fmt.Fprintf(w, "  %s:%s\n", b, predsStr)

	for _, v := range b.Values {
		fmt.Fprintf(w, "    %s\n", formatValue(v))
	}

	fmt.Fprintf(w, "    %s\n", formatTerminator(b))
}

// formatValue formats a value as a string.
func formatValue(v *Value) string {
	var sb strings.Builder

	if v.Op.IsVoid() {
		sb.WriteString(v.Op.String())
	} else {
		fmt.Fprintf(&sb, "v%d = %s", v.ID, v.Op)
	}

	if v.Type != nil && !IsVoid(v.Type) {
		fmt.Fprintf(&sb, " <%s>", v.Type)
	}

	switch v.Op {
	case OpConst, OpFieldPtr, OpAlloca, OpArg:
		fmt.Fprintf(&sb, " [%d]", v.AuxInt)
	default:
		if v.AuxInt != 0 {
			fmt.Fprintf(&sb, " [%d]", v.AuxInt)
		}
	}

	if v.Aux != nil {
		fmt.Fprintf(&sb, " {%s}", formatAux(v.Aux))
	}

	for _, arg := range v.Args {
		fmt.Fprintf(&sb, " v%d", arg.ID)
	}

	return sb.String()
}

// formatTerminator formats a block terminator.
func formatTerminator(b *Block) string {
	switch b.Kind {
	case BlockPlain:
		if len(b.Succs) > 0 {
			return fmt.Sprintf("Plain -> %s", b.Succs[0])
		}
		return "Plain"
	case BlockIf:
		if len(b.Controls) > 0 && len(b.Succs) >= 2 {
			return fmt.Sprintf("If v%d -> %s %s", b.Controls[0].ID, b.Succs[0], b.Succs[1])
		}
		return "If (malformed)"
	case BlockReturn:
		if len(b.Controls) > 0 && b.Controls[0] != nil {
			return fmt.Sprintf("Return v%d", b.Controls[0].ID)
		}
		return "Return"
	default:
		return "???"
	}
}

// Sprint returns the IR representation of a function as a string.
func Sprint(f *Func) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}

// Print writes the IR representation of a function to stdout.
func Print(f *Func) {
	Fprint(os.Stdout, f)
}

// FprintModule writes the whole module to w: struct types, globals,
// then functions in definition order (placeholders last).
func FprintModule(w io.Writer, m *Module) {
	for _, name := range m.Structs() {
		st := m.StructByName(name)
		fmt.Fprintf(w, "type %%%s = {", name)
		if st.Opaque {
			fmt.Fprintf(w, " opaque ")
		} else {
			for i, f := range st.Fields {
				if i > 0 {
					fmt.Fprintf(w, ", ")
				}
				fmt.Fprintf(w, "%s", f)
			}
		}
		fmt.Fprintf(w, "}\n")
	}

	for _, name := range m.Globals() {
		g := m.GlobalByName(name)
		if g.Str != "" || strings.HasPrefix(g.Name, ".str.") {
			fmt.Fprintf(w, "global @%s = c%q\n", g.Name, g.Str)
		} else {
			fmt.Fprintf(w, "global @%s %s\n", g.Name, g.Typ)
		}
	}

	for _, f := range m.AllFuncs() {
		fmt.Fprintln(w)
		Fprint(w, f)
	}
}

// SprintModule returns the module representation as a string.
func SprintModule(m *Module) string {
	var sb strings.Builder
	FprintModule(&sb, m)
	return sb.String()
}
