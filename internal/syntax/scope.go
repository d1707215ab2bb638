package syntax

import (
	"fmt"
	"sort"
	"strings"
)

// Table is a symbol table for a single scope: a mapping from name to
// the VarDecl that introduced it, plus the name of the owning scope.
// Tables do not chain; consumers check the subroutine scope and then
// the class scope (only these two levels exist in Jack).
type Table struct {
	owner string
	elems map[string]*VarDecl
}

// NewTable creates an empty table owned by the named scope.
func NewTable(owner string) *Table {
	return &Table{
		owner: owner,
		elems: make(map[string]*VarDecl),
	}
}

// Owner returns the name of the owning scope.
func (t *Table) Owner() string {
	return t.owner
}

// Insert adds a declaration to the table. It reports whether the name
// was new; an existing binding is left intact.
func (t *Table) Insert(d *VarDecl) bool {
	if _, ok := t.elems[d.VarName]; ok {
		return false
	}
	t.elems[d.VarName] = d
	return true
}

// Lookup returns the declaration bound to name in this table, or nil.
func (t *Table) Lookup(name string) *VarDecl {
	return t.elems[name]
}

// Names returns the declared names, sorted for deterministic output.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.elems))
	for name := range t.elems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumObjects returns the number of declarations in the table.
func (t *Table) NumObjects() int {
	return len(t.elems)
}

// String returns a string representation of the table for debugging.
func (t *Table) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scope %s {\n", t.owner)
	for _, name := range t.Names() {
		fmt.Fprintf(&buf, "  %s: %s\n", name, t.elems[name].TypeName)
	}
	buf.WriteString("}\n")
	return buf.String()
}
