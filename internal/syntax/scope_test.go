package syntax

import "testing"

func TestTableInsertLookup(t *testing.T) {
	tab := NewTable("f")

	x := NewVarDecl(Pos{}, "x", "int")
	if !tab.Insert(x) {
		t.Fatal("first insert returned false")
	}
	if got := tab.Lookup("x"); got != x {
		t.Fatalf("lookup: got %v, want %v", got, x)
	}
	if tab.Lookup("y") != nil {
		t.Error("lookup of undeclared name returned non-nil")
	}
}

func TestTableDuplicateInsert(t *testing.T) {
	tab := NewTable("f")

	first := NewVarDecl(Pos{}, "x", "int")
	second := NewVarDecl(Pos{}, "x", "boolean")

	if !tab.Insert(first) {
		t.Fatal("first insert returned false")
	}
	// Inserting a duplicate name returns false and leaves the first
	// binding intact.
	if tab.Insert(second) {
		t.Error("duplicate insert returned true")
	}
	if got := tab.Lookup("x"); got != first {
		t.Errorf("lookup after duplicate insert: got %v, want first binding", got)
	}
}

func TestTableNames(t *testing.T) {
	tab := NewTable("C")
	for _, name := range []string{"c", "a", "b"} {
		tab.Insert(NewVarDecl(Pos{}, name, "int"))
	}

	names := tab.Names()
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
	if tab.NumObjects() != 3 {
		t.Errorf("NumObjects: got %d, want 3", tab.NumObjects())
	}
	if tab.Owner() != "C" {
		t.Errorf("Owner: got %q, want C", tab.Owner())
	}
}
