package ir

import (
	"strings"
	"testing"
)

func TestModuleStructs(t *testing.T) {
	m := NewModule()

	// Created opaquely on first sight, completed on definition.
	st := m.OpaqueStruct("Point")
	if !st.Opaque {
		t.Error("first-sight struct is not opaque")
	}

	def := m.DefineStruct("Point", []Type{I32, I32})
	if def != st {
		t.Error("definition created a second struct type")
	}
	if st.Opaque || st.NumFields() != 2 {
		t.Errorf("completed struct: opaque=%t fields=%d", st.Opaque, st.NumFields())
	}

	// Redefinition returns the existing layout unchanged.
	again := m.DefineStruct("Point", []Type{I8})
	if again != st || st.NumFields() != 2 {
		t.Error("redefinition altered the struct")
	}
}

func TestModuleFuncRedefinition(t *testing.T) {
	m := NewModule()

	if err := m.AddFunc(NewFunc("__C__f", nil, Void)); err != nil {
		t.Fatalf("first definition: %v", err)
	}
	// No overloading: redefining a mangled name is an error.
	if err := m.AddFunc(NewFunc("__C__f", nil, Void)); err == nil {
		t.Fatal("redefinition accepted")
	}
}

func TestModulePlaceholders(t *testing.T) {
	m := NewModule()

	ph := NewFunc("__Unresolved__Function", nil, I32)
	ph.Placeholder = true
	ph2 := NewFunc("__Unresolved__Function", nil, I32)
	ph2.Placeholder = true

	// Placeholders share a name and live outside the name table.
	if err := m.AddFunc(ph); err != nil {
		t.Fatalf("placeholder rejected: %v", err)
	}
	if err := m.AddFunc(ph2); err != nil {
		t.Fatalf("second placeholder rejected: %v", err)
	}
	if m.FuncByName("__Unresolved__Function") != nil {
		t.Error("placeholder reachable by name")
	}
	if m.NumPlaceholders() != 2 {
		t.Errorf("placeholders: got %d, want 2", m.NumPlaceholders())
	}

	m.RemovePlaceholder(ph)
	if m.NumPlaceholders() != 1 {
		t.Errorf("after removal: got %d, want 1", m.NumPlaceholders())
	}

	// VerifyModule rejects a module with surviving placeholders.
	if err := VerifyModule(m); err == nil {
		t.Error("VerifyModule accepted unresolved placeholder")
	}
}

func TestReplaceUses(t *testing.T) {
	f := NewFunc("f", nil, I32)
	b := f.Entry

	a := f.NewValue(b, OpConst, I32)
	a.AuxInt = 1
	c := f.NewValue(b, OpConst, I32)
	c.AuxInt = 2
	sum := f.NewValue(b, OpAdd, I32, a, a)
	b.Kind = BlockReturn
	b.SetControl(sum)

	f.ReplaceUses(a, c)

	if sum.Args[0] != c || sum.Args[1] != c {
		t.Error("args not replaced")
	}
	if a.Uses != 0 {
		t.Errorf("old uses: got %d, want 0", a.Uses)
	}

	f.ReplaceUses(sum, c)
	if b.Controls[0] != c {
		t.Error("control not replaced")
	}
}

func TestNewValueAfter(t *testing.T) {
	f := NewFunc("f", nil, I32)
	b := f.Entry

	a := f.NewValue(b, OpConst, I8)
	a.AuxInt = 65
	tail := f.NewValue(b, OpConst, I32)
	tail.AuxInt = 0

	ext := f.NewValueAfter(a, OpSExt, I32, a)

	if b.Values[1] != ext {
		t.Errorf("cast not inserted after its operand: %v", b.Values)
	}
	if b.Values[2] != tail {
		t.Error("tail value displaced")
	}
}

func TestVerifyCatchesMalformedBlocks(t *testing.T) {
	f := NewFunc("f", nil, Void)
	// Entry is plain with no successor and no return.
	if err := Verify(f); err == nil {
		t.Error("plain block without successor accepted")
	}

	f2 := NewFunc("g", nil, Void)
	f2.Entry.Kind = BlockReturn
	if err := Verify(f2); err != nil {
		t.Errorf("valid void function rejected: %v", err)
	}
}

func TestPrintModule(t *testing.T) {
	m := NewModule()
	m.DefineStruct("String", []Type{NewPointer(I32)})
	m.AddGlobal("__C__s", I32)
	m.AddStringGlobal("hi")

	f := NewFunc("__C__f", []Param{{Name: "v", Typ: I32}}, I32)
	arg := f.NewValue(f.Entry, OpArg, I32)
	arg.Aux = "v"
	f.Entry.Kind = BlockReturn
	f.Entry.SetControl(arg)
	m.AddFunc(f)

	out := SprintModule(m)
	for _, want := range []string{"%String", "@__C__s", ".str.0", "func __C__f", "Return v0"} {
		if !strings.Contains(out, want) {
			t.Errorf("module dump missing %q:\n%s", want, out)
		}
	}

	// Stable textual representation.
	if out != SprintModule(m) {
		t.Error("module dump is not stable")
	}
}
