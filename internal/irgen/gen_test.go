package irgen

import (
	"strings"
	"testing"

	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/mangle"
	"github.com/you-not-fish/jackal/internal/syntax"
)

// parseClasses parses one class per source string.
func parseClasses(t *testing.T, srcs ...string) []*syntax.ClassDecl {
	t.Helper()
	var classes []*syntax.ClassDecl
	for _, src := range srcs {
		cls, err := syntax.NewParser("test.jack", strings.NewReader(src)).Parse()
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		classes = append(classes, cls)
	}
	return classes
}

// genModule lowers the given classes into a fresh module and resolves
// forward references.
func genModule(t *testing.T, srcs ...string) *ir.Module {
	t.Helper()
	gen := New(ir.NewModule())
	for _, cls := range parseClasses(t, srcs...) {
		gen.Generate(cls)
	}
	gen.Resolve()
	return gen.Module()
}

// findOp returns all values with the given op across the function.
func findOp(f *ir.Func, op ir.Op) []*ir.Value {
	var out []*ir.Value
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.Op == op {
				out = append(out, v)
			}
		}
	}
	return out
}

func TestGenerateStructAndStatics(t *testing.T) {
	mod := genModule(t, `
class Point {
	field int x, y;
	field char tag;
	field boolean live;
	static int count;
	function int zero() { return 0; }
}`)

	st := mod.StructByName("Point")
	if st == nil {
		t.Fatal("Point struct not defined")
	}
	wantFields := []ir.Type{ir.I32, ir.I32, ir.I8, ir.I1}
	if len(st.Fields) != len(wantFields) {
		t.Fatalf("fields: got %d, want %d", len(st.Fields), len(wantFields))
	}
	for i, want := range wantFields {
		if !ir.Equal(st.Fields[i], want) {
			t.Errorf("field %d: got %s, want %s", i, st.Fields[i], want)
		}
	}

	g := mod.GlobalByName(mangle.Name("Point", "count"))
	if g == nil {
		t.Fatal("static count not lowered to a global")
	}
	if !ir.Equal(g.Typ, ir.I32) {
		t.Errorf("static type: got %s, want i32", g.Typ)
	}

	if mod.FuncByName(mangle.Name("Point", "zero")) == nil {
		t.Error("function not emitted under mangled name")
	}
}

func TestClassTypeIsPointerToStruct(t *testing.T) {
	mod := genModule(t, `
class C {
	field C next;
	function int f() { return 0; }
}`)

	st := mod.StructByName("C")
	if st == nil {
		t.Fatal("C struct not defined")
	}
	pt, ok := st.Fields[0].(*ir.PointerType)
	if !ok {
		t.Fatalf("field 0: got %T, want pointer", st.Fields[0])
	}
	if inner, ok := pt.Elem.(*ir.StructType); !ok || inner.TypeName != "C" {
		t.Errorf("field 0 pointee: got %s", pt.Elem)
	}
}

func TestParameterMaterialization(t *testing.T) {
	mod := genModule(t, `
class C {
	function int id(int v) { return v; }
}`)

	f := mod.FuncByName(mangle.Name("C", "id"))
	if f == nil {
		t.Fatal("C.id not found")
	}

	// Each formal parameter is materialized into a stack slot and the
	// body reads it back through a load.
	if got := len(findOp(f, ir.OpArg)); got != 1 {
		t.Errorf("args: got %d, want 1", got)
	}
	if got := len(findOp(f, ir.OpAlloca)); got != 1 {
		t.Errorf("allocas: got %d, want 1", got)
	}
	if got := len(findOp(f, ir.OpLoad)); got != 1 {
		t.Errorf("loads: got %d, want 1", got)
	}
}

func TestConstructorAllocatesInstance(t *testing.T) {
	mod := genModule(t, `
class Point {
	field int x, y;
	constructor Point new(int ax) {
		let x = ax;
		return this;
	}
}`)

	ctor := mod.FuncByName(mangle.Name("Point", "new"))
	if ctor == nil {
		t.Fatal("constructor not found")
	}

	// The entry block allocates the instance struct (two words) plus
	// slots for the parameter and this.
	var instance *ir.Value
	for _, v := range findOp(ctor, ir.OpAlloca) {
		if v.AuxInt == 2 {
			instance = v
		}
	}
	if instance == nil {
		t.Fatal("no two-word instance allocation in constructor")
	}
	pt, ok := instance.Type.(*ir.PointerType)
	if !ok {
		t.Fatalf("instance type: got %s", instance.Type)
	}
	if st, ok := pt.Elem.(*ir.StructType); !ok || st.TypeName != "Point" {
		t.Errorf("instance pointee: got %s", pt.Elem)
	}

	// Field assignment goes through this + field index.
	fps := findOp(ctor, ir.OpFieldPtr)
	if len(fps) != 1 {
		t.Fatalf("field pointers: got %d, want 1", len(fps))
	}
	if fps[0].AuxInt != 0 {
		t.Errorf("field index: got %d, want 0", fps[0].AuxInt)
	}
}

func TestStaticAccessUsesGlobal(t *testing.T) {
	mod := genModule(t, `
class C {
	static int s;
	function int f() {
		let s = 7;
		return s;
	}
}`)

	f := mod.FuncByName(mangle.Name("C", "f"))
	gas := findOp(f, ir.OpGlobalAddr)
	if len(gas) != 2 {
		t.Fatalf("global addresses: got %d, want 2", len(gas))
	}
	for _, ga := range gas {
		g, ok := ga.Aux.(*ir.Global)
		if !ok || g.Name != mangle.Name("C", "s") {
			t.Errorf("global address references %v", ga.Aux)
		}
	}
}

func TestIfLowering(t *testing.T) {
	mod := genModule(t, `
class C {
	function int f(int v) {
		var int x;
		if (v = 0) { let x = 150; } else { let x = 100; }
		return x;
	}
}`)

	f := mod.FuncByName(mangle.Name("C", "f"))

	// The condition is compared for equality to true even though it
	// is already 1-bit: one Eq for v = 0, one for the branch.
	if got := len(findOp(f, ir.OpEq)); got != 2 {
		t.Errorf("eq values: got %d, want 2", got)
	}

	var ifBlocks int
	for _, b := range f.Blocks {
		if b.Kind == ir.BlockIf {
			ifBlocks++
		}
	}
	if ifBlocks != 1 {
		t.Errorf("if blocks: got %d, want 1", ifBlocks)
	}
}

func TestWhileLowering(t *testing.T) {
	mod := genModule(t, `
class C {
	function int f() {
		var int x;
		let x = 100;
		while (x < 150) { let x = x + 1; }
		return x;
	}
}`)

	f := mod.FuncByName(mangle.Name("C", "f"))

	// preheader re-evaluates the condition; the body branches back.
	var preheader *ir.Block
	for _, b := range f.Blocks {
		if b.Name == "preheader" {
			preheader = b
		}
	}
	if preheader == nil {
		t.Fatal("no preheader block")
	}
	if preheader.Kind != ir.BlockIf {
		t.Errorf("preheader kind: got %v, want if", preheader.Kind)
	}
	if preheader.NumPreds() != 2 {
		t.Errorf("preheader preds: got %d, want 2 (entry + back-edge)", preheader.NumPreds())
	}
}

func TestEarlyReturnNormalization(t *testing.T) {
	mod := genModule(t, `
class C {
	function int f(int v) {
		if (v = 0) { return 1; }
		return 2;
	}
	function int g() { return 3; }
}`)

	// Multi-return functions are rewritten into single-return form.
	f := mod.FuncByName(mangle.Name("C", "f"))
	if got := f.NumReturns(); got != 1 {
		t.Errorf("f returns: got %d, want 1", got)
	}

	// Store/branch structure: each original return stores to the slot.
	if got := len(findOp(f, ir.OpStore)); got < 2 {
		t.Errorf("f stores: got %d, want at least 2", got)
	}

	// Single-return functions are left untouched.
	g := mod.FuncByName(mangle.Name("C", "g"))
	if got := g.NumReturns(); got != 1 {
		t.Errorf("g returns: got %d, want 1", got)
	}
	if got := len(g.Blocks); got != 1 {
		t.Errorf("g blocks: got %d, want 1", got)
	}
}

func TestForwardReferenceResolution(t *testing.T) {
	classes := parseClasses(t,
		`class Main { function int main() { return Helper.val(); } }`,
		`class Helper { function int val() { return 42; } }`,
	)

	gen := New(ir.NewModule())
	gen.Generate(classes[0])

	// Before the callee is emitted, the call goes through a
	// placeholder.
	if gen.mod.NumPlaceholders() != 1 {
		t.Fatalf("placeholders after Main: got %d, want 1", gen.mod.NumPlaceholders())
	}

	gen.Generate(classes[1])
	gen.Resolve()
	mod := gen.Module()

	// After full compilation there must remain zero placeholder
	// functions, and the emitted call must reference the resolved
	// function.
	if got := mod.NumPlaceholders(); got != 0 {
		t.Fatalf("placeholders after Resolve: got %d, want 0", got)
	}

	main := mod.FuncByName(mangle.Name("Main", "main"))
	calls := findOp(main, ir.OpCall)
	if len(calls) != 1 {
		t.Fatalf("calls: got %d, want 1", len(calls))
	}
	callee := calls[0].Aux.(*ir.Func)
	if callee != mod.FuncByName(mangle.Name("Helper", "val")) {
		t.Errorf("call references %s, want Helper.val", callee.Name)
	}
}

func TestForwardReferenceReturnTypeCast(t *testing.T) {
	// Main.main calls C.c before C is emitted. The placeholder's
	// return type is inferred as int from the surrounding context;
	// the resolved function returns char, so the replacement must
	// sign-extend at the use site.
	classes := parseClasses(t,
		`class Main { function int main() { return C.c(); } }`,
		`class C { function char c() { return 65; } }`,
	)

	gen := New(ir.NewModule())
	for _, cls := range classes {
		gen.Generate(cls)
	}
	gen.Resolve()
	mod := gen.Module()

	main := mod.FuncByName(mangle.Name("Main", "main"))
	calls := findOp(main, ir.OpCall)
	if len(calls) != 1 {
		t.Fatalf("calls: got %d, want 1", len(calls))
	}
	call := calls[0]
	if !ir.Equal(call.Type, ir.I8) {
		t.Errorf("resolved call type: got %s, want i8", call.Type)
	}

	exts := findOp(main, ir.OpSExt)
	if len(exts) == 0 {
		t.Fatal("no sign-extension inserted at the call site")
	}
	var castOfCall *ir.Value
	for _, e := range exts {
		if len(e.Args) == 1 && e.Args[0] == call {
			castOfCall = e
		}
	}
	if castOfCall == nil {
		t.Fatal("cast does not consume the call result")
	}
	if !ir.Equal(castOfCall.Type, ir.I32) {
		t.Errorf("cast type: got %s, want i32", castOfCall.Type)
	}
}

func TestUnresolvedReferenceIsInternalError(t *testing.T) {
	classes := parseClasses(t,
		`class Main { function int main() { return Ghost.val(); } }`,
	)

	gen := New(ir.NewModule())
	gen.Generate(classes[0])

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Resolve succeeded with a missing reference")
		}
		if _, ok := r.(*InternalError); !ok {
			t.Fatalf("panic value: got %T, want *InternalError", r)
		}
	}()
	gen.Resolve()
}

func TestEmittedFunctionsVerify(t *testing.T) {
	mod := genModule(t, `
class Calc {
	field int acc;
	constructor Calc new() {
		let acc = 0;
		return this;
	}
	method void add(int v) {
		let acc = acc + v;
		return;
	}
	method int total() { return acc; }
	function int run() {
		var Calc c;
		let c = Calc.new();
		do c.add(2);
		do c.add(3);
		return c.total();
	}
}`)

	for _, f := range mod.Funcs() {
		if err := ir.Verify(f); err != nil {
			t.Errorf("Verify(%s) failed:\n%v\nIR:\n%s", f.Name, err, ir.Sprint(f))
		}
	}
}
