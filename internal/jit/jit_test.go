package jit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/irgen"
	jackrt "github.com/you-not-fish/jackal/internal/runtime"
	"github.com/you-not-fish/jackal/internal/syntax"
)

// compile parses the sources (one class each), registers the
// built-ins, lowers everything into one module, and hands it to a
// fresh engine.
func compile(t *testing.T, input string, srcs ...string) (*Engine, *jackrt.Runtime, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	rt := jackrt.New(strings.NewReader(input), out)

	mod := ir.NewModule()
	jackrt.Register(rt, mod)

	gen := irgen.New(mod)
	for _, src := range srcs {
		cls, err := syntax.NewParser("test.jack", strings.NewReader(src)).Parse()
		if err != nil {
			t.Fatalf("parse error: %v", err)
		}
		rt.AddAST(cls)
		gen.Generate(cls)
	}
	gen.Resolve()
	mod = gen.Module()

	if got := mod.NumPlaceholders(); got != 0 {
		t.Fatalf("unresolved placeholders: %d", got)
	}

	eng := New()
	if err := eng.AddModule(mod); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	return eng, rt, out
}

// runMain compiles and runs __Main__main.
func runMain(t *testing.T, srcs ...string) int32 {
	t.Helper()
	eng, _, _ := compile(t, "", srcs...)
	ret, err := eng.RunMain()
	if err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	return ret
}

// mainWith wraps a function body into a Main class.
func mainWith(body string) string {
	return "class Main { function int main() { " + body + " } }"
}

func TestEvaluation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int32
	}{
		{"add", "return 5 + 15;", 20},
		{"mul", "return 5 * 15;", 75},
		{"sdiv", "return 15 / 4;", 3},
		{"sub", "return 5 - 15;", -10},
		{"neg", "return -10;", -10},
		{"not", "return ~10;", -11},
		{"lt", "return 4 < 15;", 1},
		{"gt", "return 15 > 4;", 1},
		{"lt_false", "return 15 < 4;", 0},
		{"eq", "return 7 = 7;", 1},
		{"and", "return 12 & 10;", 8},
		{"or", "return 12 | 10;", 14},
		{"null_is_zero", "return null;", 0},
		{"paren", "return 2 * (3 + 4);", 14},
		{"left_assoc", "return 1 + 2 * 3;", 9}, // (1 + 2) * 3

		{"var_let", "var int x; let x = 150; return x;", 150},
		{"while", "var int x; let x = 100; while (x < 150) { let x = x + 1; } return x;", 150},
		{"while_never", "var int x; let x = 7; while (x < 0) { let x = 0; } return x;", 7},
		{"if_then", "var int x; if (0 = 0) { let x = 150; } else { let x = 100; } return x;", 150},
		{"if_else", "var int x; if (0 = 1) { let x = 150; } else { let x = 100; } return x;", 100},
		{"if_no_else", "var int x; let x = 3; if (x > 2) { let x = 9; } return x;", 9},
		{"early_return", "var int x; let x = 1; if (x = 1) { return 11; } return 22;", 11},
		{"nested_loops", `
			var int i;
			var int total;
			let i = 0;
			let total = 0;
			while (i < 5) {
				var int j;
				let j = 0;
				while (j < 4) {
					let total = total + 1;
					let j = j + 1;
				}
				let i = i + 1;
			}
			return total;`, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runMain(t, mainWith(tt.body)); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSameClassCalls(t *testing.T) {
	// helper appears after main in source order; the call is linked
	// through deferred resolution.
	got := runMain(t, `
class Main {
	function int main() { return Main.helper() + 1; }
	function int helper() { return 41; }
}`)
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestCrossClassForwardReference(t *testing.T) {
	got := runMain(t,
		`class Main { function int main() { return Later.val() * 2; } }`,
		`class Later { function int val() { return 21; } }`,
	)
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestForwardReferenceWidthCast(t *testing.T) {
	// Main calls a char-returning function before it is emitted; the
	// resolved call is truncated to 8 bits and extended back.
	got := runMain(t, `
class Main {
	function int main() { return Main.c(); }
	function char c() { return 321; }
}`)
	if got != 65 {
		t.Errorf("got %d, want 65 (321 truncated to char)", got)
	}
}

func TestRecursion(t *testing.T) {
	got := runMain(t, `
class Main {
	function int main() { return Main.fact(5); }
	function int fact(int n) {
		if (n < 2) { return 1; }
		return n * Main.fact(n - 1);
	}
}`)
	if got != 120 {
		t.Errorf("got %d, want 120", got)
	}
}

func TestFieldsMethodsConstructor(t *testing.T) {
	got := runMain(t, `
class Main {
	function int main() {
		var Point p;
		let p = Point.new(40, 2);
		do p.bump();
		return p.sum();
	}
}`, `
class Point {
	field int x, y;
	constructor Point new(int ax, int ay) {
		let x = ax;
		let y = ay;
		return this;
	}
	method void bump() {
		let x = x + 1;
		return;
	}
	method int sum() { return x + y - 1; }
}`)
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestSelfMethodCall(t *testing.T) {
	got := runMain(t, `
class Main {
	function int main() {
		var Counter c;
		let c = Counter.new();
		do c.add(40);
		do c.add(2);
		return c.total();
	}
}`, `
class Counter {
	field int n;
	constructor Counter new() {
		let n = 0;
		return this;
	}
	method void add(int v) {
		do set(n + v);
		return;
	}
	method void set(int v) {
		let n = v;
		return;
	}
	method int total() { return n; }
}`)
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestStatics(t *testing.T) {
	got := runMain(t, `
class Main {
	function int main() {
		do Tally.mark();
		do Tally.mark();
		do Tally.mark();
		return Tally.count();
	}
}`, `
class Tally {
	static int n;
	function void mark() {
		let n = n + 1;
		return;
	}
	function int count() { return n; }
}`)
	if got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestRunTwiceSameResult(t *testing.T) {
	eng, _, _ := compile(t, "", mainWith("return 7 * 6;"))
	first, err := eng.RunMain()
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := eng.RunMain()
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("runs differ: %d then %d", first, second)
	}
}

func TestLookupUnknownSymbol(t *testing.T) {
	eng, _, _ := compile(t, "", mainWith("return 0;"))
	if _, err := eng.Lookup("__No__such"); err == nil {
		t.Error("lookup of unknown symbol succeeded")
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	eng, _, _ := compile(t, "", mainWith("var int z; let z = 0; return 1 / z;"))
	if _, err := eng.RunMain(); err == nil {
		t.Error("division by zero did not fail")
	}
}

// ----------------------------------------------------------------------------
// Built-ins

func TestOutputPrintString(t *testing.T) {
	eng, _, out := compile(t, "", mainWith(`do Output.printString("hi"); return 0;`))
	if _, err := eng.RunMain(); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("output: got %q, want %q", out.String(), "hi")
	}
}

func TestOutputPrimitives(t *testing.T) {
	eng, _, out := compile(t, "", mainWith(`
		do Output.printInt(-42);
		do Output.println();
		do Output.printChar(65);
		return 0;`))
	if _, err := eng.RunMain(); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if got := out.String(); got != "-42\nA" {
		t.Errorf("output: got %q, want %q", got, "-42\nA")
	}
}

func TestStringCharRoundTrip(t *testing.T) {
	// Writing through setCharAt and reading through charAt returns
	// the written value. charAt returns char, so the sum is computed at
	// 8 bits: 72 + 105 = 177 wraps to -79.
	got := runMain(t, mainWith(`
		var String s;
		let s = String.new(3);
		do s.setCharAt(0, 72);
		do s.setCharAt(1, 105);
		return s.charAt(0) + s.charAt(1);`))
	if got != -79 {
		t.Errorf("got %d, want -79", got)
	}
}

func TestStringBuiltins(t *testing.T) {
	eng, rt, _ := compile(t, "", mainWith(`
		var String s;
		let s = String.new(0);
		let s = s.appendChar(65);
		let s = s.appendChar(66);
		let s = s.appendChar(67);
		do s.eraseLastChar();
		do Test.inspectStr(s);
		do Test.inspectInt(s.length());
		return s.length();`))
	ret, err := eng.RunMain()
	if err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if ret != 2 {
		t.Errorf("length: got %d, want 2", ret)
	}
	if len(rt.Inspected) != 2 {
		t.Fatalf("inspected: got %d records, want 2", len(rt.Inspected))
	}
	if rt.Inspected[0].Kind != "str" || rt.Inspected[0].Str != "AB" {
		t.Errorf("inspectStr: got %+v, want AB", rt.Inspected[0])
	}
	if rt.Inspected[1].Kind != "int" || rt.Inspected[1].Int != 2 {
		t.Errorf("inspectInt: got %+v, want 2", rt.Inspected[1])
	}
}

func TestStringConstant(t *testing.T) {
	eng, rt, _ := compile(t, "", mainWith(`
		var String s;
		let s = "Jack";
		do Test.inspectStr(s);
		return s.length();`))
	ret, err := eng.RunMain()
	if err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if ret != 4 {
		t.Errorf("length: got %d, want 4", ret)
	}
	if len(rt.Inspected) != 1 || rt.Inspected[0].Str != "Jack" {
		t.Errorf("inspected: got %+v, want Jack", rt.Inspected)
	}
}

func TestArrayBuiltins(t *testing.T) {
	got := runMain(t, mainWith(`
		var Array a;
		var int i;
		let a = Array.new(10);
		let i = 0;
		while (i < 10) {
			let a[i] = i * i;
			let i = i + 1;
		}
		do Array.dispose(a);
		return a[7];`))
	if got != 49 {
		t.Errorf("got %d, want 49", got)
	}
}

func TestKeyboardBuiltins(t *testing.T) {
	eng, rt, out := compile(t, "hello world\n42\n", mainWith(`
		var String line;
		let line = Keyboard.readLine("? ");
		do Test.inspectStr(line);
		return Keyboard.readInt("n: ");`))
	ret, err := eng.RunMain()
	if err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if ret != 42 {
		t.Errorf("readInt: got %d, want 42", ret)
	}
	if len(rt.Inspected) != 1 || rt.Inspected[0].Str != "hello world" {
		t.Errorf("readLine: got %+v, want hello world", rt.Inspected)
	}
	if !strings.Contains(out.String(), "? ") || !strings.Contains(out.String(), "n: ") {
		t.Errorf("prompts not printed: %q", out.String())
	}
}

func TestInspectCharAndBool(t *testing.T) {
	eng, rt, _ := compile(t, "", mainWith(`
		do Test.inspectChar(88);
		do Test.inspectBool(1 < 2);
		return 0;`))
	if _, err := eng.RunMain(); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if len(rt.Inspected) != 2 {
		t.Fatalf("inspected: got %d records, want 2", len(rt.Inspected))
	}
	if rt.Inspected[0].Kind != "char" || rt.Inspected[0].Int != 88 {
		t.Errorf("inspectChar: got %+v", rt.Inspected[0])
	}
	if rt.Inspected[1].Kind != "bool" || rt.Inspected[1].Int != 1 {
		t.Errorf("inspectBool: got %+v", rt.Inspected[1])
	}
}

func TestASTNodeBuiltins(t *testing.T) {
	eng, _, out := compile(t, "", mainWith(`
		do ASTNode.print(ASTNode.getRoot());
		return 0;`))
	if _, err := eng.RunMain(); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if !strings.Contains(out.String(), "ClassDecl Main") {
		t.Errorf("AST dump missing class:\n%s", out.String())
	}
}
