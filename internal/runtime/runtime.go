// Package runtime implements the host side of compiled Jack programs:
// the runtime context (streams, AST roots, host object tables) and the
// bridge that exposes host functions to compiled code as IR wrapper
// functions.
package runtime

import (
	"bufio"
	"fmt"
	"io"

	"github.com/you-not-fish/jackal/internal/syntax"
)

// Inspect is one value captured by the Test built-ins, for test
// harness marshalling.
type Inspect struct {
	Kind string // "str", "int", "char", "bool"
	Str  string
	Int  int64
}

// Runtime is the context object handed to the built-ins bridge. Host
// functions reach runtime-owned resources (the compiled ASTs and the
// input/output streams) through it; no module-level mutable state is
// involved.
type Runtime struct {
	in  *bufio.Reader
	out io.Writer

	asts []*syntax.ClassDecl

	// Host object tables. Handles are opaque words to compiled code;
	// they share the word type with engine addresses but live in a
	// separate namespace that only host functions dereference.
	strings    map[int64][]byte
	nodes      map[int64]syntax.Node
	nextHandle int64

	// Inspected records the values captured by Test.inspect*.
	Inspected []Inspect
}

// New creates a runtime reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Runtime {
	return &Runtime{
		in:         bufio.NewReader(in),
		out:        out,
		strings:    make(map[int64][]byte),
		nodes:      make(map[int64]syntax.Node),
		nextHandle: 1,
	}
}

// Out returns the runtime's output stream.
func (rt *Runtime) Out() io.Writer { return rt.out }

// AddAST appends a compiled class to the runtime's AST list.
func (rt *Runtime) AddAST(cls *syntax.ClassDecl) {
	rt.asts = append(rt.asts, cls)
}

// ----------------------------------------------------------------------------
// String objects

// newString allocates a host string object and returns its handle.
func (rt *Runtime) newString(capacity int64) int64 {
	h := rt.nextHandle
	rt.nextHandle++
	if capacity < 0 {
		capacity = 0
	}
	rt.strings[h] = make([]byte, 0, capacity)
	return h
}

// str returns the bytes of the string object behind handle h.
func (rt *Runtime) str(h int64) []byte {
	return rt.strings[h]
}

func (rt *Runtime) setStr(h int64, b []byte) {
	rt.strings[h] = b
}

func (rt *Runtime) disposeString(h int64) {
	delete(rt.strings, h)
}

// ----------------------------------------------------------------------------
// AST node objects

// rootHandle returns a handle to the first compiled AST, or 0 when no
// AST has been registered.
func (rt *Runtime) rootHandle() int64 {
	if len(rt.asts) == 0 {
		return 0
	}
	h := rt.nextHandle
	rt.nextHandle++
	rt.nodes[h] = rt.asts[0]
	return h
}

// printNode pretty-prints the AST node behind handle h to the output
// stream.
func (rt *Runtime) printNode(h int64) {
	n, ok := rt.nodes[h]
	if !ok {
		return
	}
	syntax.Fprint(rt.out, n)
}

// ----------------------------------------------------------------------------
// Keyboard

// readLine prints the prompt and reads one line of input.
func (rt *Runtime) readLine(prompt []byte) []byte {
	rt.out.Write(prompt)
	line, err := rt.in.ReadString('\n')
	if err != nil && line == "" {
		return nil
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return []byte(line)
}

// readInt prints the prompt and reads a decimal integer.
func (rt *Runtime) readInt(prompt []byte) int64 {
	rt.out.Write(prompt)
	var v int64
	fmt.Fscan(rt.in, &v)
	return v
}
