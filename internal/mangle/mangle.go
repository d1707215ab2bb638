// Package mangle defines the symbol naming ABI shared between the
// compiler, the built-ins bridge, and the JIT host.
package mangle

// Name combines a class and member name into a unique module-level
// symbol: __<Class>__<Member>. All user and built-in functions, and all
// class statics, are emitted under this pattern. There is no
// overloading: redefining a mangled name is an error, detected by the
// backend when the symbol is installed.
func Name(class, member string) string {
	return "__" + class + "__" + member
}

// Placeholder is the name given to synthesized forward-reference
// placeholder functions. Placeholders never survive to the backend: the
// generator replaces every one of them during deferred resolution.
const Placeholder = "__Unresolved__Function"

// Entry point of a compiled program.
const (
	MainClass = "Main"
	MainFunc  = "main"
)

// Main returns the mangled entry-point symbol __Main__main.
func Main() string {
	return Name(MainClass, MainFunc)
}
