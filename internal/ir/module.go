package ir

import (
	"fmt"
	"strconv"
)

// Global is a module-level variable: a class static (one slot of its
// declared type) or an anonymous C-string literal backing a StrConst.
type Global struct {
	Name string
	Typ  Type   // slot type; for strings, I8
	Str  string // literal bytes for string globals
}

// Memory is the view of the execution engine's memory exposed to host
// functions. Addresses are word indices; address 0 is never allocated
// and acts as the null pointer.
type Memory interface {
	// Alloc reserves n words and returns the address of the first.
	Alloc(n int64) int64
	// Load returns the word at addr.
	Load(addr int64) int64
	// Store writes the word at addr.
	Store(addr, val int64)
}

// HostFunc is a host-implemented function embedded in the body of a
// built-in wrapper. The wrapper's single call is an indirect call
// through this embedded literal; the optional runtime context travels
// inside the closure rather than in thread-local storage.
type HostFunc struct {
	Name   string // mangled wrapper name, for diagnostics
	Params []Type
	Ret    Type // Void for none
	Fn     func(mem Memory, args []int64) int64
}

// Module is the unit handed to the backend host: named struct types,
// globals, and functions. It is exclusively owned by the IR generator
// until codegen returns, then transferred to the host.
type Module struct {
	structs     map[string]*StructType
	structOrder []string

	globals     map[string]*Global
	globalOrder []string

	funcs     map[string]*Func
	funcOrder []string

	// placeholders are synthesized forward-reference functions. They
	// share one name, so they live outside the name table.
	placeholders []*Func

	nstr int // string literal counter
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{
		structs: make(map[string]*StructType),
		globals: make(map[string]*Global),
		funcs:   make(map[string]*Func),
	}
}

// ----------------------------------------------------------------------------
// Struct types

// StructByName returns the named struct type, or nil.
func (m *Module) StructByName(name string) *StructType {
	return m.structs[name]
}

// DefineStruct creates (or returns the existing) named struct type with
// the given field layout. An existing opaque struct is completed if a
// layout is now known.
func (m *Module) DefineStruct(name string, fields []Type) *StructType {
	if st, ok := m.structs[name]; ok {
		if st.Opaque && fields != nil {
			st.Fields = fields
			st.Opaque = false
		}
		return st
	}
	st := &StructType{TypeName: name, Fields: fields, Opaque: fields == nil}
	m.structs[name] = st
	m.structOrder = append(m.structOrder, name)
	return st
}

// OpaqueStruct returns the named struct type, creating it opaquely on
// first sight.
func (m *Module) OpaqueStruct(name string) *StructType {
	if st, ok := m.structs[name]; ok {
		return st
	}
	return m.DefineStruct(name, nil)
}

// Structs returns the defined struct names in definition order.
func (m *Module) Structs() []string {
	return m.structOrder
}

// ----------------------------------------------------------------------------
// Globals

// GlobalByName returns the named global, or nil.
func (m *Module) GlobalByName(name string) *Global {
	return m.globals[name]
}

// AddGlobal defines a module global of the given slot type. Defining an
// existing name returns the existing global unchanged.
func (m *Module) AddGlobal(name string, typ Type) *Global {
	if g, ok := m.globals[name]; ok {
		return g
	}
	g := &Global{Name: name, Typ: typ}
	m.globals[name] = g
	m.globalOrder = append(m.globalOrder, name)
	return g
}

// AddStringGlobal emits a C-string literal as an anonymous global and
// returns it.
func (m *Module) AddStringGlobal(s string) *Global {
	name := ".str." + strconv.Itoa(m.nstr)
	m.nstr++
	g := &Global{Name: name, Typ: I8, Str: s}
	m.globals[name] = g
	m.globalOrder = append(m.globalOrder, name)
	return g
}

// Globals returns the global names in definition order.
func (m *Module) Globals() []string {
	return m.globalOrder
}

// ----------------------------------------------------------------------------
// Functions

// FuncByName returns the function with the given mangled name, or nil.
// Placeholders are not reachable by name.
func (m *Module) FuncByName(name string) *Func {
	return m.funcs[name]
}

// AddFunc installs a function under its name. Redefining a mangled
// name is an error: there is no overloading.
func (m *Module) AddFunc(f *Func) error {
	if f.Placeholder {
		m.placeholders = append(m.placeholders, f)
		return nil
	}
	if _, ok := m.funcs[f.Name]; ok {
		return fmt.Errorf("redefinition of %s", f.Name)
	}
	m.funcs[f.Name] = f
	m.funcOrder = append(m.funcOrder, f.Name)
	return nil
}

// RemovePlaceholder deletes a resolved placeholder from the module.
func (m *Module) RemovePlaceholder(f *Func) {
	for i, p := range m.placeholders {
		if p == f {
			m.placeholders = append(m.placeholders[:i], m.placeholders[i+1:]...)
			return
		}
	}
}

// NumPlaceholders returns the number of unresolved placeholders still
// present in the module.
func (m *Module) NumPlaceholders() int {
	return len(m.placeholders)
}

// Funcs returns all named functions in definition order.
func (m *Module) Funcs() []*Func {
	out := make([]*Func, 0, len(m.funcOrder))
	for _, name := range m.funcOrder {
		out = append(out, m.funcs[name])
	}
	return out
}

// AllFuncs returns named functions followed by any live placeholders.
func (m *Module) AllFuncs() []*Func {
	return append(m.Funcs(), m.placeholders...)
}
