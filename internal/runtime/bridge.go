package runtime

import (
	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/mangle"
)

// Registrar emits IR wrapper functions for one built-in class. Each
// wrapper carries the mangled name __<Class>__<Name>, mirrors the host
// function's parameters, and contains a single indirect call through
// the embedded host function. Class types registered here are named
// structs whose body is the host implementation pointer; user code
// treats them opaquely but can address field zero.
type Registrar struct {
	mod   *ir.Module
	class string
}

// NewRegistrar creates a registrar for the named built-in class and
// defines its marshalling struct type in the module.
func NewRegistrar(mod *ir.Module, class string) *Registrar {
	mod.DefineStruct(class, []ir.Type{ir.NewPointer(ir.I32)})
	return &Registrar{mod: mod, class: class}
}

// typeByName maps a Jack-visible type name to the IR type used in
// wrapper signatures. Host pointer types map to a pointer to the
// mapped pointee.
func (r *Registrar) typeByName(name string) ir.Type {
	switch name {
	case "int":
		return ir.I32
	case "char":
		return ir.I8
	case "boolean":
		return ir.I1
	case "void":
		return ir.Void
	case "char*":
		return ir.NewPointer(ir.I8)
	default:
		return ir.NewPointer(r.mod.OpaqueStruct(name))
	}
}

// AddFunc emits the wrapper for a context-free host function. Param
// and ret name Jack-visible types ("int", "char", "boolean", "void",
// "char*", or a class name).
func (r *Registrar) AddFunc(name string, params []string, ret string, fn func(mem ir.Memory, args []int64) int64) *ir.Func {
	return r.add(name, params, ret, fn)
}

// AddRuntimeFunc emits the wrapper for a host function that needs the
// runtime context. The context pointer is embedded in the call target
// itself, so host functions reach runtime-owned resources without
// thread-local storage.
func (r *Registrar) AddRuntimeFunc(rt *Runtime, name string, params []string, ret string, fn func(rt *Runtime, mem ir.Memory, args []int64) int64) *ir.Func {
	return r.add(name, params, ret, func(mem ir.Memory, args []int64) int64 {
		return fn(rt, mem, args)
	})
}

// add builds the wrapper function: an entry block that materializes
// each formal parameter into a stack slot and immediately reloads it
// (forcing a well-defined calling convention), then the single
// indirect call through the embedded host function, then the return.
func (r *Registrar) add(name string, params []string, ret string, fn func(mem ir.Memory, args []int64) int64) *ir.Func {
	mangled := mangle.Name(r.class, name)

	irParams := make([]ir.Param, len(params))
	hostParams := make([]ir.Type, len(params))
	for i, p := range params {
		t := r.typeByName(p)
		irParams[i] = ir.Param{Typ: t}
		hostParams[i] = t
	}
	retTy := r.typeByName(ret)

	w := ir.NewFunc(mangled, irParams, retTy)
	entry := w.Entry

	forwarded := make([]*ir.Value, len(irParams))
	for i, p := range irParams {
		arg := w.NewValue(entry, ir.OpArg, p.Typ)
		arg.AuxInt = int64(i)

		slot := w.NewValue(entry, ir.OpAlloca, ir.NewPointer(p.Typ))
		slot.AuxInt = 1
		w.NewValue(entry, ir.OpStore, nil, slot, arg)
		forwarded[i] = w.NewValue(entry, ir.OpLoad, p.Typ, slot)
	}

	call := w.NewValue(entry, ir.OpHostCall, retTy, forwarded...)
	call.Aux = &ir.HostFunc{
		Name:   mangled,
		Params: hostParams,
		Ret:    retTy,
		Fn:     fn,
	}

	entry.Kind = ir.BlockReturn
	if !ir.IsVoid(retTy) {
		entry.SetControl(call)
	}

	if err := r.mod.AddFunc(w); err != nil {
		// Built-ins are registered exactly once per module; a clash
		// means the module already carries a user symbol of this name.
		panic(err)
	}
	return w
}
