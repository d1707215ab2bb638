package runtime

import (
	"fmt"

	"github.com/you-not-fish/jackal/internal/ir"
)

// Register emits wrapper functions for all host-implemented classes
// (Array, String, Output, Keyboard, ASTNode, Test) into the module.
// Built-ins must be registered before user code is lowered so that
// calls to them resolve directly.
func Register(rt *Runtime, mod *ir.Module) {
	registerTest(rt, mod)
	registerArray(mod)
	registerString(rt, mod)
	registerOutput(rt, mod)
	registerAST(rt, mod)
	registerKeyboard(rt, mod)
}

// strHandle loads the host string handle out of a String struct.
func strHandle(mem ir.Memory, strPtr int64) int64 {
	if strPtr == 0 {
		return 0
	}
	return mem.Load(strPtr)
}

// newStringStruct allocates a String struct holding the given handle
// and returns its address.
func newStringStruct(mem ir.Memory, handle int64) int64 {
	p := mem.Alloc(1)
	mem.Store(p, handle)
	return p
}

func registerArray(mod *ir.Module) {
	r := NewRegistrar(mod, "Array")

	r.AddFunc("new", []string{"int"}, "Array",
		func(mem ir.Memory, args []int64) int64 {
			size := args[0]
			if size < 1 {
				size = 1
			}
			data := mem.Alloc(size)
			p := mem.Alloc(1)
			mem.Store(p, data)
			return p
		})

	r.AddFunc("dispose", []string{"Array"}, "void",
		func(mem ir.Memory, args []int64) int64 {
			// Element storage lives in the engine arena for the
			// duration of the run.
			return 0
		})
}

func registerString(rt *Runtime, mod *ir.Module) {
	r := NewRegistrar(mod, "String")

	r.AddRuntimeFunc(rt, "new", []string{"int"}, "String",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			return newStringStruct(mem, rt.newString(args[0]))
		})

	r.AddRuntimeFunc(rt, "dispose", []string{"String"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.disposeString(strHandle(mem, args[0]))
			return 0
		})

	r.AddRuntimeFunc(rt, "length", []string{"String"}, "int",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			return int64(len(rt.str(strHandle(mem, args[0]))))
		})

	r.AddRuntimeFunc(rt, "charAt", []string{"String", "int"}, "char",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			b := rt.str(strHandle(mem, args[0]))
			idx := args[1]
			if idx < 0 || idx >= int64(len(b)) {
				return 0
			}
			return int64(b[idx])
		})

	r.AddRuntimeFunc(rt, "setCharAt", []string{"String", "int", "char"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			h := strHandle(mem, args[0])
			b := rt.str(h)
			idx := args[1]
			if idx < 0 {
				return 0
			}
			for int64(len(b)) <= idx {
				b = append(b, 0)
			}
			b[idx] = byte(args[2])
			rt.setStr(h, b)
			return 0
		})

	r.AddRuntimeFunc(rt, "appendChar", []string{"String", "char"}, "String",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			h := strHandle(mem, args[0])
			rt.setStr(h, append(rt.str(h), byte(args[1])))
			return args[0]
		})

	r.AddRuntimeFunc(rt, "eraseLastChar", []string{"String"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			h := strHandle(mem, args[0])
			b := rt.str(h)
			if len(b) > 0 {
				rt.setStr(h, b[:len(b)-1])
			}
			return 0
		})

	r.AddRuntimeFunc(rt, "ptrtostr", []string{"char*"}, "String",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			h := rt.newString(0)
			var b []byte
			for addr := args[0]; ; addr++ {
				w := mem.Load(addr)
				if w == 0 {
					break
				}
				b = append(b, byte(w))
			}
			rt.setStr(h, b)
			return newStringStruct(mem, h)
		})
}

func registerOutput(rt *Runtime, mod *ir.Module) {
	r := NewRegistrar(mod, "Output")

	r.AddRuntimeFunc(rt, "printChar", []string{"char"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.out.Write([]byte{byte(args[0])})
			return 0
		})

	r.AddRuntimeFunc(rt, "printString", []string{"String"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.out.Write(rt.str(strHandle(mem, args[0])))
			return 0
		})

	r.AddRuntimeFunc(rt, "printInt", []string{"int"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			fmt.Fprintf(rt.out, "%d", int32(args[0]))
			return 0
		})

	r.AddRuntimeFunc(rt, "println", nil, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.out.Write([]byte{'\n'})
			return 0
		})
}

func registerKeyboard(rt *Runtime, mod *ir.Module) {
	r := NewRegistrar(mod, "Keyboard")

	r.AddRuntimeFunc(rt, "readLine", []string{"String"}, "String",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			line := rt.readLine(rt.str(strHandle(mem, args[0])))
			h := rt.newString(int64(len(line)))
			rt.setStr(h, line)
			return newStringStruct(mem, h)
		})

	r.AddRuntimeFunc(rt, "readInt", []string{"String"}, "int",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			return rt.readInt(rt.str(strHandle(mem, args[0])))
		})
}

func registerAST(rt *Runtime, mod *ir.Module) {
	r := NewRegistrar(mod, "ASTNode")

	r.AddRuntimeFunc(rt, "getRoot", nil, "ASTNode",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			h := rt.rootHandle()
			p := mem.Alloc(1)
			mem.Store(p, h)
			return p
		})

	r.AddRuntimeFunc(rt, "print", []string{"ASTNode"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			if args[0] != 0 {
				rt.printNode(mem.Load(args[0]))
			}
			return 0
		})
}

func registerTest(rt *Runtime, mod *ir.Module) {
	r := NewRegistrar(mod, "Test")

	r.AddRuntimeFunc(rt, "inspectStr", []string{"String"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.Inspected = append(rt.Inspected, Inspect{
				Kind: "str",
				Str:  string(rt.str(strHandle(mem, args[0]))),
			})
			return 0
		})

	r.AddRuntimeFunc(rt, "inspectInt", []string{"int"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.Inspected = append(rt.Inspected, Inspect{Kind: "int", Int: args[0]})
			return 0
		})

	r.AddRuntimeFunc(rt, "inspectChar", []string{"char"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.Inspected = append(rt.Inspected, Inspect{Kind: "char", Int: args[0]})
			return 0
		})

	r.AddRuntimeFunc(rt, "inspectBool", []string{"boolean"}, "void",
		func(rt *Runtime, mem ir.Memory, args []int64) int64 {
			rt.Inspected = append(rt.Inspected, Inspect{Kind: "bool", Int: args[0]})
			return 0
		})
}
