// Package jit implements the backend host: it accepts a compiled IR
// module, runs the host pass pipeline, and exposes a symbol-to-callable
// lookup over the module's functions.
package jit

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/ir/passes"
	"github.com/you-not-fish/jackal/internal/mangle"
)

var log = commonlog.GetLogger("jackal.jit")

// Callable is a compiled function ready to be invoked by the host.
type Callable func(args ...int64) (int64, error)

// Engine owns a compiled module and the memory of the running program.
// It is single-goroutine: the compile pipeline hands the module over,
// then calls through Lookup on the same goroutine.
type Engine struct {
	mod *ir.Module

	// mem is the word-addressed arena. Address 0 is reserved as the
	// null pointer.
	mem []int64

	globalAddr map[*ir.Global]int64

	passCfg passes.Config
}

// New creates an engine with an empty memory arena.
func New() *Engine {
	return &Engine{
		mem:        make([]int64, 1), // slot 0 reserved
		globalAddr: make(map[*ir.Global]int64),
	}
}

// SetPassConfig configures pass dump/verify plumbing before AddModule.
func (e *Engine) SetPassConfig(cfg passes.Config) {
	e.passCfg = cfg
}

// AddModule transfers ownership of a compiled module to the engine.
// The module is verified (any surviving forward-reference placeholder
// is rejected), the host pass pipeline — a single mem-to-register
// pass — is run over every function, and storage for module globals is
// allocated.
func (e *Engine) AddModule(mod *ir.Module) error {
	if e.mod != nil {
		return fmt.Errorf("engine already holds a module")
	}
	if err := ir.VerifyModule(mod); err != nil {
		return fmt.Errorf("invalid module: %w", err)
	}

	pipeline := passes.Default()
	for _, f := range mod.Funcs() {
		if err := passes.Run(f, pipeline, e.passCfg); err != nil {
			return fmt.Errorf("pass pipeline failed for %s: %w", f.Name, err)
		}
	}

	for _, name := range mod.Globals() {
		g := mod.GlobalByName(name)
		e.globalAddr[g] = e.allocGlobal(g)
	}

	e.mod = mod
	log.Debugf("module accepted: %d functions, %d globals",
		len(mod.Funcs()), len(mod.Globals()))
	return nil
}

// allocGlobal reserves arena storage for a module global. String
// literal globals are laid out one byte per word, NUL-terminated.
func (e *Engine) allocGlobal(g *ir.Global) int64 {
	if isStrName(g.Name) {
		addr := e.Alloc(int64(len(g.Str)) + 1)
		for i := 0; i < len(g.Str); i++ {
			e.Store(addr+int64(i), int64(g.Str[i]))
		}
		return addr
	}
	return e.Alloc(1)
}

func isStrName(name string) bool {
	return len(name) > 5 && name[:5] == ".str."
}

// Lookup returns a callable for the mangled symbol, or an error if the
// module does not define it.
func (e *Engine) Lookup(symbol string) (Callable, error) {
	if e.mod == nil {
		return nil, fmt.Errorf("no module loaded")
	}
	f := e.mod.FuncByName(symbol)
	if f == nil {
		return nil, fmt.Errorf("undefined symbol %s", symbol)
	}
	return func(args ...int64) (int64, error) {
		return e.call(f, args)
	}, nil
}

// RunMain looks up the program entry point __Main__main and calls it
// with no arguments. The result is the program's int return value.
func (e *Engine) RunMain() (int32, error) {
	main, err := e.Lookup(mangle.Main())
	if err != nil {
		return 0, err
	}
	ret, err := main()
	if err != nil {
		return 0, err
	}
	return int32(ret), nil
}

// ----------------------------------------------------------------------------
// ir.Memory

// Alloc reserves n words and returns the address of the first.
func (e *Engine) Alloc(n int64) int64 {
	if n < 1 {
		n = 1
	}
	addr := int64(len(e.mem))
	e.mem = append(e.mem, make([]int64, n)...)
	return addr
}

// Load returns the word at addr.
func (e *Engine) Load(addr int64) int64 {
	if addr <= 0 || addr >= int64(len(e.mem)) {
		return 0
	}
	return e.mem[addr]
}

// Store writes the word at addr.
func (e *Engine) Store(addr, val int64) {
	if addr <= 0 || addr >= int64(len(e.mem)) {
		return
	}
	e.mem[addr] = val
}
