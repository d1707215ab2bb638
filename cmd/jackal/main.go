// Package main implements the jackal compiler driver.
//
// Usage: jackal [options] <file-or-dir> [<file-or-dir> ...]
//
// Directories are scanned non-recursively for files ending in .jack;
// files are compiled regardless of extension. Files parse in parallel;
// results are collected in deterministic order and lowered to IR on a
// single goroutine, then the module is handed to the JIT host and
// __Main__main runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	_ "github.com/tliron/commonlog/simple"

	"github.com/you-not-fish/jackal/internal/config"
	"github.com/you-not-fish/jackal/internal/history"
	"github.com/you-not-fish/jackal/internal/ir"
	"github.com/you-not-fish/jackal/internal/ir/passes"
	"github.com/you-not-fish/jackal/internal/irgen"
	"github.com/you-not-fish/jackal/internal/jit"
	jackrt "github.com/you-not-fish/jackal/internal/runtime"
	"github.com/you-not-fish/jackal/internal/syntax"
)

// Compiler flags
var (
	emitTokens = flag.Bool("emit-tokens", false, "Output token stream")
	emitAST    = flag.Bool("emit-ast", false, "Output AST")
	astFormat  = flag.String("ast-format", "text", "AST output format (text or json)")
	emitIR     = flag.Bool("emit-ir", false, "Output IR module and exit")
	dumpFunc   = flag.String("dump-func", "", "Only dump specific function")
	dumpBefore = flag.String("dump-before", "", "Dump IR before pass (name or \"*\")")
	dumpAfter  = flag.String("dump-after", "", "Dump IR after pass (name or \"*\")")
	irVerify   = flag.Bool("ir-verify", false, "Verify IR before/after each pass")
	historyDB  = flag.String("history", "", "Compile-history database path")
	verbosity  = flag.Int("v", 0, "Log verbosity")
	version    = flag.Bool("version", false, "Print version")
)

// Version information
const Version = "0.1.0-dev"

var log = commonlog.GetLogger("jackal.driver")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Jackal Compiler %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: jackal [options] <file-or-dir> [<file-or-dir> ...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Printf("jackal version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	os.Exit(run(flag.Args()))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: no input files")
		fmt.Fprintln(os.Stderr, "usage: jackal [options] <file-or-dir> [<file-or-dir> ...]")
		return 1
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	v := cfg.Log.Verbosity
	if *verbosity > v {
		v = *verbosity
	}
	commonlog.Configure(v, nil)

	if cfg.Compiler.VerifyIR {
		*irVerify = true
	}

	files, err := gatherInputs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "error: no input files")
		return 1
	}

	if *emitTokens {
		return runEmitTokens(files)
	}
	if *emitAST {
		return runEmitAST(files)
	}

	hist := openHistory(cfg)
	if hist != nil {
		defer hist.Close()
	}

	classes, ok := compileAll(files, cfg, hist)
	if !ok {
		return 1
	}

	return codegenAndRun(classes)
}

// gatherInputs expands arguments into the file list: directories are
// scanned non-recursively for *.jack, files are taken as given.
func gatherInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		log.Infof("compiling directory %s", arg)
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".jack") {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// compileAll parses each file as an independent task, bounded by the
// configured parallelism. Results are collected in input order. A task
// failure abandons its own compilation unit; other units continue.
func compileAll(files []string, cfg *config.Config, hist *history.Store) ([]*syntax.ClassDecl, bool) {
	type result struct {
		cls      *syntax.ClassDecl
		err      error
		duration time.Duration
	}

	results := make([]result, len(files))

	var g errgroup.Group
	g.SetLimit(cfg.Compiler.Parallelism)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			log.Infof("compiling file %s", file)
			start := time.Now()
			cls, err := compileFile(file)
			results[i] = result{cls: cls, err: err, duration: time.Since(start)}
			return nil
		})
	}
	g.Wait()

	ok := true
	classes := make([]*syntax.ClassDecl, 0, len(files))
	for i, file := range files {
		r := results[i]
		var diagnostics []string
		if r.err != nil {
			ok = false
			diagnostics = append(diagnostics, r.err.Error())
			fmt.Fprintln(os.Stderr, r.err)
		} else {
			classes = append(classes, r.cls)
		}
		if hist != nil {
			if err := hist.Append(file, r.err == nil, r.duration, diagnostics); err != nil {
				log.Errorf("history: %v", err)
			}
		}
	}
	return classes, ok
}

// compileFile parses a single compilation unit.
func compileFile(file string) (*syntax.ClassDecl, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return syntax.NewParser(file, f).Parse()
}

// codegenAndRun lowers all classes into one module, registers the
// built-ins, hands the module to the JIT host, and runs the program
// entry point.
func codegenAndRun(classes []*syntax.ClassDecl) int {
	rt := jackrt.New(os.Stdin, os.Stdout)

	mod := ir.NewModule()
	jackrt.Register(rt, mod)

	gen := irgen.New(mod)
	for _, cls := range classes {
		rt.AddAST(cls)
		gen.Generate(cls)
	}
	gen.Resolve()
	mod = gen.Module()

	if *emitIR {
		if *dumpFunc != "" {
			for _, f := range mod.AllFuncs() {
				if f.Name == *dumpFunc {
					ir.Fprint(os.Stdout, f)
				}
			}
		} else {
			ir.FprintModule(os.Stdout, mod)
		}
		return 0
	}

	eng := jit.New()
	eng.SetPassConfig(passes.Config{
		DumpBefore: *dumpBefore,
		DumpAfter:  *dumpAfter,
		Verify:     *irVerify,
		DumpFunc:   *dumpFunc,
	})
	if err := eng.AddModule(mod); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	log.Info("running Main.main")
	ret, err := eng.RunMain()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	log.Infof("Main.main returned %d", ret)
	return 0
}

// openHistory opens the compile-history store when configured by flag
// or jackal.toml. History failures are logged, never fatal.
func openHistory(cfg *config.Config) *history.Store {
	path := cfg.History.Path
	if *historyDB != "" {
		path = *historyDB
	}
	if path == "" {
		return nil
	}
	hist, err := history.Open(path)
	if err != nil {
		log.Errorf("history: %v", err)
		return nil
	}
	return hist
}

// runEmitTokens scans each input file and prints all tokens with
// positions.
func runEmitTokens(files []string) int {
	code := 0
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			code = 1
			continue
		}

		fmt.Printf("%-20s %s\n", "POSITION", "TOKEN")
		fmt.Printf("%-20s %s\n", strings.Repeat("-", 20), strings.Repeat("-", 20))

		lex := syntax.NewLexer(file, f)
		for {
			tok := lex.Peek()
			fmt.Printf("%-20s %s\n", lex.TokenPos(), tok)
			if tok.IsEnd() {
				break
			}
			lex.Advance()
		}
		f.Close()
	}
	return code
}

// runEmitAST parses each input file and prints the AST.
func runEmitAST(files []string) int {
	code := 0
	for _, file := range files {
		cls, err := compileFile(file)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			code = 1
			continue
		}

		switch *astFormat {
		case "json":
			if err := syntax.FprintJSON(os.Stdout, cls); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				code = 1
			}
		default:
			syntax.Fprint(os.Stdout, cls)
		}
	}
	return code
}
