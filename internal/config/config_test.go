package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Compiler.Parallelism < 1 {
		t.Errorf("parallelism: got %d, want >= 1", cfg.Compiler.Parallelism)
	}
	if cfg.History.Path != "" {
		t.Errorf("history path: got %q, want empty", cfg.History.Path)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	src := `
[compiler]
parallelism = 2
verify-ir = true

[history]
path = "jackal-history.db"

[log]
verbosity = 1
`
	if err := os.WriteFile(filepath.Join(dir, "jackal.toml"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Compiler.Parallelism != 2 {
		t.Errorf("parallelism: got %d, want 2", cfg.Compiler.Parallelism)
	}
	if !cfg.Compiler.VerifyIR {
		t.Error("verify-ir not set")
	}
	if cfg.History.Path != "jackal-history.db" {
		t.Errorf("history path: got %q", cfg.History.Path)
	}
	if cfg.Log.Verbosity != 1 {
		t.Errorf("verbosity: got %d, want 1", cfg.Log.Verbosity)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "jackal.toml"), []byte("compiler = {"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("malformed file accepted")
	}
}

func TestZeroParallelismNormalized(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "jackal.toml"),
		[]byte("[compiler]\nparallelism = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Compiler.Parallelism < 1 {
		t.Errorf("parallelism: got %d, want >= 1", cfg.Compiler.Parallelism)
	}
}
