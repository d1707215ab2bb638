package main

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGatherInputs(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "B.jack"), "class B {}")
	write(t, filepath.Join(dir, "A.jack"), "class A {}")
	write(t, filepath.Join(dir, "README.md"), "not jack")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Non-recursive: a .jack file in a subdirectory is not picked up.
	write(t, filepath.Join(dir, "sub", "C.jack"), "class C {}")

	extra := filepath.Join(dir, "extra.txt")
	write(t, extra, "class Extra {}")

	files, err := gatherInputs([]string{dir, extra})
	if err != nil {
		t.Fatalf("gatherInputs: %v", err)
	}

	want := []string{
		filepath.Join(dir, "A.jack"),
		filepath.Join(dir, "B.jack"),
		extra, // explicit files are compiled regardless of extension
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d]: got %q, want %q", i, files[i], want[i])
		}
	}
}

func TestGatherInputsMissingPath(t *testing.T) {
	if _, err := gatherInputs([]string{"/no/such/path.jack"}); err == nil {
		t.Error("missing path accepted")
	}
}

func TestCompileFileDiagnosticFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Broken.jack")
	write(t, path, "class Broken { function void f() { let } }")

	_, err := compileFile(path)
	if err == nil {
		t.Fatal("broken file compiled")
	}
	// Diagnostics render as [error: <file>: <line>:<col>] <message>.
	want := "[error: " + path + ": "
	if got := err.Error(); len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("diagnostic: got %q, want prefix %q", got, want)
	}
}
