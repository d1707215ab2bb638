// Package config handles jackal.toml compiler configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents a jackal.toml configuration file. Command-line
// flags override file values.
type Config struct {
	Compiler Compiler `toml:"compiler"`
	History  History  `toml:"history"`
	Log      Log      `toml:"log"`
}

// Compiler configures the compile pipeline.
type Compiler struct {
	// Parallelism bounds the number of files compiled concurrently.
	// Zero means one task per CPU.
	Parallelism int `toml:"parallelism"`

	// VerifyIR verifies IR before and after each host pass.
	VerifyIR bool `toml:"verify-ir"`
}

// History configures the compile-history database.
type History struct {
	// Path of the sqlite database; empty disables recording.
	Path string `toml:"path"`
}

// Log configures logging.
type Log struct {
	// Verbosity for the commonlog backend (0 = notices and up).
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no jackal.toml exists.
func Default() *Config {
	return &Config{
		Compiler: Compiler{Parallelism: runtime.NumCPU()},
	}
}

// Load parses a jackal.toml file from the given directory, falling
// back to defaults when the file does not exist.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "jackal.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if cfg.Compiler.Parallelism <= 0 {
		cfg.Compiler.Parallelism = runtime.NumCPU()
	}
	return cfg, nil
}
