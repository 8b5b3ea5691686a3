// Package config holds the build configuration shared by the CLI and the
// driver. Values come from defaults, an optional YAML project file, the
// environment and finally command line flags, in that order.
package config

import (
	"errors"
	"io"
	"os"

	"github.com/laspa-lang/laspa/pkg/diag"
	"github.com/laspa-lang/laspa/pkg/opt"
	"gopkg.in/yaml.v3"
)

// LinkerEnv overrides the linker, like CC does for make.
const LinkerEnv = "LASPA_CC"

type Config struct {
	OptimizationLevel int    `yaml:"optimization_level"`
	Executable        bool   `yaml:"executable"`
	Interpret         bool   `yaml:"interpret"`
	JIT               bool   `yaml:"jit"`
	ExecutableName    string `yaml:"executable_name"`
	Linker            string `yaml:"linker"`
	RuntimeArchive    string `yaml:"runtime_archive"`
	EmitIR            bool   `yaml:"emit_ir"`
	DumpAST           bool   `yaml:"dump_ast"`
}

func Default() *Config {
	return &Config{
		OptimizationLevel: int(opt.Less),
		Executable:        true,
		ExecutableName:    "main",
	}
}

// Load reads a YAML project file on top of the defaults. Unknown keys are
// rejected and an empty file yields the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, diag.Wrap(diag.Config, err, "Cannot open config")
	}
	defer file.Close()

	cfg := Default()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, diag.Wrap(diag.Config, err, "Cannot parse config `%s`", path)
	}

	return cfg, nil
}

// ApplyEnv lets the environment override file values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if cc := getenv(LinkerEnv); cc != "" {
		c.Linker = cc
	}
}

func (c *Config) Level() opt.Level {
	return opt.Level(c.OptimizationLevel)
}

// Validate rejects configurations no backend can run.
func (c *Config) Validate() error {
	if _, err := opt.ParseLevel(c.OptimizationLevel); err != nil {
		return err
	}
	if c.Interpret && c.JIT {
		return diag.Errorf(diag.Config, "`interpret` and `jit` cannot both be set.")
	}
	if c.Executable && !c.Interpret && !c.JIT && c.ExecutableName == "" {
		return diag.Errorf(diag.Config, "`executable_name` must not be empty.")
	}
	return nil
}
