// Package driver runs a source file through the pipeline the configuration
// asks for: the interpreter, the JIT, or an ahead-of-time build.
package driver

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/repr"
	"github.com/laspa-lang/laspa/pkg/ast"
	"github.com/laspa-lang/laspa/pkg/config"
	llvmgen "github.com/laspa-lang/laspa/pkg/gen/llvm"
	"github.com/laspa-lang/laspa/pkg/interp"
	"github.com/laspa-lang/laspa/pkg/lexer"
	"github.com/laspa-lang/laspa/pkg/native"
	"github.com/laspa-lang/laspa/pkg/parser"
	"github.com/llir/llvm/ir"
)

type Mode int

const (
	// ModeIR only generates and verifies the module.
	ModeIR Mode = iota
	ModeInterpret
	ModeJIT
	ModeExecutable
)

var modeNames = [...]string{"ir", "interpret", "jit", "executable"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ModeOf picks the backend a configuration selects. The interpreter wins
// over the JIT, which wins over building an executable.
func ModeOf(cfg *config.Config) Mode {
	switch {
	case cfg.Interpret:
		return ModeInterpret
	case cfg.JIT:
		return ModeJIT
	case cfg.Executable:
		return ModeExecutable
	}
	return ModeIR
}

type Result struct {
	Mode Mode
	// Value is the program result for ModeInterpret and ModeJIT.
	Value float64
	// Executable is the path of the linked program for ModeExecutable.
	Executable string
}

type Driver struct {
	Config *config.Config
	// Stdout receives interpreter output and the --emit-ir/--dump-ast dumps.
	Stdout io.Writer
}

func New(cfg *config.Config, stdout io.Writer) *Driver {
	if cfg == nil {
		cfg = config.Default()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Driver{Config: cfg, Stdout: stdout}
}

// Parse lexes and parses source into a module.
func (d *Driver) Parse(path, source string) (*ast.Module, error) {
	start := time.Now()

	m := ast.NewModule(path, source)
	lexer.Lex(m)
	if err := parser.Parse(m); err != nil {
		return nil, err
	}

	slog.Debug("parsed", "file", path, "statements", len(m.Nodes), "functions", len(m.Functions),
		"took_us", time.Since(start).Microseconds())

	if d.Config.DumpAST {
		fmt.Fprintln(d.Stdout, repr.String(m.Nodes, repr.Indent("  ")))
	}
	return m, nil
}

// FromFile reads path and runs it. See FromSource.
func (d *Driver) FromFile(path string) (Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read source file: %w", err)
	}
	return d.FromSource(path, string(source))
}

// FromSource runs source through the backend the configuration selects.
func (d *Driver) FromSource(path, source string) (Result, error) {
	if err := d.Config.Validate(); err != nil {
		return Result{}, err
	}

	mode := ModeOf(d.Config)
	slog.Info("compiling", "file", path, "mode", mode, "level", d.Config.Level())

	m, err := d.Parse(path, source)
	if err != nil {
		return Result{}, err
	}

	if mode == ModeInterpret {
		if d.Config.EmitIR {
			if _, err := d.generate(m, mode); err != nil {
				return Result{}, err
			}
		}
		return d.interpret(m)
	}

	module, err := d.generate(m, mode)
	if err != nil {
		return Result{}, err
	}

	switch mode {
	case ModeJIT:
		value, err := native.JIT(module, d.Config.Level())
		if err != nil {
			return Result{}, err
		}
		slog.Debug("result", "value", value)
		return Result{Mode: mode, Value: value}, nil
	case ModeExecutable:
		err := native.AOT(module, native.AOTOptions{
			Level:          d.Config.Level(),
			Output:         d.Config.ExecutableName,
			Linker:         d.Config.Linker,
			RuntimeArchive: d.Config.RuntimeArchive,
		})
		if err != nil {
			return Result{}, err
		}
		slog.Info("built", "executable", d.Config.ExecutableName)
		return Result{Mode: mode, Executable: d.Config.ExecutableName}, nil
	}

	if !d.Config.EmitIR {
		slog.Warn("no backend selected, the module was only generated and verified")
	}
	return Result{Mode: mode}, nil
}

func (d *Driver) interpret(m *ast.Module) (Result, error) {
	start := time.Now()

	value, err := interp.Run(m, d.Stdout)
	if err != nil {
		return Result{}, err
	}

	slog.Debug("interpreted", "took_us", time.Since(start).Microseconds())
	slog.Debug("result", "value", value)
	return Result{Mode: ModeInterpret, Value: value}, nil
}

func (d *Driver) generate(m *ast.Module, mode Mode) (*ir.Module, error) {
	start := time.Now()

	module, err := llvmgen.Gen(m, llvmgen.Options{
		Executable: mode == ModeExecutable,
		Verify:     true,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("generated LLVM IR", "took_us", time.Since(start).Microseconds())

	if d.Config.EmitIR {
		fmt.Fprint(d.Stdout, module.String())
	}
	return module, nil
}
