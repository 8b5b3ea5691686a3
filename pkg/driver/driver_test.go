package driver

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/laspa-lang/laspa/pkg/config"
	"github.com/laspa-lang/laspa/pkg/diag"
)

func interpreter() *config.Config {
	cfg := config.Default()
	cfg.Interpret = true
	return cfg
}

func TestFromSourceInterpret(t *testing.T) {
	var out bytes.Buffer
	d := New(interpreter(), &out)

	res, err := d.FromSource("main.laspa", "print 1; + * -2 3 - 2 3.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModeInterpret || res.Value != -7.5 {
		t.Errorf("got %+v, want -7.5 from the interpreter", res)
	}
	if out.String() != "1\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

var exampleTests = []struct {
	file   string
	want   float64
	stdout string
}{
	{"test.laspa", 10, ""},
	{"loops.laspa", 1100, ""},
	{"collatz.laspa", 1, "46\n"},
	{"functions.laspa", 3628800, "12\n9\n"},
}

func TestFromFileExamples(t *testing.T) {
	for _, tt := range exampleTests {
		var out bytes.Buffer
		d := New(interpreter(), &out)

		res, err := d.FromFile(filepath.Join("..", "..", "examples", tt.file))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.file, err)
			continue
		}
		if res.Value != tt.want {
			t.Errorf("%s = %v, want %v", tt.file, res.Value, tt.want)
		}
		if out.String() != tt.stdout {
			t.Errorf("%s: stdout = %q, want %q", tt.file, out.String(), tt.stdout)
		}
	}
}

func TestFromFileMissing(t *testing.T) {
	d := New(interpreter(), &bytes.Buffer{})
	if _, err := d.FromFile(filepath.Join(t.TempDir(), "missing.laspa")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestFromSourceJIT(t *testing.T) {
	cfg := config.Default()
	cfg.JIT = true
	cfg.OptimizationLevel = 2

	res, err := New(cfg, &bytes.Buffer{}).FromSource("main.laspa", "fn sum (x y)\nreturn + x y\nend\nsum (10 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModeJIT || res.Value != 12 {
		t.Errorf("got %+v, want 12 from the JIT", res)
	}
}

func TestEmitIR(t *testing.T) {
	cfg := config.Default()
	cfg.Executable = false
	cfg.EmitIR = true

	var out bytes.Buffer
	res, err := New(cfg, &out).FromSource("main.laspa", "+ 1 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModeIR {
		t.Errorf("mode = %s, want ir", res.Mode)
	}
	if !strings.Contains(out.String(), "define double @main()") {
		t.Errorf("IR was not emitted:\n%s", out.String())
	}
}

func TestDumpAST(t *testing.T) {
	cfg := interpreter()
	cfg.DumpAST = true

	var out bytes.Buffer
	if _, err := New(cfg, &out).FromSource("main.laspa", "let x 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "ast.BindExpr") {
		t.Errorf("AST was not dumped:\n%s", out.String())
	}
}

func TestFromSourceErrors(t *testing.T) {
	var tests = []struct {
		name   string
		cfg    func() *config.Config
		source string
		kind   diag.Kind
	}{
		{"parse", interpreter, "+ 1", diag.Parse},
		{"runtime", interpreter, "+ x 1", diag.UndefinedVariable},
		{"level", func() *config.Config {
			cfg := interpreter()
			cfg.OptimizationLevel = 4
			return cfg
		}, "1", diag.Config},
		{"codegen", func() *config.Config {
			cfg := config.Default()
			cfg.Executable = false
			return cfg
		}, "let x < 1 2", diag.TypeMismatch},
	}

	for _, tt := range tests {
		_, err := New(tt.cfg(), &bytes.Buffer{}).FromSource("main.laspa", tt.source)
		if !errors.Is(err, tt.kind) {
			t.Errorf("%s: got %v, want %s", tt.name, err, tt.kind)
		}
	}
}

func TestModeOf(t *testing.T) {
	cfg := config.Default()
	if got := ModeOf(cfg); got != ModeExecutable {
		t.Errorf("default mode = %s", got)
	}
	cfg.JIT = true
	if got := ModeOf(cfg); got != ModeJIT {
		t.Errorf("jit mode = %s", got)
	}
	cfg.Interpret = true
	if got := ModeOf(cfg); got != ModeInterpret {
		t.Errorf("interpret mode = %s", got)
	}
}
