package native

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/laspa-lang/laspa/pkg/diag"
	llvmgen "github.com/laspa-lang/laspa/pkg/gen/llvm"
	"github.com/laspa-lang/laspa/pkg/opt"
	"github.com/llir/llvm/ir"
	"tinygo.org/x/go-llvm"
)

// DefaultLinker drives the final link when nothing else is configured.
const DefaultLinker = "clang"

type AOTOptions struct {
	Level opt.Level
	// Output is the path of the linked executable.
	Output string
	// Linker is the C compiler driver used to link. Empty means DefaultLinker.
	Linker string
	// RuntimeArchive is a prebuilt static library providing print_f64. When
	// empty the runtime module is compiled alongside the program.
	RuntimeArchive string
	// TempDir holds intermediate objects. Empty means os.TempDir().
	TempDir string
}

// ObjectName derives the intermediate object file name from the module
// text, so identical modules map to the same file.
func ObjectName(prefix, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s-%s.o", prefix, hex.EncodeToString(sum[:8]))
}

func hostMachine(level opt.Level) (llvm.TargetMachine, string, error) {
	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return llvm.TargetMachine{}, "", diag.Wrap(diag.ExternalTool, err, "No target for `%s`", triple)
	}

	codeGenLevel := llvm.CodeGenLevelNone
	switch level {
	case opt.Less:
		codeGenLevel = llvm.CodeGenLevelLess
	case opt.Default:
		codeGenLevel = llvm.CodeGenLevelDefault
	case opt.Aggressive:
		codeGenLevel = llvm.CodeGenLevelAggressive
	}

	tm := target.CreateTargetMachine(triple, "generic", "", codeGenLevel, llvm.RelocPIC, llvm.CodeModelDefault)
	return tm, triple, nil
}

// emitObject compiles text to an object file at path.
func emitObject(ctx llvm.Context, tm llvm.TargetMachine, triple string, text string, level opt.Level, path string) error {
	mod, err := importText(ctx, text)
	if err != nil {
		return err
	}
	defer mod.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()
	mod.SetTarget(triple)
	mod.SetDataLayout(td.String())

	if err := verify(mod); err != nil {
		return err
	}
	if err := optimize(mod, level, tm); err != nil {
		return err
	}

	buf, err := tm.EmitToMemoryBuffer(mod, llvm.ObjectFile)
	if err != nil {
		return diag.Wrap(diag.ExternalTool, err, "Object emission failed")
	}
	defer buf.Dispose()

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return diag.Wrap(diag.ExternalTool, err, "Writing `%s` failed", path)
	}
	return nil
}

// AOT compiles m to an object file and links it into an executable. The
// module should be generated with Options.Executable so the result has a C
// `main`. Intermediate objects are removed before returning.
func AOT(m *ir.Module, o AOTOptions) error {
	if err := checkLevel(o.Level); err != nil {
		return err
	}
	if err := initNative(); err != nil {
		return err
	}

	dir := o.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	start := time.Now()

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	tm, triple, err := hostMachine(o.Level)
	if err != nil {
		return err
	}
	defer tm.Dispose()

	text := m.String()
	object := filepath.Join(dir, ObjectName("laspa", text))
	if err := emitObject(ctx, tm, triple, text, o.Level, object); err != nil {
		return err
	}
	defer os.Remove(object)

	inputs := []string{object}
	if o.RuntimeArchive != "" {
		inputs = append(inputs, o.RuntimeArchive)
	} else {
		rtText := llvmgen.Runtime().String()
		rtObject := filepath.Join(dir, ObjectName("laspa-rt", rtText))
		if err := emitObject(ctx, tm, triple, rtText, o.Level, rtObject); err != nil {
			return err
		}
		defer os.Remove(rtObject)
		inputs = append(inputs, rtObject)
	}

	slog.Debug("emitted objects", "objects", inputs, "took", time.Since(start))

	return link(o.Linker, inputs, o.Output)
}

func link(linker string, inputs []string, output string) error {
	if linker == "" {
		linker = DefaultLinker
	}

	args := append([]string{}, inputs...)
	args = append(args, "-lm", "-o", output)

	cmd := exec.Command(linker, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	slog.Info("linking", "command", cmd.String())

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return diag.Wrap(diag.ExternalTool, err, "Linking with `%s` failed", linker)
		}
		return diag.Wrap(diag.ExternalTool, err, "Linking with `%s` failed (%s)", linker, msg)
	}

	slog.Debug("linked", "output", output, "took", time.Since(start))
	return nil
}
