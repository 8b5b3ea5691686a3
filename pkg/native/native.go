// Package native hands generated modules to LLVM: it verifies and optimizes
// them, then either runs them in-process or emits and links an executable.
package native

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/laspa-lang/laspa/pkg/diag"
	"github.com/laspa-lang/laspa/pkg/opt"
	"github.com/llir/llvm/ir"
	"tinygo.org/x/go-llvm"
)

var (
	initOnce sync.Once
	initErr  error
)

func initNative() error {
	initOnce.Do(func() {
		llvm.LinkInMCJIT()
		if err := llvm.InitializeNativeTarget(); err != nil {
			initErr = diag.Wrap(diag.ExternalTool, err, "Failed to initialize the native target")
			return
		}
		if err := llvm.InitializeNativeAsmPrinter(); err != nil {
			initErr = diag.Wrap(diag.ExternalTool, err, "Failed to initialize the native asm printer")
		}
	})
	return initErr
}

// importModule parses the textual form of m into ctx.
func importModule(ctx llvm.Context, m *ir.Module) (llvm.Module, error) {
	return importText(ctx, m.String())
}

func importText(ctx llvm.Context, text string) (llvm.Module, error) {
	f, err := os.CreateTemp("", "laspa-*.ll")
	if err != nil {
		return llvm.Module{}, fmt.Errorf("native: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return llvm.Module{}, fmt.Errorf("native: %w", err)
	}
	if err := f.Close(); err != nil {
		return llvm.Module{}, fmt.Errorf("native: %w", err)
	}

	buf, err := llvm.NewMemoryBufferFromFile(f.Name())
	if err != nil {
		return llvm.Module{}, fmt.Errorf("native: %w", err)
	}

	// ParseIR takes ownership of buf
	mod, err := ctx.ParseIR(buf)
	if err != nil {
		return llvm.Module{}, diag.Wrap(diag.Verification, err, "LLVM rejected the generated IR")
	}
	return mod, nil
}

func verify(mod llvm.Module) error {
	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		return diag.Wrap(diag.Verification, err, "Module failed verification")
	}
	return nil
}

// optimize runs the pass pipeline of level over mod. tm may be the zero
// TargetMachine when no target specific tuning is wanted.
func optimize(mod llvm.Module, level opt.Level, tm llvm.TargetMachine) error {
	pipeline := level.Pipeline()
	if pipeline == "" {
		return nil
	}

	start := time.Now()

	options := llvm.NewPassBuilderOptions()
	defer options.Dispose()

	if err := mod.RunPasses(pipeline, tm, options); err != nil {
		return diag.Wrap(diag.ExternalTool, err, "Running passes `%s` failed", pipeline)
	}

	slog.Debug("optimized module", "level", level, "pipeline", pipeline, "took", time.Since(start))
	return nil
}

func checkLevel(level opt.Level) error {
	_, err := opt.ParseLevel(int(level))
	return err
}
