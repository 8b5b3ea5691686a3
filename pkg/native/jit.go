package native

import (
	"log/slog"
	"time"

	"github.com/laspa-lang/laspa/pkg/diag"
	llvmgen "github.com/laspa-lang/laspa/pkg/gen/llvm"
	"github.com/laspa-lang/laspa/pkg/opt"
	"github.com/llir/llvm/ir"
	"tinygo.org/x/go-llvm"
)

// JIT compiles m in-process and returns the value of its `main`. The module
// must have been generated without Options.Executable. Every call works in a
// fresh LLVM context, so running the same module twice is independent.
func JIT(m *ir.Module, level opt.Level) (float64, error) {
	if err := checkLevel(level); err != nil {
		return 0, err
	}
	if err := initNative(); err != nil {
		return 0, err
	}

	start := time.Now()

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	mod, err := importModule(ctx, m)
	if err != nil {
		return 0, err
	}
	// owned by the engine once it exists
	owned := true
	defer func() {
		if owned {
			mod.Dispose()
		}
	}()

	rt, err := importModule(ctx, llvmgen.Runtime())
	if err != nil {
		return 0, err
	}
	// LinkModules destroys rt
	if err := llvm.LinkModules(mod, rt); err != nil {
		return 0, diag.Wrap(diag.ExternalTool, err, "Linking the runtime failed")
	}

	if err := verify(mod); err != nil {
		return 0, err
	}
	if err := optimize(mod, level, llvm.TargetMachine{}); err != nil {
		return 0, err
	}

	options := llvm.NewMCJITCompilerOptions()
	options.SetMCJITOptimizationLevel(uint(level))
	engine, err := llvm.NewMCJITCompiler(mod, options)
	if err != nil {
		return 0, diag.Wrap(diag.ExternalTool, err, "Failed to create the JIT")
	}
	owned = false
	defer engine.Dispose()

	main := engine.FindFunction(llvmgen.EntryName)
	if main.IsNil() {
		return 0, diag.Errorf(diag.UndefinedFunction, "Function `%s` is not defined.", llvmgen.EntryName)
	}

	slog.Debug("jit ready", "took", time.Since(start))
	start = time.Now()

	result := engine.RunFunction(main, nil)
	defer result.Dispose()
	value := result.Float(ctx.DoubleType())

	slog.Debug("jit run", "result", value, "took", time.Since(start))
	return value, nil
}
