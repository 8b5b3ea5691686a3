package gen

import (
	"github.com/laspa-lang/laspa/pkg/ast"
	llvmgen "github.com/laspa-lang/laspa/pkg/gen/llvm"
)

// LLVM returns the textual LLVM IR of the module.
func LLVM(m *ast.Module, opts llvmgen.Options) (string, error) {
	module, err := llvmgen.Gen(m, opts)
	if err != nil {
		return "", err
	}
	return module.String(), nil
}

// Runtime returns the textual LLVM IR of the runtime support module.
func Runtime() string {
	return llvmgen.Runtime().String()
}
