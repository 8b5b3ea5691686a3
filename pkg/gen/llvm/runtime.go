package llvmgen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

type cString struct {
	raw string
	def *ir.Global
}

func (s *cString) gep() value.Value {
	return constant.NewGetElementPtr(
		types.NewArray(uint64(len(s.raw)), types.I8),
		s.def,
		constant.NewInt(types.I32, 0),
		constant.NewInt(types.I32, 0),
	)
}

func newCString(m *ir.Module, raw string) *cString {
	s := cString{raw: raw + "\x00"}
	s.def = m.NewGlobalDef("", constant.NewCharArrayFromString(s.raw))
	s.def.Linkage = enum.LinkagePrivate
	s.def.Immutable = true
	return &s
}

// Runtime builds the support module generated code links against. It
// defines print_f64, which prints its argument like C's `%.16g` followed by
// a newline and flushes stdout.
func Runtime() *ir.Module {
	m := ir.NewModule()
	m.SourceFilename = "laspa-runtime"

	printf := m.NewFunc("printf", types.I32, ir.NewParam("", types.I8Ptr))
	printf.Sig.Variadic = true
	fflush := m.NewFunc("fflush", types.I32, ir.NewParam("", types.I8Ptr))

	format := newCString(m, "%.16g\n")

	x := ir.NewParam("", types.Double)
	printFn := m.NewFunc(PrintName, types.Void, x)
	b := printFn.NewBlock("entry")
	b.NewCall(printf, format.gep(), x)
	// fflush(NULL) flushes every output stream
	b.NewCall(fflush, constant.NewNull(types.I8Ptr))
	b.NewRet(nil)

	return m
}
