package llvmgen

import (
	"github.com/laspa-lang/laspa/pkg/diag"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Kind tells which LLVM representation a generated value has. The language
// has a single number type; comparisons produce booleans which only branch
// conditions accept.
type Kind int

const (
	Float Kind = iota // double
	Int              // i1
)

func (k Kind) String() string {
	if k == Int {
		return "Int"
	}
	return "Float"
}

type Value struct {
	Kind Kind
	V    value.Value
}

func floatValue(v value.Value) Value {
	return Value{Kind: Float, V: v}
}

func zero() Value {
	return floatValue(constant.NewFloat(types.Double, 0))
}

func (g *Generator) asFloat(v Value, use string) (value.Value, error) {
	if v.Kind != Float {
		return nil, diag.Errorf(diag.TypeMismatch, "%s expects a Float but got an %s (comparison) value.", use, v.Kind)
	}
	return v.V, nil
}

func (g *Generator) asInt(v Value, use string) (value.Value, error) {
	if v.Kind != Int {
		return nil, diag.Errorf(diag.TypeMismatch, "%s expects an Int (comparison) but got a %s value.", use, v.Kind)
	}
	return v.V, nil
}
