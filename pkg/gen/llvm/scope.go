package llvmgen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// frame maps variable names to their stack slots in one function.
type frame map[string]value.Value

// scopes is a stack of frames. Only the top frame is visible: a function
// body cannot reach the slots of the function it was declared in.
type scopes []frame

func (s *scopes) push() {
	*s = append(*s, make(frame))
}

func (s *scopes) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s scopes) lookup(name string) (value.Value, bool) {
	if len(s) == 0 {
		return nil, false
	}
	slot, ok := s[len(s)-1][name]
	return slot, ok
}

func (s scopes) bind(name string, slot value.Value) {
	s[len(s)-1][name] = slot
}

// fnState is what the generator has to restore after lowering a nested
// function declaration.
type fnState struct {
	fn      *ir.Func
	entry   *ir.Block
	block   *ir.Block
	allocas int
}
