package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// verifyFunc checks the invariants the generator relies on before the module
// reaches LLVM: every block is terminated, returns match the signature, phi
// nodes only name real predecessors and direct calls pass the right number of
// arguments.
func verifyFunc(fn *ir.Func) error {
	if len(fn.Blocks) == 0 {
		return fmt.Errorf("%s has no body", fn.Ident())
	}

	preds := make(map[*ir.Block][]*ir.Block)
	for _, b := range fn.Blocks {
		if b.Term == nil {
			return fmt.Errorf("block %s in %s is not terminated", b.Ident(), fn.Ident())
		}
		for _, succ := range b.Term.Succs() {
			preds[succ] = append(preds[succ], b)
		}
	}

	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			switch inst := inst.(type) {
			case *ir.InstPhi:
				if err := verifyPhi(inst, preds[b]); err != nil {
					return fmt.Errorf("block %s in %s: %w", b.Ident(), fn.Ident(), err)
				}
			case *ir.InstCall:
				callee, ok := inst.Callee.(*ir.Func)
				if !ok || callee.Sig.Variadic {
					continue
				}
				if len(inst.Args) != len(callee.Sig.Params) {
					return fmt.Errorf("call to %s in %s passes %d argument(s), want %d",
						callee.Ident(), fn.Ident(), len(inst.Args), len(callee.Sig.Params))
				}
			}
		}

		if ret, ok := b.Term.(*ir.TermRet); ok {
			if err := verifyRet(ret, fn.Sig.RetType); err != nil {
				return fmt.Errorf("block %s in %s: %w", b.Ident(), fn.Ident(), err)
			}
		}
	}

	return nil
}

func verifyPhi(phi *ir.InstPhi, preds []*ir.Block) error {
	if len(phi.Incs) == 0 {
		return fmt.Errorf("phi without incoming values")
	}

	for _, inc := range phi.Incs {
		var pred value.Value = inc.Pred
		found := false
		for _, p := range preds {
			if pred == value.Value(p) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("phi names %s which is not a predecessor", pred.Ident())
		}
		if !types.Equal(inc.X.Type(), phi.Type()) {
			return fmt.Errorf("phi incoming value has type %s, want %s", inc.X.Type(), phi.Type())
		}
	}
	return nil
}

func verifyRet(ret *ir.TermRet, want types.Type) error {
	if ret.X == nil {
		if !types.Equal(want, types.Void) {
			return fmt.Errorf("ret void in a function returning %s", want)
		}
		return nil
	}
	if !types.Equal(ret.X.Type(), want) {
		return fmt.Errorf("ret %s in a function returning %s", ret.X.Type(), want)
	}
	return nil
}
