package llvmgen

import (
	"fmt"

	"github.com/laspa-lang/laspa/pkg/ast"
	"github.com/laspa-lang/laspa/pkg/diag"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

const (
	// EntryName is the function holding the top-level statements, and the
	// C entry point of linked executables.
	EntryName = "main"
	// ExecutableEntryName holds the top-level statements when an `int main()`
	// wrapper is generated.
	ExecutableEntryName = "laspa_main"
	// PrintName is the runtime function `print` lowers to.
	PrintName = "print_f64"
)

type Options struct {
	// Executable emits the program as `double laspa_main()` plus a C
	// `int main()` calling it and returning 0.
	Executable bool
	// Verify structurally checks every generated function. A function
	// failing the check is removed from the module and Gen fails.
	Verify bool
}

// Generator lowers one module. It is not reentrant: create one per
// compilation.
type Generator struct {
	opts   Options
	module *ir.Module

	fn      *ir.Func
	entry   *ir.Block // allocas of fn live here
	block   *ir.Block // insertion point
	allocas int       // instructions at the head of entry that belong to slots

	scopes    scopes
	labels    map[string]int
	printDecl *ir.Func
}

func NewGenerator(path string, opts Options) *Generator {
	module := ir.NewModule()
	module.SourceFilename = path

	g := &Generator{
		opts:   opts,
		module: module,
		labels: make(map[string]int),
	}
	g.printDecl = module.NewFunc(PrintName, types.Void, ir.NewParam("", types.Double))
	return g
}

// Gen lowers the module's top-level statements into `main` and every
// function declaration into a function of its own.
func Gen(m *ast.Module, opts Options) (*ir.Module, error) {
	g := NewGenerator(m.Path, opts)
	if err := g.genMain(m.Nodes); err != nil {
		return nil, err
	}
	return g.module, nil
}

func (g *Generator) Module() *ir.Module {
	return g.module
}

func (g *Generator) label(prefix string) string {
	n := g.labels[prefix]
	g.labels[prefix]++
	return fmt.Sprintf("%s.%d", prefix, n)
}

func (g *Generator) newBlock(prefix string) *ir.Block {
	return g.fn.NewBlock(g.label(prefix))
}

func (g *Generator) save() fnState {
	return fnState{fn: g.fn, entry: g.entry, block: g.block, allocas: g.allocas}
}

func (g *Generator) restore(s fnState) {
	g.fn, g.entry, g.block, g.allocas = s.fn, s.entry, s.block, s.allocas
}

func (g *Generator) enter(fn *ir.Func) {
	g.fn = fn
	g.entry = fn.NewBlock("entry")
	g.block = g.entry
	g.allocas = 0
	g.scopes.push()
}

// alloca places a zero-initialised slot at the head of the entry block, so
// every slot dominates all of its uses whichever block binds it.
func (g *Generator) alloca() value.Value {
	slot := ir.NewAlloca(types.Double)
	init := ir.NewStore(constant.NewFloat(types.Double, 0), slot)

	insts := make([]ir.Instruction, 0, len(g.entry.Insts)+2)
	insts = append(insts, g.entry.Insts[:g.allocas]...)
	insts = append(insts, slot, init)
	insts = append(insts, g.entry.Insts[g.allocas:]...)
	g.entry.Insts = insts
	g.allocas += 2

	return slot
}

func (g *Generator) lookupFunc(name string) (*ir.Func, bool) {
	for _, f := range g.module.Funcs {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

func (g *Generator) removeFunc(fn *ir.Func) {
	funcs := g.module.Funcs[:0]
	for _, f := range g.module.Funcs {
		if f != fn {
			funcs = append(funcs, f)
		}
	}
	g.module.Funcs = funcs
}

func (g *Generator) ret(v Value, use string) error {
	x, err := g.asFloat(v, use)
	if err != nil {
		return err
	}
	g.block.NewRet(x)
	return nil
}

func (g *Generator) genMain(nodes []ast.Node) error {
	name := EntryName
	if g.opts.Executable {
		name = ExecutableEntryName
	}

	main := g.module.NewFunc(name, types.Double)
	g.enter(main)
	defer g.scopes.pop()

	v, err := g.genNodes(nodes)
	if err != nil {
		return err
	}
	if err := g.ret(v, "The program result"); err != nil {
		return err
	}

	if g.opts.Verify {
		if err := verifyFunc(main); err != nil {
			g.removeFunc(main)
			return diag.Wrap(diag.Verification, err, "Function `%s` failed verification", name)
		}
	}

	if g.opts.Executable {
		g.genExecutableMain(main)
	}
	return nil
}

func (g *Generator) genExecutableMain(entry *ir.Func) {
	main := g.module.NewFunc(EntryName, types.I32)
	b := main.NewBlock("entry")
	b.NewCall(entry)
	b.NewRet(constant.NewInt(types.I32, 0))
}

func isReserved(name string) bool {
	return name == EntryName || name == ExecutableEntryName || name == PrintName
}

func (g *Generator) genFunction(n *ast.FnExpr) error {
	if _, exists := g.lookupFunc(n.Name); exists || isReserved(n.Name) {
		return diag.Errorf(diag.Verification, "Function `%s` collides with an existing symbol.", n.Name)
	}

	names := n.Params()
	params := make([]*ir.Param, len(names))
	for i := range names {
		params[i] = ir.NewParam("", types.Double)
	}

	fn := g.module.NewFunc(n.Name, types.Double, params...)
	fn.Linkage = enum.LinkageInternal

	saved := g.save()
	defer g.restore(saved)

	g.enter(fn)
	defer g.scopes.pop()

	// Parameters are mutable like any other binding.
	for i, name := range names {
		slot := g.alloca()
		g.block.NewStore(params[i], slot)
		g.scopes.bind(name, slot)
	}

	v, err := g.genNodes(n.Body)
	if err == nil {
		err = g.ret(v, fmt.Sprintf("The result of `%s`", n.Name))
	}
	if err != nil {
		g.removeFunc(fn)
		return err
	}

	if g.opts.Verify {
		if err := verifyFunc(fn); err != nil {
			g.removeFunc(fn)
			return diag.Wrap(diag.Verification, err, "Function `%s` failed verification", n.Name)
		}
	}
	return nil
}

// genNodes lowers a sequence and yields the value of its last node. An empty
// sequence yields 0.
func (g *Generator) genNodes(nodes []ast.Node) (Value, error) {
	last := zero()
	for _, node := range nodes {
		v, err := g.genNode(node)
		if err != nil {
			return Value{}, err
		}
		last = v
	}
	return last, nil
}

func (g *Generator) genNode(node ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.Number:
		return floatValue(constant.NewFloat(types.Double, n.Value)), nil
	case *ast.BinaryExpr:
		return g.genBinary(n)
	case *ast.BindExpr:
		v, err := g.genNodes(n.Value)
		if err != nil {
			return Value{}, err
		}
		x, err := g.asFloat(v, fmt.Sprintf("Binding `%s`", n.Name))
		if err != nil {
			return Value{}, err
		}
		// Rebinding reuses the name's slot: which `let` ran is only known
		// at run time.
		slot, ok := g.scopes.lookup(n.Name)
		if !ok {
			slot = g.alloca()
			g.scopes.bind(n.Name, slot)
		}
		g.block.NewStore(x, slot)
		return v, nil
	case *ast.Variable:
		slot, ok := g.scopes.lookup(n.Name)
		if !ok {
			return Value{}, diag.Errorf(diag.UndefinedVariable, "Variable `%s` is not defined.", n.Name)
		}
		return floatValue(g.block.NewLoad(types.Double, slot)), nil
	case *ast.MutateExpr:
		slot, ok := g.scopes.lookup(n.Name)
		if !ok {
			return Value{}, diag.Errorf(diag.UndefinedVariable, "Cannot assign to undeclared variable `%s`.", n.Name)
		}
		v, err := g.genNodes(n.Value)
		if err != nil {
			return Value{}, err
		}
		x, err := g.asFloat(v, fmt.Sprintf("Assignment to `%s`", n.Name))
		if err != nil {
			return Value{}, err
		}
		g.block.NewStore(x, slot)
		return v, nil
	case *ast.ReturnExpr:
		v, err := g.genNodes(n.Value)
		if err != nil {
			return Value{}, err
		}
		if err := g.ret(v, "`return`"); err != nil {
			return Value{}, err
		}
		// anything after a return lands in a block no edge reaches
		g.block = g.newBlock("after.ret")
		return zero(), nil
	case *ast.WhileExpr:
		return g.genWhile(n)
	case *ast.IfExpr:
		return g.genIf(n)
	case *ast.FnExpr:
		if err := g.genFunction(n); err != nil {
			return Value{}, err
		}
		return zero(), nil
	case *ast.FnCallExpr:
		return g.genCall(n)
	case *ast.PrintStdoutExpr:
		v, err := g.genNodes(n.Value)
		if err != nil {
			return Value{}, err
		}
		x, err := g.asFloat(v, "`print`")
		if err != nil {
			return Value{}, err
		}
		g.block.NewCall(g.printDecl, x)
		return zero(), nil
	}

	return Value{}, fmt.Errorf("llvmgen: unknown node %T", node)
}

func (g *Generator) genBinary(n *ast.BinaryExpr) (Value, error) {
	lv, err := g.genNodes(n.Lhs)
	if err != nil {
		return Value{}, err
	}
	rv, err := g.genNodes(n.Rhs)
	if err != nil {
		return Value{}, err
	}

	use := fmt.Sprintf("Operator `%s`", n.Op)
	lhs, err := g.asFloat(lv, use)
	if err != nil {
		return Value{}, err
	}
	rhs, err := g.asFloat(rv, use)
	if err != nil {
		return Value{}, err
	}

	if n.Op.IsComparison() {
		var pred enum.FPred
		switch n.Op {
		case ast.Gt:
			pred = enum.FPredOGT
		case ast.Lt:
			pred = enum.FPredOLT
		default:
			pred = enum.FPredOEQ
		}
		return Value{Kind: Int, V: g.block.NewFCmp(pred, lhs, rhs)}, nil
	}

	switch n.Op {
	case ast.Add:
		return floatValue(g.block.NewFAdd(lhs, rhs)), nil
	case ast.Sub:
		return floatValue(g.block.NewFSub(lhs, rhs)), nil
	case ast.Mul:
		return floatValue(g.block.NewFMul(lhs, rhs)), nil
	case ast.Div:
		return floatValue(g.block.NewFDiv(lhs, rhs)), nil
	case ast.Mod:
		return floatValue(g.block.NewFRem(lhs, rhs)), nil
	}

	return Value{}, fmt.Errorf("llvmgen: unknown operator %s", n.Op)
}

func (g *Generator) genWhile(n *ast.WhileExpr) (Value, error) {
	condBlock := g.newBlock("while.cond")
	bodyBlock := g.newBlock("while.body")
	endBlock := g.newBlock("while.end")

	g.block.NewBr(condBlock)

	g.block = condBlock
	cv, err := g.genNodes(n.Condition)
	if err != nil {
		return Value{}, err
	}
	cond, err := g.asInt(cv, "`while` condition")
	if err != nil {
		return Value{}, err
	}
	g.block.NewCondBr(cond, bodyBlock, endBlock)

	g.block = bodyBlock
	if _, err := g.genNodes(n.Body); err != nil {
		return Value{}, err
	}
	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.block = endBlock
	return zero(), nil
}

func (g *Generator) genIf(n *ast.IfExpr) (Value, error) {
	cv, err := g.genNodes(n.Condition)
	if err != nil {
		return Value{}, err
	}
	cond, err := g.asInt(cv, "`if` condition")
	if err != nil {
		return Value{}, err
	}

	thenBlock := g.newBlock("if.then")
	var elseBlock *ir.Block
	if len(n.ElseBody) > 0 {
		elseBlock = g.newBlock("if.else")
	}
	endBlock := g.newBlock("if.end")

	var incs []*ir.Incoming
	if elseBlock != nil {
		g.block.NewCondBr(cond, thenBlock, elseBlock)
	} else {
		g.block.NewCondBr(cond, thenBlock, endBlock)
		incs = append(incs, ir.NewIncoming(constant.NewFloat(types.Double, 0), g.block))
	}

	branch := func(block *ir.Block, body []ast.Node) error {
		g.block = block
		v, err := g.genNodes(body)
		if err != nil {
			return err
		}
		if g.block.Term != nil {
			return nil
		}
		x, err := g.asFloat(v, "`if` branch result")
		if err != nil {
			return err
		}
		g.block.NewBr(endBlock)
		incs = append(incs, ir.NewIncoming(x, g.block))
		return nil
	}

	if err := branch(thenBlock, n.Body); err != nil {
		return Value{}, err
	}
	if elseBlock != nil {
		if err := branch(elseBlock, n.ElseBody); err != nil {
			return Value{}, err
		}
	}

	g.block = endBlock
	if len(incs) == 0 {
		return zero(), nil
	}
	return floatValue(endBlock.NewPhi(incs...)), nil
}

func (g *Generator) genCall(n *ast.FnCallExpr) (Value, error) {
	callee, ok := g.lookupFunc(n.Name)
	if !ok || isReserved(n.Name) {
		return Value{}, diag.Errorf(diag.UndefinedFunction, "Function `%s` is not defined.", n.Name)
	}
	if len(callee.Params) != len(n.Args) {
		return Value{}, diag.Errorf(diag.TypeMismatch,
			"Function `%s` takes %d argument(s), but %d were given.", n.Name, len(callee.Params), len(n.Args))
	}

	args := make([]value.Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := g.genNode(arg)
		if err != nil {
			return Value{}, err
		}
		x, err := g.asFloat(v, fmt.Sprintf("Argument %d of `%s`", i+1, n.Name))
		if err != nil {
			return Value{}, err
		}
		args[i] = x
	}

	return floatValue(g.block.NewCall(callee, args...)), nil
}
