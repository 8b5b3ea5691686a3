// Package interp is a tree-walking evaluator for parsed modules.
package interp

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/laspa-lang/laspa/pkg/ast"
	"github.com/laspa-lang/laspa/pkg/diag"
	"github.com/laspa-lang/laspa/pkg/logging"
)

// Scope binds variable names to values for one frame.
type Scope map[string]float64

type Interpreter struct {
	Functions ast.FunctionTable
	Stdout    io.Writer

	depth int
}

// New returns an interpreter resolving calls through functions and writing
// `print` output to stdout. A nil stdout means os.Stdout.
func New(functions ast.FunctionTable, stdout io.Writer) *Interpreter {
	if functions == nil {
		functions = make(ast.FunctionTable)
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Interpreter{Functions: functions, Stdout: stdout}
}

// Eval evaluates nodes in scope. See (*Interpreter).Eval.
func Eval(nodes []ast.Node, scope Scope, functions ast.FunctionTable, stdout io.Writer) (float64, error) {
	return New(functions, stdout).Eval(nodes, scope)
}

// Run evaluates the module's top-level statements in a fresh global scope.
func Run(m *ast.Module, stdout io.Writer) (float64, error) {
	return New(m.Functions, stdout).Eval(m.Nodes, make(Scope))
}

// Eval walks nodes left to right. The result is the value of the last
// `return` evaluated in the sequence, or the value of the last node when no
// `return` was reached. A `return` does not stop evaluation of the sequence.
func (in *Interpreter) Eval(nodes []ast.Node, scope Scope) (float64, error) {
	var last float64
	var ret float64
	returned := false

	for _, node := range nodes {
		switch n := node.(type) {
		case *ast.ReturnExpr:
			v, err := in.Eval(n.Value, scope)
			if err != nil {
				return 0, err
			}
			ret, returned = v, true
			last = 0
		default:
			v, err := in.evalNode(node, scope)
			if err != nil {
				return 0, err
			}
			last = v
		}
	}

	if returned {
		return ret, nil
	}
	return last, nil
}

func (in *Interpreter) evalNode(node ast.Node, scope Scope) (float64, error) {
	switch n := node.(type) {
	case *ast.Number:
		return n.Value, nil
	case *ast.BinaryExpr:
		lhs, err := in.Eval(n.Lhs, scope)
		if err != nil {
			return 0, err
		}
		rhs, err := in.Eval(n.Rhs, scope)
		if err != nil {
			return 0, err
		}
		return apply(n.Op, lhs, rhs), nil
	case *ast.BindExpr:
		v, err := in.Eval(n.Value, scope)
		if err != nil {
			return 0, err
		}
		scope[n.Name] = v
		return v, nil
	case *ast.MutateExpr:
		v, err := in.Eval(n.Value, scope)
		if err != nil {
			return 0, err
		}
		if _, ok := scope[n.Name]; !ok {
			return 0, diag.Errorf(diag.UndefinedVariable, "Cannot assign to undeclared variable `%s`.", n.Name)
		}
		scope[n.Name] = v
		return v, nil
	case *ast.Variable:
		v, ok := scope[n.Name]
		if !ok {
			return 0, diag.Errorf(diag.UndefinedVariable, "Variable `%s` is not defined.", n.Name)
		}
		return v, nil
	case *ast.ReturnExpr:
		return in.Eval([]ast.Node{n}, scope)
	case *ast.WhileExpr:
		for {
			cond, err := in.Eval(n.Condition, scope)
			if err != nil {
				return 0, err
			}
			if cond == 0 {
				return 0, nil
			}
			if _, err := in.Eval(n.Body, scope); err != nil {
				return 0, err
			}
		}
	case *ast.IfExpr:
		cond, err := in.Eval(n.Condition, scope)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return in.Eval(n.Body, scope)
		}
		return in.Eval(n.ElseBody, scope)
	case *ast.FnExpr:
		// the function table already holds the definition
		return 0, nil
	case *ast.FnCallExpr:
		return in.call(n, scope)
	case *ast.PrintStdoutExpr:
		v, err := in.Eval(n.Value, scope)
		if err != nil {
			return 0, err
		}
		if _, err := fmt.Fprintf(in.Stdout, "%.16g\n", v); err != nil {
			return 0, fmt.Errorf("print: %w", err)
		}
		return 0, nil
	}

	return 0, fmt.Errorf("interp: unknown node %T", node)
}

func (in *Interpreter) call(n *ast.FnCallExpr, scope Scope) (float64, error) {
	fn, ok := in.Functions.Lookup(n.Name)
	if !ok {
		return 0, diag.Errorf(diag.UndefinedFunction, "Function `%s` is not defined.", n.Name)
	}

	params := fn.Params()
	if len(params) != len(n.Args) {
		return 0, diag.Errorf(diag.TypeMismatch,
			"Function `%s` takes %d argument(s), but %d were given.", n.Name, len(params), len(n.Args))
	}

	// Arguments are evaluated in the caller's scope and bound in a fresh
	// one: the callee sees nothing of its caller.
	frame := make(Scope, len(params))
	for i, arg := range n.Args {
		v, err := in.Eval([]ast.Node{arg}, scope)
		if err != nil {
			return 0, err
		}
		frame[params[i]] = v
	}

	in.depth++
	defer func() { in.depth-- }()
	if logging.TraceEnabled() {
		logging.Trace("call", "function", n.Name, "depth", in.depth)
	}

	return in.Eval(fn.Body, frame)
}

func apply(op ast.Op, lhs, rhs float64) float64 {
	switch op {
	case ast.Add:
		return lhs + rhs
	case ast.Sub:
		return lhs - rhs
	case ast.Mul:
		return lhs * rhs
	case ast.Div:
		return lhs / rhs
	case ast.Mod:
		return math.Mod(lhs, rhs)
	case ast.Gt:
		return truth(lhs > rhs)
	case ast.Lt:
		return truth(lhs < rhs)
	case ast.Eq:
		return truth(lhs == rhs)
	}
	return math.NaN()
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
