package parser

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/kr/pretty"
	"github.com/laspa-lang/laspa/pkg/ast"
	"github.com/laspa-lang/laspa/pkg/diag"
	"github.com/laspa-lang/laspa/pkg/lexer"
)

func parse(source string) (*ast.Module, error) {
	m := ast.NewModule("test.laspa", source)
	lexer.Lex(m)
	err := Parse(m)
	return m, err
}

func num(v float64) []ast.Node {
	return []ast.Node{&ast.Number{Value: v}}
}

func variable(name string) []ast.Node {
	return []ast.Node{&ast.Variable{Name: name}}
}

func TestParseExpression(t *testing.T) {
	m, err := parse("+ * -2 3 - 2 3.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []ast.Node{
		&ast.BinaryExpr{
			Op: ast.Add,
			Lhs: []ast.Node{&ast.BinaryExpr{
				Op:  ast.Mul,
				Lhs: num(-2),
				Rhs: num(3),
			}},
			Rhs: []ast.Node{&ast.BinaryExpr{
				Op:  ast.Sub,
				Lhs: num(2),
				Rhs: num(3.5),
			}},
		},
	}

	if diff := pretty.Diff(m.Nodes, want); len(diff) > 0 {
		t.Errorf("unexpected AST:\n%s\ndiff: %v", repr.String(m.Nodes, repr.Indent("  ")), diff)
	}
}

var formatTests = []struct {
	input string
	want  string
}{
	{"+ * -2 3 - 2 3.5", "Add(Mul(-2, 3), Sub(2, 3.5))"},
	{"let x 2; let y 1; + x y;", "[Let(x, 2); Let(y, 1); Add(x, y)]"},
	{"let z + x * y 2", "Let(z, Add(x, Mul(y, 2)))"},
	{"% n 2; == n 1; > a b; < a b; / a b", "[Mod(n, 2); Eq(n, 1); Gt(a, b); Lt(a, b); Div(a, b)]"},
	{":= x + x 1", "Set(x, Add(x, 1))"},
	{"return + x i", "Return(Add(x, i))"},
	{"print 42", "Print(42)"},
	{"let x // nothing yet", "Let(x, [])"},
	{"+ 1 // the rest is a comment", "Add(1, [])"},
	{"let x 1 // trailing comment", "Let(x, 1)"},
	{"", "[]"},
	{"// just a comment\n\n;;", "[]"},
	{"while < x 10\n:= x + x 1\nend", "While(Lt(x, 10), Set(x, Add(x, 1)))"},
	{"if < x 1\nreturn 1\nelse\nreturn 2\nend", "If(Lt(x, 1), Return(1), Return(2))"},
	{"if < x y\nreturn y\nend\nreturn x", "[If(Lt(x, y), Return(y)); Return(x)]"},
	{"if 1\nelse\nend", "If(1, [])"},
	{"fn sum (x y)\nreturn + x y\nend\nsum (10 2)", "[Fn(sum(x y), Return(Add(x, y))); sum(10 2)]"},
	{"fn sum(x y); + x y; end; sum(+ 1 2 3)", "[Fn(sum(x y), Add(x, y)); sum(Add(1, 2) 3)]"},
	{"fn one ()\n1\nend\n+ one () one ()", "[Fn(one(), 1); Add(one(), one())]"},
	{"fn fact (n)\nif < n 2\nreturn 1\nend\nreturn * n fact (- n 1)\nend", "Fn(fact(n), [If(Lt(n, 2), Return(1)); Return(Mul(n, fact(Sub(n, 1))))])"},
}

func TestParseFormat(t *testing.T) {
	for _, tt := range formatTests {
		m, err := parse(tt.input)
		if err != nil {
			t.Errorf("parse(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got := ast.Format(m.Nodes); got != tt.want {
			t.Errorf("parse(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseNestedBlocks(t *testing.T) {
	source := `
let x 0;
// let y 0;

while < x 1000
    let i 0;
    while < i 100
        := x + x 1;
        := i + i 1;
    end
end

return + x i;
`
	m, err := parse(source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []ast.Node{
		&ast.BindExpr{Name: "x", Value: num(0)},
		&ast.WhileExpr{
			Condition: []ast.Node{&ast.BinaryExpr{Op: ast.Lt, Lhs: variable("x"), Rhs: num(1000)}},
			Body: []ast.Node{
				&ast.BindExpr{Name: "i", Value: num(0)},
				&ast.WhileExpr{
					Condition: []ast.Node{&ast.BinaryExpr{Op: ast.Lt, Lhs: variable("i"), Rhs: num(100)}},
					Body: []ast.Node{
						&ast.MutateExpr{Name: "x", Value: []ast.Node{&ast.BinaryExpr{Op: ast.Add, Lhs: variable("x"), Rhs: num(1)}}},
						&ast.MutateExpr{Name: "i", Value: []ast.Node{&ast.BinaryExpr{Op: ast.Add, Lhs: variable("i"), Rhs: num(1)}}},
					},
				},
			},
		},
		&ast.ReturnExpr{Value: []ast.Node{&ast.BinaryExpr{Op: ast.Add, Lhs: variable("x"), Rhs: variable("i")}}},
	}

	if diff := pretty.Diff(m.Nodes, want); len(diff) > 0 {
		t.Errorf("unexpected AST, diff: %v", diff)
	}
}

func TestParseFunctionTable(t *testing.T) {
	m, err := parse("fn sum (x y)\nreturn + x y\nend\nfn twice (x)\nsum (x x)\nend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(m.Functions) != 2 {
		t.Fatalf("got %d functions, want 2", len(m.Functions))
	}

	sum, ok := m.Functions.Lookup("sum")
	if !ok {
		t.Fatalf("sum was not declared")
	}
	if diff := pretty.Diff(sum.Params(), []string{"x", "y"}); len(diff) > 0 {
		t.Errorf("sum params: %v", diff)
	}
	if sum != m.Nodes[0] {
		t.Errorf("function table should hold the node from the AST")
	}
}

func TestParseForwardReferenceIsVariable(t *testing.T) {
	// Calls are only recognised once the callee has been declared.
	m, err := parse("later\nfn later ()\n1\nend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.Nodes[0].(*ast.Variable); !ok {
		t.Errorf("forward reference parsed as %T, want *ast.Variable", m.Nodes[0])
	}
}

var parseErrorTests = []struct {
	input string
	error string
}{
	{"+ 1", "1:4: Missing operand"},
	{"let", "Expect variable name after `let`"},
	{"let 1 2", "Expect variable name after `let`. Found `1` instead"},
	{":= x", "Missing operand"},
	{"let x 1 2", "Unexpected token `2` after end of statement"},
	{"while < x 1\n:= x + x 1", "1:1: Unclosed block: missing `end` for `while`"},
	{"if 1\nelse\nelse\nend", "3:1: Unexpected `else`: `if` already has an else branch"},
	{"while 1\nelse\nend", "Unexpected `else` in `while` block"},
	{"end", "1:1: Unexpected `end` outside of a block"},
	{"let x 1\nelse", "2:1: Unexpected `else` outside of a block"},
	{"end 1", "Unexpected token `1` after end of statement"},
	{"let x let", "Unexpected keyword `let`, expected an expression"},
	{")", "Unexpected token `\\)`, expected an expression"},
	{"fn f (x x)\nend", "Duplicate parameter `x`"},
	{"fn f (x)\nend\nfn f (y)\nend", "3:4: Function `f` is already declared"},
	{"fn f x\nend", "Expect `\\(` after function name"},
	{"fn f (x\nend", "Expect parameter name or `\\)` in parameter list"},
	{"fn (x)\nend", "Expect function name after `fn`"},
	{"if 1\nfn g ()\nend\nend", "2:1: Functions may only be declared at the top level"},
	{"fn f (x y)\n+ x y\nend\nf (1)", "4:1: Function `f` takes 2 argument\\(s\\), but 1 were given"},
	{"fn f (x)\nx\nend\nf 1", "Expect `\\(` after `f` to call it"},
	{"fn f (x)\nx\nend\nf (1", "Missing closing parenthesis in function call"},
	{"later (1)", "Unexpected token `\\(` after end of statement"},
}

func TestParseErrors(t *testing.T) {
	for _, tt := range parseErrorTests {
		_, err := parse(tt.input)
		if err == nil {
			t.Errorf("parse(%q): expected an error but found none", tt.input)
			continue
		}
		if !errors.Is(err, diag.Parse) {
			t.Errorf("parse(%q): error %v is not a parse error", tt.input, err)
		}

		matched, matchErr := regexp.MatchString(tt.error, err.Error())
		if matchErr != nil {
			t.Errorf("invalid tt.error (%q): %v", tt.error, matchErr)
		} else if !matched {
			t.Errorf("parse(%q): unexpected error: %v", tt.input, err)
			t.Errorf("parse(%q): expected error matching %q", tt.input, tt.error)
		}
	}
}

func TestParseErrorContext(t *testing.T) {
	_, err := parse("let x 1\nlet y + x\nlet z 3")

	var de *diag.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *diag.Error, got %v", err)
	}

	want := "\n   1 | let x 1\n   2 | let y + x\n     | " + strings.Repeat(" ", 9) + "^\n   3 | let z 3"
	if de.Context != want {
		t.Errorf("context = %q, want %q", de.Context, want)
	}
}
