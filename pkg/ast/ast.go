package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/laspa-lang/laspa/pkg/token"
)

type Module struct {
	Path      string
	Source    string
	Sentences []token.Sentence
	Nodes     []Node
	Functions FunctionTable
}

// NewModule returns a module ready to be lexed and parsed.
func NewModule(path string, source string) *Module {
	return &Module{
		Path:      path,
		Source:    source,
		Functions: make(FunctionTable),
	}
}

// SourceContext renders the line the position points at (plus its
// neighbours) with a caret under the offending column.
func (m *Module) SourceContext(pos token.Pos) string {
	source := strings.ReplaceAll(m.Source, "\r\n", "\n")
	sourceLines := strings.Split(source, "\n")
	numLines := len(sourceLines)

	if pos.Line < 1 || pos.Line > numLines {
		return ""
	}

	line := sourceLines[pos.Line-1]
	column := pos.Column
	if column < 1 {
		column = 1
	}
	if column > len(line)+1 {
		column = len(line) + 1
	}

	offsetHighlight := make([]byte, column)
	for i := 0; i < column-1; i++ {
		if line[i] == '\t' {
			offsetHighlight[i] = '\t'
		} else {
			offsetHighlight[i] = ' '
		}
	}
	offsetHighlight[column-1] = '^'

	var b strings.Builder
	if pos.Line > 1 {
		fmt.Fprintf(&b, "\n%4d | %s", pos.Line-1, sourceLines[pos.Line-2])
	}
	fmt.Fprintf(&b, "\n%4d | %s", pos.Line, line)
	fmt.Fprintf(&b, "\n     | %s", string(offsetHighlight))
	if pos.Line < numLines {
		fmt.Fprintf(&b, "\n%4d | %s", pos.Line+1, sourceLines[pos.Line])
	}

	return b.String()
}

type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Gt
	Lt
	Eq
)

var opNames = [...]string{"Add", "Sub", "Mul", "Div", "Mod", "Gt", "Lt", "Eq"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// IsComparison reports whether the operator yields a boolean rather than a
// number.
func (o Op) IsComparison() bool {
	return o == Gt || o == Lt || o == Eq
}

// OpFromToken maps an operator token type to its Op.
func OpFromToken(t token.TokenType) (Op, bool) {
	switch t {
	case token.PLUS:
		return Add, true
	case token.MINUS:
		return Sub, true
	case token.STAR:
		return Mul, true
	case token.SLASH:
		return Div, true
	case token.PERCENT:
		return Mod, true
	case token.GREATER:
		return Gt, true
	case token.LESSER:
		return Lt, true
	case token.EQUAL_EQUAL:
		return Eq, true
	}

	return 0, false
}

// Node is one of the variants below. Every operand is a []Node: an operand
// that parsed to nothing (a comment) is an empty sequence and evaluates to 0.
type Node interface {
	isNode()
	String() string
}

type Number struct {
	Value float64
}

type BinaryExpr struct {
	Op  Op
	Lhs []Node
	Rhs []Node
}

// BindExpr introduces or silently overwrites a binding.
type BindExpr struct {
	Name  string
	Value []Node
}

type Variable struct {
	Name string
}

type ReturnExpr struct {
	Value []Node
}

// MutateExpr assigns to a name that must already be bound.
type MutateExpr struct {
	Name  string
	Value []Node
}

type WhileExpr struct {
	Condition []Node
	Body      []Node
}

type IfExpr struct {
	Condition []Node
	Body      []Node
	ElseBody  []Node
}

// FnExpr declares a function. Args holds only *Variable nodes.
type FnExpr struct {
	Name string
	Args []Node
	Body []Node
}

type FnCallExpr struct {
	Name string
	Args []Node
}

type PrintStdoutExpr struct {
	Value []Node
}

func (*Number) isNode()          {}
func (*BinaryExpr) isNode()      {}
func (*BindExpr) isNode()        {}
func (*Variable) isNode()        {}
func (*ReturnExpr) isNode()      {}
func (*MutateExpr) isNode()      {}
func (*WhileExpr) isNode()       {}
func (*IfExpr) isNode()          {}
func (*FnExpr) isNode()          {}
func (*FnCallExpr) isNode()      {}
func (*PrintStdoutExpr) isNode() {}

// Params returns the parameter names of the function in declaration order.
func (f *FnExpr) Params() []string {
	names := make([]string, 0, len(f.Args))
	for _, arg := range f.Args {
		if v, ok := arg.(*Variable); ok {
			names = append(names, v.Name)
		}
	}
	return names
}

// Format renders a node sequence in a compact constructor notation, e.g.
// `Add(Mul(-2, 3), Sub(2, 3.5))`. Sequences of more than one node are
// wrapped in brackets.
func Format(nodes []Node) string {
	if len(nodes) == 1 {
		return nodes[0].String()
	}

	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("%s(%s, %s)", b.Op, Format(b.Lhs), Format(b.Rhs))
}

func (b *BindExpr) String() string {
	return fmt.Sprintf("Let(%s, %s)", b.Name, Format(b.Value))
}

func (v *Variable) String() string {
	return v.Name
}

func (r *ReturnExpr) String() string {
	return fmt.Sprintf("Return(%s)", Format(r.Value))
}

func (m *MutateExpr) String() string {
	return fmt.Sprintf("Set(%s, %s)", m.Name, Format(m.Value))
}

func (w *WhileExpr) String() string {
	return fmt.Sprintf("While(%s, %s)", Format(w.Condition), Format(w.Body))
}

func (i *IfExpr) String() string {
	if len(i.ElseBody) == 0 {
		return fmt.Sprintf("If(%s, %s)", Format(i.Condition), Format(i.Body))
	}
	return fmt.Sprintf("If(%s, %s, %s)", Format(i.Condition), Format(i.Body), Format(i.ElseBody))
}

func (f *FnExpr) String() string {
	return fmt.Sprintf("Fn(%s(%s), %s)", f.Name, strings.Join(f.Params(), " "), Format(f.Body))
}

func (c *FnCallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, " "))
}

func (p *PrintStdoutExpr) String() string {
	return fmt.Sprintf("Print(%s)", Format(p.Value))
}

// FunctionTable is the flat, order-sensitive function namespace of one
// module. It is populated by the parser as `fn` declarations are seen.
type FunctionTable map[string]*FnExpr

func (t FunctionTable) Lookup(name string) (*FnExpr, bool) {
	f, ok := t[name]
	return f, ok
}

// Declare registers a function. It reports false when the name is taken.
func (t FunctionTable) Declare(f *FnExpr) bool {
	if _, ok := t[f.Name]; ok {
		return false
	}
	t[f.Name] = f
	return true
}
