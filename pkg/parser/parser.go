package parser

import (
	"fmt"
	"strconv"

	"github.com/laspa-lang/laspa/pkg/ast"
	"github.com/laspa-lang/laspa/pkg/diag"
	"github.com/laspa-lang/laspa/pkg/lexer"
	"github.com/laspa-lang/laspa/pkg/token"
)

type Parser struct {
	current int // index of the next sentence
	tokens  []token.Token
	pos     int // index into tokens
	depth   int // block nesting depth

	Module *ast.Module
}

func (p *Parser) parseError(t token.Token, message string) error {
	return &diag.Error{
		Kind:    diag.Parse,
		Pos:     t.Pos,
		Msg:     message,
		Context: p.Module.SourceContext(t.Pos),
	}
}

func (p *Parser) peek(distance int) token.Token {
	i := p.pos + distance
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() token.Token {
	t := p.peek(0)
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(typ token.TokenType, message string) (token.Token, error) {
	if p.peek(0).Type != typ {
		return token.Token{}, p.parseError(p.peek(0), message)
	}
	return p.advance(), nil
}

func (p *Parser) atSentenceEnd() bool {
	t := p.peek(0).Type
	return t == token.EOF || t == token.COMMENT
}

// expectSentenceEnd rejects anything but a trailing comment after a complete
// statement.
func (p *Parser) expectSentenceEnd() error {
	if !p.atSentenceEnd() {
		t := p.peek(0)
		return p.parseError(t, fmt.Sprintf("Unexpected token `%s` after end of statement.", t.Lexeme))
	}
	return nil
}

func (p *Parser) nextSentence() bool {
	if p.current >= len(p.Module.Sentences) {
		return false
	}
	p.tokens = lexer.Tokenize(p.Module.Sentences[p.current])
	p.pos = 0
	p.current++
	return true
}

// parseBlock parses sentences until a block sentinel (`end` or `else`) or the
// end of the source. The sentinel token is returned, or nil at end of source.
func (p *Parser) parseBlock() ([]ast.Node, *token.Token, error) {
	nodes := []ast.Node{}

	for p.nextSentence() {
		if p.atSentenceEnd() {
			// blank or comment-only statement
			continue
		}

		if t := p.peek(0); t.Type == token.END || t.Type == token.ELSE {
			p.advance()
			if err := p.expectSentenceEnd(); err != nil {
				return nil, nil, err
			}
			return nodes, &t, nil
		}

		node, err := p.parseStatement()
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, node)
	}

	return nodes, nil, nil
}

// parseBody parses the block opened by the keyword token `opener`, up to the
// matching `end`. When allowElse is set a single `else` splits the block
// into two bodies.
func (p *Parser) parseBody(opener token.Token, allowElse bool) ([]ast.Node, []ast.Node, error) {
	p.depth++
	defer func() { p.depth-- }()

	body, sentinel, err := p.parseBlock()
	if err != nil {
		return nil, nil, err
	}
	if sentinel == nil {
		return nil, nil, p.parseError(opener, fmt.Sprintf("Unclosed block: missing `end` for `%s`.", opener.Lexeme))
	}
	if sentinel.Type == token.END {
		return body, []ast.Node{}, nil
	}
	if !allowElse {
		return nil, nil, p.parseError(*sentinel, fmt.Sprintf("Unexpected `else` in `%s` block.", opener.Lexeme))
	}

	elseBody, sentinel, err := p.parseBlock()
	if err != nil {
		return nil, nil, err
	}
	if sentinel == nil {
		return nil, nil, p.parseError(opener, fmt.Sprintf("Unclosed block: missing `end` for `%s`.", opener.Lexeme))
	}
	if sentinel.Type == token.ELSE {
		return nil, nil, p.parseError(*sentinel, "Unexpected `else`: `if` already has an else branch.")
	}

	return body, elseBody, nil
}

func (p *Parser) parseStatement() (ast.Node, error) {
	t := p.peek(0)

	switch t.Type {
	case token.LET, token.MUTATE:
		p.advance()
		name, err := p.expectName(fmt.Sprintf("Expect variable name after `%s`.", t.Lexeme))
		if err != nil {
			return nil, err
		}
		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expectSentenceEnd(); err != nil {
			return nil, err
		}

		if t.Type == token.LET {
			return &ast.BindExpr{Name: name.Lexeme, Value: value}, nil
		}
		return &ast.MutateExpr{Name: name.Lexeme, Value: value}, nil
	case token.RETURN, token.PRINT:
		p.advance()
		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expectSentenceEnd(); err != nil {
			return nil, err
		}

		if t.Type == token.RETURN {
			return &ast.ReturnExpr{Value: value}, nil
		}
		return &ast.PrintStdoutExpr{Value: value}, nil
	case token.WHILE:
		p.advance()
		condition, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expectSentenceEnd(); err != nil {
			return nil, err
		}

		body, _, err := p.parseBody(t, false)
		if err != nil {
			return nil, err
		}
		return &ast.WhileExpr{Condition: condition, Body: body}, nil
	case token.IF:
		p.advance()
		condition, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expectSentenceEnd(); err != nil {
			return nil, err
		}

		body, elseBody, err := p.parseBody(t, true)
		if err != nil {
			return nil, err
		}
		return &ast.IfExpr{Condition: condition, Body: body, ElseBody: elseBody}, nil
	case token.FN:
		return p.parseFunction()
	}

	expr, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if err := p.expectSentenceEnd(); err != nil {
		return nil, err
	}
	// comment-only sentences never get here, so expr holds exactly one node
	return expr[0], nil
}

func (p *Parser) expectName(message string) (token.Token, error) {
	t := p.peek(0)
	if t.Type != token.IDENTIFIER {
		if t.Type == token.EOF || t.Type == token.COMMENT {
			return token.Token{}, p.parseError(t, message)
		}
		return token.Token{}, p.parseError(t, fmt.Sprintf("%s Found `%s` instead.", message, t.Lexeme))
	}
	return p.advance(), nil
}

func (p *Parser) parseFunction() (ast.Node, error) {
	fnToken := p.advance()

	if p.depth > 0 {
		return nil, p.parseError(fnToken, "Functions may only be declared at the top level.")
	}

	name, err := p.expectName("Expect function name after `fn`.")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LEFT_PAREN, "Expect `(` after function name."); err != nil {
		return nil, err
	}

	args := []ast.Node{}
	seen := make(map[string]bool)
	for p.peek(0).Type != token.RIGHT_PAREN {
		param, err := p.expectName("Expect parameter name or `)` in parameter list.")
		if err != nil {
			return nil, err
		}
		if seen[param.Lexeme] {
			return nil, p.parseError(param, fmt.Sprintf("Duplicate parameter `%s`.", param.Lexeme))
		}
		seen[param.Lexeme] = true
		args = append(args, &ast.Variable{Name: param.Lexeme})
	}
	p.advance() // skip the `)`

	if err := p.expectSentenceEnd(); err != nil {
		return nil, err
	}

	fn := &ast.FnExpr{Name: name.Lexeme, Args: args}
	// Declared before the body is parsed so the function can call itself.
	if !p.Module.Functions.Declare(fn) {
		return nil, p.parseError(name, fmt.Sprintf("Function `%s` is already declared.", name.Lexeme))
	}

	body, _, err := p.parseBody(fnToken, false)
	if err != nil {
		return nil, err
	}
	fn.Body = body

	return fn, nil
}

// parseOperand parses one prefix expression. A comment in operand position
// runs to the end of the sentence and yields an empty operand.
func (p *Parser) parseOperand() ([]ast.Node, error) {
	t := p.peek(0)

	switch {
	case t.Type == token.EOF:
		return nil, p.parseError(t, "Missing operand.")
	case t.Type == token.COMMENT:
		// not consumed: every remaining operand of the sentence is empty too
		return []ast.Node{}, nil
	case t.Type.IsBinaryOperator():
		p.advance()
		op, _ := ast.OpFromToken(t.Type)

		lhs, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return []ast.Node{&ast.BinaryExpr{Op: op, Lhs: lhs, Rhs: rhs}}, nil
	case t.Type == token.NUMBER || t.Type == token.IDENTIFIER:
		p.advance()

		if fn, ok := p.Module.Functions.Lookup(t.Lexeme); ok {
			call, err := p.parseCall(t, fn)
			if err != nil {
				return nil, err
			}
			return []ast.Node{call}, nil
		}

		if t.Type == token.NUMBER {
			// ParseFloat returns ±Inf alongside a range error, which is
			// what we want for literals such as 1e400.
			value, _ := strconv.ParseFloat(t.Lexeme, 64)
			return []ast.Node{&ast.Number{Value: value}}, nil
		}
		return []ast.Node{&ast.Variable{Name: t.Lexeme}}, nil
	case t.Type.IsKeyword():
		return nil, p.parseError(t, fmt.Sprintf("Unexpected keyword `%s`, expected an expression.", t.Lexeme))
	}

	return nil, p.parseError(t, fmt.Sprintf("Unexpected token `%s`, expected an expression.", t.Lexeme))
}

func (p *Parser) parseCall(callee token.Token, fn *ast.FnExpr) (ast.Node, error) {
	if _, err := p.expect(token.LEFT_PAREN, fmt.Sprintf("Expect `(` after `%s` to call it.", callee.Lexeme)); err != nil {
		return nil, err
	}

	args := []ast.Node{}
	for p.peek(0).Type != token.RIGHT_PAREN {
		if p.atSentenceEnd() {
			return nil, p.parseError(p.peek(0), "Missing closing parenthesis in function call.")
		}
		arg, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		args = append(args, arg...)
	}
	p.advance() // skip the `)`

	if len(args) != len(fn.Args) {
		return nil, p.parseError(callee, fmt.Sprintf(
			"Function `%s` takes %d argument(s), but %d were given.",
			fn.Name, len(fn.Args), len(args),
		))
	}

	return &ast.FnCallExpr{Name: fn.Name, Args: args}, nil
}

// Parse turns the module's sentences into nodes, declaring functions in the
// module's function table as they are encountered. A call is only
// recognised when its callee was declared earlier in the source.
func Parse(m *ast.Module) error {
	if m.Functions == nil {
		m.Functions = make(ast.FunctionTable)
	}

	p := Parser{Module: m}

	nodes, sentinel, err := p.parseBlock()
	if err != nil {
		return err
	}
	if sentinel != nil {
		return p.parseError(*sentinel, fmt.Sprintf("Unexpected `%s` outside of a block.", sentinel.Lexeme))
	}

	m.Nodes = nodes
	return nil
}
