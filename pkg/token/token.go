package token

type TokenType int

const (
	NUMBER TokenType = iota
	IDENTIFIER
	EOF

	KEYWORD_BEGIN
	LET
	MUTATE
	RETURN
	WHILE
	IF
	ELSE
	END
	FN
	PRINT
	KEYWORD_END

	LEFT_PAREN
	RIGHT_PAREN
	COMMENT

	binaryop_begin
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT

	GREATER
	LESSER
	EQUAL_EQUAL
	binaryop_end
)

func (t TokenType) IsBinaryOperator() bool {
	return t > binaryop_begin && t < binaryop_end
}

func (t TokenType) IsKeyword() bool {
	return t > KEYWORD_BEGIN && t < KEYWORD_END
}

type Token struct {
	Lexeme string
	Type   TokenType
	Pos    Pos
}

type Pos struct {
	Line   int
	Column int
}

// Sentence is a single statement of source text, as split by the lexer.
type Sentence struct {
	Text string
	Pos  Pos
}

// Keywords is indexed in the same order as the keyword token types.
var Keywords = [...]string{
	"let",
	":=",
	"return",
	"while",
	"if",
	"else",
	"end",
	"fn",
	"print",
}

var Operators = map[string]TokenType{
	"+":  PLUS,
	"-":  MINUS,
	"*":  STAR,
	"/":  SLASH,
	"%":  PERCENT,
	">":  GREATER,
	"<":  LESSER,
	"==": EQUAL_EQUAL,
}

// Classify returns the token type of a single whitespace separated lexeme.
// Anything that is not a keyword, operator, paren or comment marker is an
// IDENTIFIER; numbers are told apart from names by the parser.
func Classify(lexeme string) TokenType {
	for i, kw := range Keywords {
		if kw == lexeme {
			return TokenType(int(KEYWORD_BEGIN) + i + 1)
		}
	}

	if op, ok := Operators[lexeme]; ok {
		return op
	}

	switch lexeme {
	case "(":
		return LEFT_PAREN
	case ")":
		return RIGHT_PAREN
	case "//":
		return COMMENT
	}

	return IDENTIFIER
}
