package lexer

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/laspa-lang/laspa/pkg/ast"
	"github.com/laspa-lang/laspa/pkg/token"
)

type Lexer struct {
	start     int
	current   int
	line      int
	lineBegin int
	sentences []token.Sentence

	Module *ast.Module
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.Module.Source)
}

func (l *Lexer) advance() byte {
	l.current++
	return l.Module.Source[l.current-1]
}

func (l *Lexer) addSentence(end int) {
	l.sentences = append(l.sentences, token.Sentence{
		Text: l.Module.Source[l.start:end],
		Pos:  token.Pos{Line: l.line, Column: l.start - l.lineBegin + 1},
	})
}

// ScanSentence consumes source up to and including the next `;` or newline.
func (l *Lexer) ScanSentence() {
	for !l.isAtEnd() {
		c := l.advance()

		switch c {
		case ';':
			l.addSentence(l.current - 1)
			return
		case '\n':
			l.addSentence(l.current - 1)
			l.line++
			l.lineBegin = l.current
			return
		}
	}

	l.addSentence(l.current)
}

// Lex splits the module's source into sentences. Lexing cannot fail: blank
// and whitespace-only sentences are kept and skipped by the parser.
func Lex(m *ast.Module) {
	l := Lexer{Module: m, line: 1}

	for !l.isAtEnd() {
		// we are at the beginning of the next sentence.
		l.start = l.current
		l.ScanSentence()
	}

	m.Sentences = l.sentences
}

func isParen(r rune) bool {
	return r == '(' || r == ')'
}

// Tokenize splits a sentence on whitespace. Parentheses always form tokens of
// their own so `sum(1 2)` and `sum (1 2)` tokenize the same way. A word
// starting with `//` begins a comment which swallows the rest of the
// sentence.
func Tokenize(s token.Sentence) []token.Token {
	var tokens []token.Token
	text := s.Text

	pos := func(offset int) token.Pos {
		return token.Pos{Line: s.Pos.Line, Column: s.Pos.Column + offset}
	}

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])

		if unicode.IsSpace(r) {
			i += size
			continue
		}

		if isParen(r) {
			tokens = append(tokens, token.Token{
				Lexeme: string(r),
				Type:   token.Classify(string(r)),
				Pos:    pos(i),
			})
			i += size
			continue
		}

		if strings.HasPrefix(text[i:], "//") {
			tokens = append(tokens, token.Token{
				Lexeme: strings.TrimSpace(text[i:]),
				Type:   token.COMMENT,
				Pos:    pos(i),
			})
			i = len(text)
			break
		}

		start := i
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) || isParen(r) {
				break
			}
			i += size
		}

		lexeme := text[start:i]
		typ := token.Classify(lexeme)
		if typ == token.IDENTIFIER {
			if _, err := strconv.ParseFloat(lexeme, 64); err == nil || errors.Is(err, strconv.ErrRange) {
				typ = token.NUMBER
			}
		}

		tokens = append(tokens, token.Token{Lexeme: lexeme, Type: typ, Pos: pos(start)})
	}

	tokens = append(tokens, token.Token{Lexeme: "\x00", Type: token.EOF, Pos: pos(len(text))})
	return tokens
}
