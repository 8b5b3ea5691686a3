// Package diag holds the error taxonomy shared by every compilation stage.
//
// Errors are values of type *Error carrying a Kind. Callers test for a kind
// with errors.Is:
//
//	if errors.Is(err, diag.UndefinedVariable) { ... }
package diag

import (
	"fmt"

	"github.com/laspa-lang/laspa/pkg/token"
)

type Kind int

const (
	Parse Kind = iota + 1
	UndefinedVariable
	UndefinedFunction
	TypeMismatch
	Verification
	ExternalTool
	Config
)

var kindNames = map[Kind]string{
	Parse:             "parse-error",
	UndefinedVariable: "undefined-variable",
	UndefinedFunction: "undefined-function",
	TypeMismatch:      "type-mismatch",
	Verification:      "verification-error",
	ExternalTool:      "external-tool-error",
	Config:            "config-error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error(%d)", int(k))
}

// Error lets a Kind be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

type Error struct {
	Kind Kind
	Pos  token.Pos
	Msg  string

	// Context is an optional rendered source excerpt.
	Context string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}

	s := e.Kind.String() + ": "
	if e.Pos.Line > 0 {
		s += fmt.Sprintf("%d:%d: ", e.Pos.Line, e.Pos.Column)
	}
	s += msg

	if e.Context != "" {
		s = e.Context + "\n" + s
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
