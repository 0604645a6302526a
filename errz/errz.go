// Package errz defines the error codes and the (code, message, type-name)
// triple reported by the Kronos runtime. The type name is what language-level
// catch filters match against.
package errz

import "fmt"

// Code is the category of a runtime failure.
type Code int

const (
	OK Code = iota
	InvalidArgument
	NotFound
	IO
	Tokenize
	Parse
	Compile
	Runtime
	Internal
)

// String returns the short name of the error code.
func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case IO:
		return "io error"
	case Tokenize:
		return "tokenize error"
	case Parse:
		return "parse error"
	case Compile:
		return "compile error"
	case Runtime:
		return "runtime error"
	case Internal:
		return "internal error"
	default:
		return "error"
	}
}

// TypeName returns the language-level exception type name for the code.
// Explicit `raise` statements override this with their own type name.
func (c Code) TypeName() string {
	switch c {
	case InvalidArgument:
		return "ValueError"
	case NotFound:
		return "NameError"
	case IO:
		return "IOError"
	case Tokenize, Parse:
		return "SyntaxError"
	case Compile:
		return "CompileError"
	case Internal:
		return "InternalError"
	default:
		return "RuntimeError"
	}
}

// Error is the triple recorded on a VM for every failure. TypeName is empty
// until the error is observed by the exception machinery, at which point it
// defaults from the code unless a raise statement supplied one.
type Error struct {
	Code     Code
	Message  string
	TypeName string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.String(), e.Message)
}

// Name returns the exception type name, defaulting from the code.
func (e *Error) Name() string {
	if e.TypeName != "" {
		return e.TypeName
	}
	return e.Code.TypeName()
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with the given code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Raised creates an error carrying an explicit exception type name, as
// produced by a raise statement.
func Raised(typeName, message string) *Error {
	return &Error{Code: Runtime, Message: message, TypeName: typeName}
}
