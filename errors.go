package vtl

import (
	"fmt"
	"strings"
)

// errNoMatch is the internal backtracking signal raised by a parse rule
// that did not match at the cursor. It never escapes the package: every
// exported entry point converts an unrecovered errNoMatch into a
// *SyntaxError before returning to the caller.
var errNoMatch = &vtlError{"no match"}

// vtlError is a plain package-prefixed error, in the style of hucsmn/peg's
// pegError: a single formatted message, no structured fields.
type vtlError struct {
	value string
}

func errorf(format string, v ...interface{}) error {
	return &vtlError{fmt.Sprintf(format, v...)}
}

func (err *vtlError) Error() string {
	return "vtl: " + err.value
}

func isNoMatch(err error) bool {
	e, ok := err.(*vtlError)
	return ok && e == errNoMatch
}

// TemplateError is raised during evaluation of a parsed Template: an
// undefined macro call, a macro redefinition, a macro-call arity
// mismatch, a non-iterable #foreach source, or a failing Loader. The
// parser also returns one for an integer literal that does not fit in 64
// bits.
type TemplateError struct {
	msg string
}

func templateErrorf(format string, v ...interface{}) *TemplateError {
	return &TemplateError{fmt.Sprintf(format, v...)}
}

func (err *TemplateError) Error() string {
	return "vtl: " + err.msg
}

// SyntaxError is raised while parsing a Template, on its first evaluation.
// It reports a 1-based line and column, the text of the offending line, a
// caret string positioning the error under that line, and a human-readable
// "expected X, got Y" message where Y is at most 40 characters of the
// remaining text (truncated with " ...").
type SyntaxError struct {
	Line     int
	Column   int
	LineText string
	Caret    string
	Expected string
	Got      string
}

func newSyntaxError(full string, at int, expected string) *SyntaxError {
	pos := computePosition(full, at)
	lineText := lineAt(full, at)
	got := full[at:]
	if len(got) > 40 {
		got = got[:36] + " ..."
	}
	return &SyntaxError{
		Line:     pos.Line,
		Column:   pos.Column,
		LineText: lineText,
		Caret:    strings.Repeat(" ", pos.Column-1) + "^",
		Expected: expected,
		Got:      got,
	}
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("vtl: line %d, column %d: expected %s, got: %s",
		err.Line, err.Column, err.Expected, err.Got)
}
