package errors

import (
	"fmt"

	"github.com/pontaoski/plc/types"
)

// ParseError is raised by the lexer and the parser. Index is the rune
// offset of the offending token, or the end of input.
type ParseError struct {
	Message string
	Index   int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s (at index %d)", e.Message, e.Index)
}

// Located renders the error with a line and column computed from source.
func (e ParseError) Located(source []rune, filename string) string {
	return fmt.Sprintf("%s: %s", types.PositionOf(source, e.Index, filename), e.Message)
}

func Expected(what string, index int) ParseError {
	return ParseError{
		Message: fmt.Sprintf("Expected %s.", what),
		Index:   index,
	}
}

type AnalysisError struct {
	Message string
}

func (e AnalysisError) Error() string {
	return e.Message
}

func NewAnalysisError(msg string, fmts ...interface{}) AnalysisError {
	return AnalysisError{Message: fmt.Sprintf(msg, fmts...)}
}

type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return e.Message
}

func NewRuntimeError(msg string, fmts ...interface{}) RuntimeError {
	return RuntimeError{Message: fmt.Sprintf(msg, fmts...)}
}
