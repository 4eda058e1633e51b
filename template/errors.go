package template

import "errors"

var (
	// ErrParse is returned when the template text is malformed.
	ErrParse = errors.New("template parse error")

	// ErrExecute is returned when rendering fails, including references to
	// variables that were not provided.
	ErrExecute = errors.New("template execution error")
)
