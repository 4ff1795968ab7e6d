// Package portfolio loads, validates and serves the portfolio Fact Set.
package portfolio

import "fmt"

// LoadError represents an error during file I/O or decoding
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error: %s (%s): %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("load error: %s (%s)", e.Message, e.Path)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// InvalidFactsError reports a Fact Set that failed schema or struct validation
type InvalidFactsError struct {
	Source string
	Cause  error
}

func (e *InvalidFactsError) Error() string {
	return fmt.Sprintf("invalid portfolio facts in %s: %v", e.Source, e.Cause)
}

func (e *InvalidFactsError) Unwrap() error {
	return e.Cause
}
