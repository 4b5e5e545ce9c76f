// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Lookup errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrExperimentNotFound indicates no result files exist for a linker/benchmark pair.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrArticleNotFound indicates the requested article index is out of range.
	ErrArticleNotFound = errors.New("article not found")
)

// Result file errors.
var (
	// ErrMalformedResults indicates a result file could not be parsed.
	ErrMalformedResults = errors.New("malformed result file")

	// ErrCaseCountMismatch indicates the cases file and the benchmark disagree on article count.
	ErrCaseCountMismatch = errors.New("case count does not match article count")
)

// Viewer errors.
var (
	// ErrNoData indicates experiment data did not become ready in time.
	ErrNoData = errors.New("no data")

	// ErrLoadFailed indicates loading experiment data failed.
	ErrLoadFailed = errors.New("loading experiment data failed")

	// ErrStale indicates a newer request superseded this one.
	ErrStale = errors.New("stale request")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)
