// Package errors provides centralized error definitions for the application.
// Errors are organized by pipeline concern to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
//
// Recoverable errors (fetch, language detection, empty documents) are handled
// where they occur and logged. Schema errors abort the run.
package errors

import "errors"

// Ingestion errors.
var (
	// ErrFetch indicates a network, HTTP or parse failure for a single URL.
	// The URL is skipped and the batch continues.
	ErrFetch = errors.New("fetch failed")

	// ErrEmptyArticle indicates the fetched page contained no article body.
	ErrEmptyArticle = errors.New("empty article body")
)

// Text analysis errors.
var (
	// ErrLanguageDetection indicates the language of a text could not be identified.
	// Callers treat the text as not English.
	ErrLanguageDetection = errors.New("language detection failed")

	// ErrEmptyDocument indicates a document has no sentences or no tokens.
	// Aggregates over such documents are zero.
	ErrEmptyDocument = errors.New("empty document")
)

// Dataset errors.
var (
	// ErrSchema indicates a dataset is missing an expected column or its header
	// does not match the schema being appended. Fatal for the run.
	ErrSchema = errors.New("dataset schema mismatch")

	// ErrMissingDataset indicates a stage input file does not exist. Fatal for the run.
	ErrMissingDataset = errors.New("dataset not found")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownMode indicates an unsupported run mode.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrUnknownBackend indicates an unsupported storage backend.
	ErrUnknownBackend = errors.New("unknown backend")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
