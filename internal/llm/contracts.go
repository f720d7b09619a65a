// Package llm defines the extraction contract the pipeline depends on and
// the retry policy wrapped around it. Concrete clients live in subpackages.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/govdata-ar/rendicion-tracker/internal/schemas"
)

// Record is one schema-validated table row extracted from the document,
// keyed by column name. Records are transient values; they only exist
// between extraction and persistence.
type Record = map[string]any

// ExtractRequest carries one text+schema pair plus run metadata used as
// prompt context.
type ExtractRequest struct {
	Schema    schemas.Entry
	Text      string
	Municipio string
	Periodo   string
}

// Extractor is the interface the pipeline depends on: one call maps a
// text+schema pair to zero or more rows conforming to that schema.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) ([]Record, error)
}

// ErrorKind classifies why an extraction attempt failed.
type ErrorKind string

const (
	KindTransport       ErrorKind = "transport"
	KindMalformedJSON   ErrorKind = "malformed_json"
	KindSchemaViolation ErrorKind = "schema_violation"
)

// ExtractionError is a transient, retryable extraction failure. Malformed
// JSON, schema-validation failures and transport/rate-limit errors all land
// here; the retry policy treats them uniformly.
type ExtractionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError wraps err with its failure classification.
func NewExtractionError(kind ErrorKind, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Err: err}
}

// IsRetryable reports whether err is a transient extraction failure.
func IsRetryable(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// ExtractionFailed is the terminal error for one schema after retries are
// exhausted. It is isolated: the orchestrator logs it and keeps processing
// the remaining schemas, producing zero records for this one.
type ExtractionFailed struct {
	Schema   string
	Attempts int
	LastErr  error
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("extraction for schema %q failed after %d attempts: %v", e.Schema, e.Attempts, e.LastErr)
}

func (e *ExtractionFailed) Unwrap() error {
	return e.LastErr
}
