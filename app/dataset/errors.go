package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput    = errors.New("intermediate dataset not found")
	ErrMalformedInput  = errors.New("intermediate dataset is not a JSON array")
	ErrSchemaViolation = errors.New("dataset item violates schema")
)

// SchemaError identifies the first item that failed validation.
type SchemaError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("item %d: field %q %s", e.Index, e.Field, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaViolation
}
