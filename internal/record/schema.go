package record

import (
	"fmt"

	"platepipe/internal/services"
)

// Schema declares which metadata fields a consuming stage requires.
type Schema struct {
	Required []Field
}

// MissingFieldError reports a Record that lacks a field its consuming stage
// requires. It classifies as a configuration failure: the input table, not
// the pipeline, is what needs correcting.
type MissingFieldError struct {
	Field Field
	Path  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record %s: missing required field %q", e.Path, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return services.ErrConfiguration }

// Validate rejects the record when any required field is absent or empty.
func (s Schema) Validate(r Record) error {
	for _, field := range s.Required {
		if _, ok := r.Get(field); !ok {
			return &MissingFieldError{Field: field, Path: r.Path()}
		}
	}
	return nil
}
