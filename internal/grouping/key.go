package grouping

import (
	"fmt"
	"strings"

	"platepipe/internal/record"
	"platepipe/internal/services"
)

// Key is a tuple of named metadata-field values. Two keys are equal iff all
// named fields match by value.
type Key struct {
	fields []record.Field
	values []string
}

// KeyFor computes a record's key over the given ordered field list.
func KeyFor(r record.Record, fields []record.Field) (Key, error) {
	values := make([]string, len(fields))
	for i, field := range fields {
		value, ok := r.Get(field)
		if !ok {
			return Key{}, &MissingGroupingFieldError{Field: field, Path: r.Path()}
		}
		values[i] = value
	}
	return Key{fields: append([]record.Field{}, fields...), values: values}, nil
}

// Fields returns the ordered field names defining the key.
func (k Key) Fields() []record.Field {
	return append([]record.Field{}, k.fields...)
}

// Value returns the key's value for one named field.
func (k Key) Value(field record.Field) (string, bool) {
	for i, f := range k.fields {
		if f == field {
			return k.values[i], true
		}
	}
	return "", false
}

// Equal reports value equality over all named fields. Fields and values are
// compared slot by slot; the rendered string is display-only and could
// collide when a value embeds "field=" text.
func (k Key) Equal(other Key) bool {
	if len(k.fields) != len(other.fields) {
		return false
	}
	for i := range k.fields {
		if k.fields[i] != other.fields[i] || k.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// Project derives a coarser key by keeping only the named fields, all of
// which must be present on the source key.
func (k Key) Project(fields []record.Field) (Key, error) {
	values := make([]string, len(fields))
	for i, field := range fields {
		value, ok := k.Value(field)
		if !ok {
			return Key{}, fmt.Errorf("%w: projection field %q not in key %s", services.ErrValidation, field, k)
		}
		values[i] = value
	}
	return Key{fields: append([]record.Field{}, fields...), values: values}, nil
}

// mapKey joins the values with an unprintable separator. Within one GroupBy
// call every key shares the same field list, so the values alone identify
// the partition without the String() collision surface.
func (k Key) mapKey() string {
	return strings.Join(k.values, "\x1f")
}

// String renders the key canonically, e.g. "batch=B1 plate=P1 well=A1".
func (k Key) String() string {
	parts := make([]string, len(k.fields))
	for i, field := range k.fields {
		parts[i] = string(field) + "=" + k.values[i]
	}
	return strings.Join(parts, " ")
}
