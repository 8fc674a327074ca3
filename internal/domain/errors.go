package domain

import (
	"errors"
	"sort"
	"strings"
)

// Catalog errors
var (
	ErrExpansionNotFound    = errors.New("expansion not found")
	ErrExpansionNotImported = errors.New("expansion has not been imported")
	ErrAmbiguousExpansion   = errors.New("expansion identifier matches more than one expansion")
	ErrCardNotFound         = errors.New("card not found")
)

// Ledger errors
var (
	ErrUserCardNotFound = errors.New("user card not found")
)

// NonFieldErrors is the field key used for errors about the row as a whole.
const NonFieldErrors = "non_field_errors"

// ValidationError collects per-field messages for input that cannot be stored.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an error with a single field message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, exists := v.Fields[field]; !exists {
		v.Fields[field] = message
	}
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
