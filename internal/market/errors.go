package market

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound means a referenced announcement, category or user does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means the operation needs an authenticated actor.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the actor is authenticated but may not perform
	// the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means the announcement is no longer in a status that
	// allows the transition, usually because another request got there first.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned by Authenticate.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries user-facing messages keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := e.fields()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the message of the alphabetically first field, or an empty
// string when there are none.
func (e *ValidationError) First() string {
	keys := e.fields()
	if len(keys) == 0 {
		return ""
	}
	return e.Fields[keys[0]]
}

func (e *ValidationError) fields() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
