// Package apperr defines the error taxonomy shared by all services.
// Every service failure is one of these types; handlers map them to
// HTTP responses without inspecting service internals.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HTTPError is implemented by errors that map to an HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors for use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries a field-keyed map of messages. The request
// was not applied.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func (e *ValidationError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// FromOzzo converts an ozzo-validation result into a ValidationError.
// Returns nil when err is nil.
func FromOzzo(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for field, ferr := range verrs {
			fields[field] = append(fields[field], ferr.Error())
		}
		return &ValidationError{Fields: fields}
	}
	return NewValidation("message", err.Error())
}

// NotFoundError indicates a referenced id does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError indicates a uniqueness violation. Surfaced to the
// caller as a field-level error, not a crash.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// DependencyError is returned when deleting a parent that still has
// dependent children and no confirmation was supplied. Counts holds
// the number of dependents per kind for the warning message.
type DependencyError struct {
	Resource string
	Counts   map[string]int64
}

func (e *DependencyError) Error() string {
	kinds := make([]string, 0, len(e.Counts))
	for kind := range e.Counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	msg := "this " + e.Resource + " has"
	for i, kind := range kinds {
		if i > 0 {
			msg += " and"
		}
		msg += fmt.Sprintf(" %d %s", e.Counts[kind], kind)
	}
	return msg + ", confirm to delete"
}

func (e *DependencyError) StatusCode() int { return http.StatusConflict }

// StorageError wraps a blob storage failure.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error for %s: %v", e.Path, e.Err)
}

func (e *StorageError) StatusCode() int { return http.StatusInternalServerError }

func (e *StorageError) Unwrap() error { return e.Err }
