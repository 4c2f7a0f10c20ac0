package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors shared by the repositories, the integrity coordinator and
// the HTTP layer. Test with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store error")
)

// FieldError describes a validation problem with a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries user-displayable messages for rejected input.
type ValidationError struct {
	// Message, when set, summarizes all field errors.
	Message string
	Errors  []FieldError
}

// Error returns the summary, or the first field message, so the value can be
// shown to users as-is.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) == 0 {
		return ErrValidation.Error()
	}
	return e.Errors[0].Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Fields maps field name to message, keeping the first message per field.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError reports a missing document of the given kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound creates a NotFoundError.
func NewNotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// CascadeError is returned when a movie was deleted but removing its id from
// collections did not complete. The movie stays deleted; affected
// collections keep a dangling reference until the next integrity sweep.
//
// ScanErr is set when the collections could not even be listed. Which
// collections still reference the movie is then unknown and Failed is empty.
type CascadeError struct {
	MovieID string
	Failed  map[string]error // collection id -> write error
	ScanErr error
}

func (e *CascadeError) Error() string {
	if e.ScanErr != nil {
		return fmt.Sprintf("movie %s deleted but collections could not be scanned: %v",
			e.MovieID, e.ScanErr)
	}
	ids := e.CollectionIDs()
	return fmt.Sprintf("movie %s deleted but %d collection(s) still reference it: %s",
		e.MovieID, len(ids), strings.Join(ids, ", "))
}

// Unwrap exposes ErrStore, the scan failure and every individual write
// failure.
func (e *CascadeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+2)
	errs = append(errs, ErrStore)
	if e.ScanErr != nil {
		errs = append(errs, e.ScanErr)
	}
	for _, id := range e.CollectionIDs() {
		errs = append(errs, e.Failed[id])
	}
	return errs
}

// CollectionIDs returns the failed collection ids in sorted order.
func (e *CascadeError) CollectionIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
