package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError indicates bad caller input. Surfaced as a 400, never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError indicates a supplier part is already linked to a different
// canonical style. The existing link is never silently re-parented.
type ConflictError struct {
	Supplier       string
	SupplierPartID string
	ExistingStyle  string
	RequestedStyle string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("supplier part %s/%s already linked to style %s, refusing to re-parent to %s",
		e.Supplier, e.SupplierPartID, e.ExistingStyle, e.RequestedStyle)
}

// UpstreamUnavailableError indicates the remote supplier could not be reached
// or kept failing after retries. StatusCode carries the last upstream HTTP
// status when one was received, 0 for pure network failures.
type UpstreamUnavailableError struct {
	Supplier   string
	StatusCode int
	Err        error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("supplier %s unavailable (upstream status %d): %v", e.Supplier, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("supplier %s unavailable: %v", e.Supplier, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsUpstreamUnavailable reports whether err is an UpstreamUnavailableError
func IsUpstreamUnavailable(err error) bool {
	var ue *UpstreamUnavailableError
	return errors.As(err, &ue)
}
