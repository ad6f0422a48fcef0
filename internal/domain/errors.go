// Package domain holds the quotebook model: quotes, the favorites set, the
// cache load state, and the errors adapters translate into transport
// responses.
package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every typed error below unwraps to one of them.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("unavailable")
	ErrNotReady    = errors.New("not ready")
)

// NotFoundError reports a missing entity, such as an absent storage key.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError. id may be empty.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports input that breaks a model rule. Field is the
// wire name of the offending field and may be empty.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UnavailableError reports a dependency that could not serve a request.
// The quote source uses it for failed fetches, storage for failed writes.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s unavailable", e.Service)
	}

	return fmt.Sprintf("%s unavailable: %s", e.Service, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError creates an UnavailableError.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// NotReadyError reports a search attempted while the quote cache is not
// loaded. State tells callers whether waiting can help.
type NotReadyError struct {
	State LoadState
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("quotes not ready (state: %s)", e.State)
}

func (e *NotReadyError) Unwrap() error { return ErrNotReady }

// NewNotReadyError creates a NotReadyError for state.
func NewNotReadyError(state LoadState) error {
	return &NotReadyError{State: state}
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err wraps ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsUnavailable reports whether err wraps ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsNotReady reports whether err wraps ErrNotReady.
func IsNotReady(err error) bool { return errors.Is(err, ErrNotReady) }
