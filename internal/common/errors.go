// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Common application errors.
var (
	ErrNotFound = errors.New("not found")

	// Session errors.
	ErrNoToken       = errors.New("no session token")
	ErrNotAuthorized = errors.New("not logged in")
	ErrStoreClosed   = errors.New("store closed")
	ErrValidation    = errors.New("validation failed")

	// Remote API error kinds, matched with errors.Is against *APIError.
	ErrTransport = errors.New("transport error")
	ErrClient    = errors.New("client error")
	ErrServer    = errors.New("server error")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// ErrorKind classifies a failed remote call.
type ErrorKind string

const (
	// KindTransport means the request never reached the server.
	KindTransport ErrorKind = "transport"
	// KindClient is a 4xx response.
	KindClient ErrorKind = "client"
	// KindServer is a 5xx response.
	KindServer ErrorKind = "server"
	// KindRequest means the request could not be built or sent.
	KindRequest ErrorKind = "request"
)

// APIError is a classified failure of a remote call.
type APIError struct {
	Err         error
	Kind        ErrorKind
	Message     string // message field from the response body, if any
	UserMessage string
	Status      int
}

func (e *APIError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s error: %d %s: %s", e.Kind, e.Status, http.StatusText(e.Status), e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s error: %d %s", e.Kind, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error", e.Kind)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrClient:
		return e.Kind == KindClient
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}

// ValidationError is raised before any network call when user input is invalid.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a validation error for a form field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UserMessage extracts the text that should be shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.UserMessage != "" {
		return apiErr.UserMessage
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}

	return err.Error()
}
