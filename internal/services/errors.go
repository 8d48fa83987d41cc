package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for both unknown phone numbers and wrong passwords.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUnauthorized       = errors.New("Unauthorized")
	ErrNotFound           = errors.New("Not found")
	ErrBadRequest         = errors.New("Bad request")
)

// ForbiddenError is returned when an authenticated identity lacks a capability.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "Forbidden"
	}
	return e.Reason
}

// DuplicateFieldError is returned when a unique field is already taken.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// UploadFailedError wraps a storage provider failure. StatusCode is the provider's HTTP status when known.
type UploadFailedError struct {
	StatusCode int
	Err        error
}

func (e *UploadFailedError) Error() string {
	return "Image upload failed"
}

func (e *UploadFailedError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status to surface to the client: the provider's 4xx/5xx, else 502.
func (e *UploadFailedError) HTTPStatus() int {
	if e.StatusCode >= http.StatusBadRequest {
		return e.StatusCode
	}
	return http.StatusBadGateway
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, msg)
}
