package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInputMissing signals an absent required field or file.
	ErrInputMissing = errors.New("input missing")
	// ErrInvalidInput signals a malformed field value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDimensionMismatch signals a vector of unexpected dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrModelUnavailable signals that the embedding model could not be reached.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrGenerationFailed signals a failed text generation call.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrTransport signals that the generative backend could not be called at all.
	ErrTransport = errors.New("generative backend unreachable")
	// ErrUpstreamRejected signals a non-success status from the generative backend.
	ErrUpstreamRejected = errors.New("generative backend rejected request")
)

// UpstreamError carries the status and body of a rejected backend call.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamRejected }

// NewUpstreamError creates an UpstreamError for the named operation.
func NewUpstreamError(op string, status int, body string) error {
	return &UpstreamError{Op: op, Status: status, Body: body}
}
