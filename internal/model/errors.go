package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrMismatch         = errors.New("value mismatch")

	// ErrRejected marks a request the caller must see only as a uniform failure.
	ErrRejected = errors.New("request rejected")

	// ErrStoreUnavailable is returned when a backing store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// RejectError carries the internal reason behind a rejected flow step or
// session operation. It matches both ErrRejected and its Reason.
type RejectError struct {
	Op     string
	Reason error
}

// NewRejectError builds a RejectError for the given operation.
func NewRejectError(op string, reason error) *RejectError {
	return &RejectError{Op: op, Reason: reason}
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s rejected: %v", e.Op, e.Reason)
}

func (e *RejectError) Unwrap() []error {
	return []error{ErrRejected, e.Reason}
}
