package biddingerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Lookup errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidNotFound     = errors.New("bid not found")
)

// Business rule errors
var (
	ErrInvalidBid     = errors.New("invalid bid")
	ErrAuctionClosed  = errors.New("auction is not open")
	ErrLockContention = errors.New("lock contention")
)

// Infrastructure errors
var (
	ErrStorage = errors.New("storage failure")
)

// ValidationError describes a rejected submission field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bid: %s %s", e.Field, e.Reason)
}

// Is matches ErrInvalidBid
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidBid
}

// Invalid builds a ValidationError for field
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// LockContentionError lists the nights that could not be locked in time.
// The bid itself has been recorded when this is returned from an apply.
type LockContentionError struct {
	AuctionID string
	Nights    []string
}

func (e *LockContentionError) Error() string {
	return fmt.Sprintf("lock contention on auction %s for nights [%s]", e.AuctionID, strings.Join(e.Nights, ", "))
}

// Is matches ErrLockContention
func (e *LockContentionError) Is(target error) bool {
	return target == ErrLockContention
}

// StorageError wraps a failed persistence operation
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches ErrStorage
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Storage wraps err as a StorageError for op; nil stays nil
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Retryable reports whether redelivering the same input may succeed
func Retryable(err error) bool {
	return errors.Is(err, ErrLockContention) || errors.Is(err, ErrStorage)
}
