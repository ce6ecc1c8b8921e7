package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientPoints = errors.New("insufficient points")

	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrReceiptGeneration = errors.New("receipt generation failed")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field      string
	Reason     string
	MissingIDs []int64
}

func (e *ValidationError) Error() string {
	if len(e.MissingIDs) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Field, e.Reason, e.MissingIDs)
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidation is a shortcut for a field level validation error.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidStateError reports an operation that the current order status forbids.
// Reason, when set, replaces the generated message.
type InvalidStateError struct {
	Status string
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("cannot %s order in status %s", e.Op, e.Status)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// StockShortage is one product that cannot satisfy its requested quantity.
type StockShortage struct {
	ProductID int64
	Requested int
	Available int
}

// InsufficientStockError lists every shortage found during settlement.
type InsufficientStockError struct {
	Items []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", item.ProductID, item.Requested, item.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ReceiptGenerationError wraps a failure of the document pipeline.
type ReceiptGenerationError struct {
	Err error
}

func (e *ReceiptGenerationError) Error() string {
	return "receipt generation failed: " + e.Err.Error()
}

func (e *ReceiptGenerationError) Is(target error) bool { return target == ErrReceiptGeneration }

func (e *ReceiptGenerationError) Unwrap() error { return e.Err }

// ConflictError reports a referential or concurrency conflict.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
