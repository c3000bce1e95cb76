package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStorage represents persistence adapter errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeGraph represents graph manager errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeRelationship represents relationship index errors
	ErrorTypeRelationship ErrorType = "relationship"
	// ErrorTypeDiscord represents Discord-related errors
	ErrorTypeDiscord ErrorType = "discord"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrorType returns the error category. Promoted through every wrapper type
// that embeds *BaseError.
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Storage Errors

// ErrStorageFailed is returned when a persistence adapter operation fails
// for a reason other than the record being absent.
type ErrStorageFailed struct {
	*BaseError
	Operation string
}

func NewStorageFailed(operation string, err error) *ErrStorageFailed {
	return &ErrStorageFailed{
		BaseError: NewBaseError(ErrorTypeStorage, fmt.Sprintf("storage operation failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrConstraintViolation is returned when a unique key is violated. Adapters
// catch it for idempotent saves; callers only see it for genuine conflicts.
type ErrConstraintViolation struct {
	*BaseError
	Key string
}

func NewConstraintViolation(key string, err error) *ErrConstraintViolation {
	return &ErrConstraintViolation{
		BaseError: NewBaseError(ErrorTypeStorage, fmt.Sprintf("unique constraint violated: %s", key), err),
		Key:       key,
	}
}

// IsConstraintViolation reports whether err is a unique-constraint failure,
// either our own type or a raw sqlite error surfaced by the driver.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*ErrConstraintViolation); ok {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Graph Errors

// ErrInconsistentState is reported when an edge exists on one side of a
// symmetric link but not the other. The manager heals forward and logs it;
// this type exists for callers that want to detect healing.
type ErrInconsistentState struct {
	*BaseError
	SubjectID int64
	ObjectID  int64
}

func NewInconsistentState(subjectID, objectID int64) *ErrInconsistentState {
	return &ErrInconsistentState{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("one-sided link between %d and %d", subjectID, objectID), nil),
		SubjectID: subjectID,
		ObjectID:  objectID,
	}
}

// Relationship Errors

// ErrEntityInactive is returned when linking against a soft-deleted entity.
type ErrEntityInactive struct {
	*BaseError
	EntityID int64
}

func NewEntityInactive(entityID int64) *ErrEntityInactive {
	return &ErrEntityInactive{
		BaseError: NewBaseError(ErrorTypeRelationship, fmt.Sprintf("entity is inactive: %d", entityID), nil),
		EntityID:  entityID,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if typed, ok := err.(interface{ ErrorType() ErrorType }); ok {
		return typed.ErrorType() == errType
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		inner := wrapped.Unwrap()
		if inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}
