package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsErrorType(t *testing.T) {
	inactive := NewEntityInactive(55)
	if !IsErrorType(inactive, ErrorTypeRelationship) {
		t.Error("ErrEntityInactive should match ErrorTypeRelationship")
	}
	if IsErrorType(inactive, ErrorTypeStorage) {
		t.Error("ErrEntityInactive should not match ErrorTypeStorage")
	}

	storage := NewStorageFailed("save", errors.New("disk full"))
	if !IsErrorType(storage, ErrorTypeStorage) {
		t.Error("ErrStorageFailed should match ErrorTypeStorage")
	}

	// A plain wrapped error resolves through Unwrap.
	wrapped := fmt.Errorf("outer: %w", NewConfigMissingRequired("TOKEN"))
	if !IsErrorType(wrapped, ErrorTypeConfig) {
		t.Error("wrapped config error should match ErrorTypeConfig")
	}

	if IsErrorType(nil, ErrorTypeStorage) {
		t.Error("nil should never match")
	}
	if IsErrorType(errors.New("plain"), ErrorTypeStorage) {
		t.Error("plain error should never match")
	}
}

func TestIsConstraintViolation(t *testing.T) {
	if !IsConstraintViolation(NewConstraintViolation("relationships", nil)) {
		t.Error("own type should match")
	}
	if !IsConstraintViolation(errors.New("UNIQUE constraint failed: relationships.subject_id")) {
		t.Error("raw sqlite message should match")
	}
	if IsConstraintViolation(errors.New("connection refused")) {
		t.Error("unrelated error should not match")
	}
	if IsConstraintViolation(nil) {
		t.Error("nil should not match")
	}
}
