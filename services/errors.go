package services

import "fmt"

// ValidationError is a recoverable domain-rule failure: bad input or an
// invariant the caller tried to violate. Field names the offending input
// field and may be empty for object-level failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that a referenced record does not exist.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// ConflictError reports a refused operation that clashes with existing
// records, such as deleting a user still referenced by invoices.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
