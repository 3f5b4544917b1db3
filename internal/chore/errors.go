package chore

import (
	"errors"
	"fmt"
)

// ErrCorruptRecord marks stored data that violates an invariant enforced at
// create and edit time.
var ErrCorruptRecord = errors.New("corrupt chore record")

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation on a chore or assignee that does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func choreNotFound(id int64) *NotFoundError {
	return &NotFoundError{Entity: "chore", Key: fmt.Sprint(id)}
}

// NoPriorStateError is returned by Undo when there is no earlier completion
// date to restore.
type NoPriorStateError struct {
	ChoreID int64
}

func (e *NoPriorStateError) Error() string {
	return "no previous completion date to restore"
}
