package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for business logic validation. Callers match the category
// with errors.Is and recover diagnostics with errors.As on the typed errors
// below.
var (
	// Not-found errors
	ErrTaskNotFound           = errors.New("task not found")
	ErrWorkbasketNotFound     = errors.New("workbasket not found")
	ErrClassificationNotFound = errors.New("classification not found")

	// Authorization errors
	ErrNotAuthorized             = errors.New("not authorized")
	ErrNotAuthorizedOnWorkbasket = errors.New("not authorized on workbasket")

	// State violation errors
	ErrInvalidTaskState     = errors.New("invalid task state")
	ErrInvalidOwner         = errors.New("invalid task owner")
	ErrInvalidCallbackState = errors.New("invalid callback state")

	// Concurrency errors
	ErrConcurrency = errors.New("task was modified concurrently")

	// Argument errors
	ErrInvalidArgument = errors.New("invalid argument")
)

// TaskNotFoundError is returned when no task exists for the given id or
// external id.
type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

// WorkbasketNotFoundError is returned when no workbasket exists for the
// given id.
type WorkbasketNotFoundError struct {
	WorkbasketID string
}

func (e *WorkbasketNotFoundError) Error() string {
	return fmt.Sprintf("workbasket not found: %s", e.WorkbasketID)
}

func (e *WorkbasketNotFoundError) Unwrap() error { return ErrWorkbasketNotFound }

// InvalidTaskStateError reports an operation applied to a task outside its
// legal source states.
type InvalidTaskStateError struct {
	TaskID   string
	Actual   TaskState
	Expected []TaskState
}

func (e *InvalidTaskStateError) Error() string {
	return fmt.Sprintf("task %s is in state %s, expected one of %v", e.TaskID, e.Actual, e.Expected)
}

func (e *InvalidTaskStateError) Unwrap() error { return ErrInvalidTaskState }

// InvalidOwnerError reports an owner-guarded operation attempted by a caller
// who does not own the task.
type InvalidOwnerError struct {
	TaskID        string
	CurrentUserID string
	Owner         string
}

func (e *InvalidOwnerError) Error() string {
	return fmt.Sprintf("user %s is not the owner of task %s (owner: %s)", e.CurrentUserID, e.TaskID, e.Owner)
}

func (e *InvalidOwnerError) Unwrap() error { return ErrInvalidOwner }

// InvalidCallbackStateError reports a callback-state transition or deletion
// attempted outside the legal callback states.
type InvalidCallbackStateError struct {
	TaskID   string
	Actual   CallbackState
	Expected []CallbackState
}

func (e *InvalidCallbackStateError) Error() string {
	return fmt.Sprintf("task %s has callback state %s, expected one of %v", e.TaskID, e.Actual, e.Expected)
}

func (e *InvalidCallbackStateError) Unwrap() error { return ErrInvalidCallbackState }

// NotAuthorizedError reports a failed global role-membership check.
type NotAuthorizedError struct {
	CurrentUserID string
	Roles         []Role
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("user %s is not member of any role in %v", e.CurrentUserID, e.Roles)
}

func (e *NotAuthorizedError) Unwrap() error { return ErrNotAuthorized }

// NotAuthorizedOnWorkbasketError reports a missing workbasket permission.
// It is also returned when the workbasket itself is not visible to the
// caller, so that permission checks never leak workbasket existence.
type NotAuthorizedOnWorkbasketError struct {
	CurrentUserID string
	WorkbasketID  string
	Required      Permission
}

func (e *NotAuthorizedOnWorkbasketError) Error() string {
	return fmt.Sprintf("user %s is missing permissions [%s] on workbasket %s",
		e.CurrentUserID, e.Required, e.WorkbasketID)
}

func (e *NotAuthorizedOnWorkbasketError) Unwrap() error { return ErrNotAuthorizedOnWorkbasket }

// ConcurrencyError reports a lost optimistic-lock race. The caller is
// expected to re-read, recompute and retry, never to resubmit blindly.
type ConcurrencyError struct {
	TaskID string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("task %s was modified while the operation was running", e.TaskID)
}

func (e *ConcurrencyError) Unwrap() error { return ErrConcurrency }
