package domain

// CallbackState tracks an external asynchronous consumer's processing of a
// task, independent of but constrained by the task's primary state.
type CallbackState string

const (
	CallbackNone                CallbackState = "NONE"
	CallbackProcessingRequired  CallbackState = "CALLBACK_PROCESSING_REQUIRED"
	CallbackProcessingCompleted CallbackState = "CALLBACK_PROCESSING_COMPLETED"
	CallbackClaimed             CallbackState = "CLAIMED"
)

// IsValid checks if the callback state is one of the allowed values.
func (s CallbackState) IsValid() bool {
	switch s {
	case CallbackNone, CallbackProcessingRequired, CallbackProcessingCompleted, CallbackClaimed:
		return true
	default:
		return false
	}
}

// DeletableCallbackStates are the callback states in which a task may be
// deleted. A task still requiring callback processing must not disappear.
var DeletableCallbackStates = []CallbackState{
	CallbackNone, CallbackClaimed, CallbackProcessingCompleted,
}

// IsDeletable reports whether a task in this callback state may be deleted.
func (s CallbackState) IsDeletable() bool {
	for _, d := range DeletableCallbackStates {
		if s == d {
			return true
		}
	}
	return false
}
