package domain

import "time"

// TaskState represents the primary lifecycle state of a task.
type TaskState string

const (
	TaskStateReady          TaskState = "READY"
	TaskStateClaimed        TaskState = "CLAIMED"
	TaskStateReadyForReview TaskState = "READY_FOR_REVIEW"
	TaskStateInReview       TaskState = "IN_REVIEW"
	TaskStateCompleted      TaskState = "COMPLETED"
	TaskStateCancelled      TaskState = "CANCELLED"
	TaskStateTerminated     TaskState = "TERMINATED"
)

// IsEndState returns true if no regular transitions leave this state.
func (s TaskState) IsEndState() bool {
	return s == TaskStateCompleted || s == TaskStateCancelled || s == TaskStateTerminated
}

// IsFinalEndState returns true if the state cannot be left even by reopen.
// COMPLETED is an end state but not a final one.
func (s TaskState) IsFinalEndState() bool {
	return s == TaskStateCancelled || s == TaskStateTerminated
}

// IsValid checks if the state is one of the allowed values.
func (s TaskState) IsValid() bool {
	switch s {
	case TaskStateReady, TaskStateClaimed, TaskStateReadyForReview,
		TaskStateInReview, TaskStateCompleted, TaskStateCancelled, TaskStateTerminated:
		return true
	default:
		return false
	}
}

// Number of custom value slots on a task.
const (
	CustomFieldCount = 16
	CustomIntCount   = 8
)

// Task is the central work item routed through workbaskets.
type Task struct {
	ID         string
	ExternalID string

	State         TaskState
	CallbackState CallbackState
	Owner         string

	Name        string
	Description string
	Note        string
	Priority    int

	WorkbasketSummary     *WorkbasketSummary
	ClassificationSummary *ClassificationSummary

	PrimaryObjRef       *ObjectReference
	SecondaryObjectRefs []ObjectReference
	Attachments         []Attachment

	IsRead        bool
	IsTransferred bool
	IsReopened    bool

	Created   time.Time
	Modified  time.Time
	Claimed   *time.Time
	Completed *time.Time
	Planned   *time.Time
	Received  *time.Time
	Due       *time.Time

	CustomFields [CustomFieldCount]string
	CustomInts   [CustomIntCount]int64

	// CallbackInfo is opaque correlation metadata for external callback
	// consumers; the engine only stores it.
	CallbackInfo map[string]string
}

// IsOwnedBy checks if the task is currently owned by the given user.
func (t *Task) IsOwnedBy(userID string) bool {
	return t.Owner != "" && t.Owner == userID
}

// WorkbasketID returns the id of the owning workbasket, or "" before routing.
func (t *Task) WorkbasketID() string {
	if t.WorkbasketSummary == nil {
		return ""
	}
	return t.WorkbasketSummary.ID
}

// Copy returns a deep copy of the task.
func (t *Task) Copy() *Task {
	c := *t
	if t.WorkbasketSummary != nil {
		wb := *t.WorkbasketSummary
		c.WorkbasketSummary = &wb
	}
	if t.ClassificationSummary != nil {
		cl := *t.ClassificationSummary
		c.ClassificationSummary = &cl
	}
	if t.PrimaryObjRef != nil {
		ref := *t.PrimaryObjRef
		c.PrimaryObjRef = &ref
	}
	c.SecondaryObjectRefs = append([]ObjectReference(nil), t.SecondaryObjectRefs...)
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	if t.CallbackInfo != nil {
		c.CallbackInfo = make(map[string]string, len(t.CallbackInfo))
		for k, v := range t.CallbackInfo {
			c.CallbackInfo[k] = v
		}
	}
	c.Claimed = copyTime(t.Claimed)
	c.Completed = copyTime(t.Completed)
	c.Planned = copyTime(t.Planned)
	c.Received = copyTime(t.Received)
	c.Due = copyTime(t.Due)
	return &c
}

func copyTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}
