package service

import "github.com/mtlprog/taskbasket/internal/domain"

// checkCallbackStateTransition enforces the secondary callback-state
// lifecycle. NONE is only ever set at task creation; requesting it through
// the bulk API is a violation.
func checkCallbackStateTransition(task *domain.Task, target domain.CallbackState) error {
	switch target {
	case domain.CallbackProcessingRequired:
		if task.State == domain.TaskStateCompleted {
			return &domain.InvalidCallbackStateError{
				TaskID:   task.ID,
				Actual:   task.CallbackState,
				Expected: []domain.CallbackState{domain.CallbackNone, domain.CallbackClaimed},
			}
		}
		return nil

	case domain.CallbackClaimed:
		if task.State != domain.TaskStateClaimed || task.CallbackState != domain.CallbackProcessingRequired {
			return &domain.InvalidCallbackStateError{
				TaskID:   task.ID,
				Actual:   task.CallbackState,
				Expected: []domain.CallbackState{domain.CallbackProcessingRequired},
			}
		}
		return nil

	case domain.CallbackProcessingCompleted:
		if task.State != domain.TaskStateCompleted {
			return &domain.InvalidCallbackStateError{
				TaskID:   task.ID,
				Actual:   task.CallbackState,
				Expected: []domain.CallbackState{domain.CallbackProcessingRequired, domain.CallbackClaimed},
			}
		}
		return nil

	default:
		// NONE and anything unknown
		return &domain.InvalidCallbackStateError{
			TaskID: task.ID,
			Actual: task.CallbackState,
			Expected: []domain.CallbackState{
				domain.CallbackProcessingRequired,
				domain.CallbackProcessingCompleted,
				domain.CallbackClaimed,
			},
		}
	}
}

// checkCallbackDeletable guards deletion: a task whose callback consumer has
// not finished must not be removed.
func checkCallbackDeletable(task *domain.Task) error {
	if task.CallbackState.IsDeletable() {
		return nil
	}
	return &domain.InvalidCallbackStateError{
		TaskID:   task.ID,
		Actual:   task.CallbackState,
		Expected: domain.DeletableCallbackStates,
	}
}
