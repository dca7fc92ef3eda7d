package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/taskbasket/internal/domain"
)

// CompleteTasks completes each task independently, collecting per-item
// failures.
func (s *TaskService) CompleteTasks(ctx context.Context, taskIDs []string) (*domain.BulkOperationResult[string], error) {
	return s.bulk(ctx, "complete", taskIDs, func(taskID string) error {
		_, err := s.Complete(ctx, taskID)
		return err
	})
}

// ForceCompleteTasks force-completes each task independently.
func (s *TaskService) ForceCompleteTasks(ctx context.Context, taskIDs []string) (*domain.BulkOperationResult[string], error) {
	return s.bulk(ctx, "force complete", taskIDs, func(taskID string) error {
		_, err := s.ForceComplete(ctx, taskID)
		return err
	})
}

// DeleteTasks deletes each task independently.
func (s *TaskService) DeleteTasks(ctx context.Context, taskIDs []string) (*domain.BulkOperationResult[string], error) {
	return s.bulk(ctx, "delete", taskIDs, func(taskID string) error {
		return s.DeleteTask(ctx, taskID)
	})
}

// TransferTasks transfers each task to the destination workbasket
// independently. The destination is resolved once up front; an unresolvable
// destination fails the whole call.
func (s *TaskService) TransferTasks(ctx context.Context, taskIDs []string, destinationWorkbasketID string) (*domain.BulkOperationResult[string], error) {
	return s.transferTasks(ctx, taskIDs, destinationWorkbasketID, "")
}

// TransferTasksWithOwner transfers each task and sets the given owner.
func (s *TaskService) TransferTasksWithOwner(ctx context.Context, taskIDs []string, destinationWorkbasketID, owner string) (*domain.BulkOperationResult[string], error) {
	return s.transferTasks(ctx, taskIDs, destinationWorkbasketID, owner)
}

func (s *TaskService) transferTasks(ctx context.Context, taskIDs []string, destinationWorkbasketID, owner string) (*domain.BulkOperationResult[string], error) {
	if err := s.guard.CheckPermission(ctx, destinationWorkbasketID, domain.PermissionAppend); err != nil {
		return nil, err
	}
	return s.bulk(ctx, "transfer", taskIDs, func(taskID string) error {
		_, err := s.transfer(ctx, taskID, destinationWorkbasketID, owner, true)
		return err
	})
}

// SetOwnerOfTasks sets the owner on each task. Only READY tasks accept an
// owner change; others fail per item.
func (s *TaskService) SetOwnerOfTasks(ctx context.Context, owner string, taskIDs []string) (*domain.BulkOperationResult[string], error) {
	return s.bulk(ctx, "set owner", taskIDs, func(taskID string) error {
		task, _, err := s.loadTask(ctx, taskID)
		if err != nil {
			return err
		}
		if err := requireState(task, opSetOwner); err != nil {
			return err
		}
		readModified := task.Modified
		task.Owner = owner
		_, err = s.save(ctx, task, readModified)
		return err
	})
}

// SetPlannedPropertyOfTasks sets the planned timestamp on each task.
func (s *TaskService) SetPlannedPropertyOfTasks(ctx context.Context, planned time.Time, taskIDs []string) (*domain.BulkOperationResult[string], error) {
	return s.bulk(ctx, "set planned", taskIDs, func(taskID string) error {
		task, _, err := s.loadTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.State.IsEndState() {
			return &domain.InvalidTaskStateError{TaskID: taskID, Actual: task.State, Expected: nonEndStates}
		}
		readModified := task.Modified
		p := planned
		task.Planned = &p
		_, err = s.save(ctx, task, readModified)
		return err
	})
}

// SetCallbackStateForTasks sets the callback state on each task, addressed
// by external id for callback correlation. Transition rules are evaluated
// per task; compliant items succeed even when others in the batch fail.
func (s *TaskService) SetCallbackStateForTasks(ctx context.Context, externalIDs []string, state domain.CallbackState) (*domain.BulkOperationResult[string], error) {
	return s.bulk(ctx, "set callback state", externalIDs, func(externalID string) error {
		task, err := s.tasks.FindByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		if err := checkCallbackStateTransition(task, state); err != nil {
			return err
		}
		readModified := task.Modified
		task.CallbackState = state
		_, err = s.save(ctx, task, readModified)
		return err
	})
}

// bulk runs the per-item operation through the coordinator and logs the
// batch outcome.
func (s *TaskService) bulk(ctx context.Context, name string, ids []string, apply func(string) error) (*domain.BulkOperationResult[string], error) {
	result, err := forEachItem(ids, apply)
	if err != nil {
		return nil, err
	}
	if result.ContainsErrors() {
		slog.Error("bulk operation finished with per-item failures",
			"operation", name,
			"total", len(ids),
			"failed_ids", result.FailedIDs(),
		)
	} else {
		slog.Info("bulk operation finished",
			"operation", name,
			"total", len(ids),
		)
	}
	return result, nil
}
