package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/taskbasket/internal/domain"
)

// CreateTask creates a new task. When no workbasket is given, the
// registered routing providers determine one; without a route the call
// fails. The caller needs APPEND on the resolved workbasket. Name,
// description and priority default from the classification when left empty.
func (s *TaskService) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	id, err := callerIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if task.PrimaryObjRef == nil {
		return nil, fmt.Errorf("%w: primary object reference is required", domain.ErrInvalidArgument)
	}
	if task.ID != "" {
		return nil, fmt.Errorf("%w: task id must not be set on creation", domain.ErrInvalidArgument)
	}
	if !task.CallbackState.IsValid() && task.CallbackState != "" {
		return nil, fmt.Errorf("%w: unknown callback state %q", domain.ErrInvalidArgument, task.CallbackState)
	}

	workbasketID := task.WorkbasketID()
	if workbasketID == "" {
		workbasketID, err = s.routeTask(ctx, task)
		if err != nil {
			return nil, fmt.Errorf("route task: %w", err)
		}
		if workbasketID == "" {
			return nil, fmt.Errorf("%w: no workbasket given and no routing provider determined one", domain.ErrInvalidArgument)
		}
	}
	if err := s.guard.CheckPermission(ctx, workbasketID, domain.PermissionAppend); err != nil {
		return nil, err
	}
	summary, err := s.workbaskets.GetSummary(ctx, workbasketID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task.ID = domain.NewTaskID()
	if task.ExternalID == "" {
		task.ExternalID = domain.NewExternalID()
	}
	task.WorkbasketSummary = summary
	task.State = domain.TaskStateReady
	if task.CallbackState == "" {
		task.CallbackState = domain.CallbackNone
	}
	task.Created = now
	task.Modified = now
	if task.Planned == nil {
		task.Planned = &now
	}
	if task.Received == nil {
		task.Received = &now
	}
	if cl := task.ClassificationSummary; cl != nil {
		if task.Name == "" {
			task.Name = cl.Name
		}
		if task.Description == "" {
			task.Description = cl.Description
		}
		if task.Priority == 0 {
			task.Priority = cl.Priority
		}
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	slog.Info("task created",
		"task_id", created.ID,
		"external_id", created.ExternalID,
		"workbasket_id", workbasketID,
		"user_id", id.UserID,
	)
	return created, nil
}

// GetTask returns the task. The caller needs READ on its workbasket.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, _, err := s.loadTask(ctx, taskID)
	return task, err
}

// UpdateTask applies caller-editable fields of the given task. The task's
// Modified timestamp must carry the value the caller read; a mismatch means
// another writer committed first and the update is rejected. Requires
// EDITTASKS on the workbasket.
func (s *TaskService) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	current, id, err := s.loadTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckPermission(ctx, current.WorkbasketID(), domain.PermissionEditTasks); err != nil {
		return nil, err
	}
	if !task.Modified.Equal(current.Modified) {
		return nil, &domain.ConcurrencyError{TaskID: task.ID}
	}
	if task.PrimaryObjRef == nil {
		return nil, fmt.Errorf("%w: primary object reference is required", domain.ErrInvalidArgument)
	}

	readModified := current.Modified
	updated := current.Copy()
	updated.Name = task.Name
	updated.Description = task.Description
	updated.Note = task.Note
	updated.Priority = task.Priority
	updated.Planned = copyTimePtr(task.Planned)
	updated.Due = copyTimePtr(task.Due)
	updated.PrimaryObjRef = task.PrimaryObjRef
	updated.SecondaryObjectRefs = task.SecondaryObjectRefs
	updated.CustomFields = task.CustomFields
	updated.CustomInts = task.CustomInts
	updated.CallbackInfo = task.CallbackInfo
	if task.ClassificationSummary != nil {
		updated.ClassificationSummary = task.ClassificationSummary
	}

	saved, err := s.save(ctx, updated, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task updated", "task_id", task.ID, "user_id", id.UserID)
	return saved, nil
}

// DeleteTask deletes a task that reached an end state, provided its
// callback consumer is finished with it.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	return s.deleteTask(ctx, taskID, false)
}

// ForceDeleteTask deletes a task in any state; the callback guard still
// applies.
func (s *TaskService) ForceDeleteTask(ctx context.Context, taskID string) error {
	return s.deleteTask(ctx, taskID, true)
}

func (s *TaskService) deleteTask(ctx context.Context, taskID string, force bool) error {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !force && !task.State.IsEndState() {
		return &domain.InvalidTaskStateError{
			TaskID: taskID,
			Actual: task.State,
			Expected: []domain.TaskState{
				domain.TaskStateCompleted, domain.TaskStateCancelled, domain.TaskStateTerminated,
			},
		}
	}
	if err := checkCallbackDeletable(task); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}

	slog.Info("task deleted", "task_id", taskID, "user_id", id.UserID, "forced", force)
	return nil
}

// SetTaskRead marks the task as read or unread for the current caller.
func (s *TaskService) SetTaskRead(ctx context.Context, taskID string, isRead bool) (*domain.Task, error) {
	task, _, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	readModified := task.Modified
	task.IsRead = isRead
	return s.save(ctx, task, readModified)
}

func copyTimePtr(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}
