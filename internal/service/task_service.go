package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/taskbasket/internal/domain"
	"github.com/mtlprog/taskbasket/internal/identity"
)

// TaskService coordinates task lifecycle operations: authorization gates,
// state transitions and optimistic-concurrency persistence. It is stateless
// between calls apart from the registered strategies and routing providers.
type TaskService struct {
	tasks       TaskRepository
	workbaskets WorkbasketRepository
	querier     TaskQuerier
	guard       *AuthorizationGuard
	strategies  *strategyRegistry
	routers     []TaskRoutingProvider
}

// NewTaskService creates a new TaskService. The built-in round-robin
// distribution strategy is registered under DefaultDistributionStrategy.
func NewTaskService(
	tasks TaskRepository,
	workbaskets WorkbasketRepository,
	access AccessIndex,
	querier TaskQuerier,
) *TaskService {
	s := &TaskService{
		tasks:       tasks,
		workbaskets: workbaskets,
		querier:     querier,
		guard:       NewAuthorizationGuard(workbaskets, access),
		strategies:  newStrategyRegistry(),
	}
	// Registration of the built-in strategy cannot collide.
	_ = s.RegisterDistributionStrategy(DefaultDistributionStrategy, roundRobinStrategy{})
	return s
}

// loadTask resolves the task and verifies READ permission on its
// workbasket. Every lifecycle operation goes through here.
func (s *TaskService) loadTask(ctx context.Context, taskID string) (*domain.Task, *identity.Identity, error) {
	id, err := callerIdentity(ctx)
	if err != nil {
		return nil, nil, err
	}
	task, err := s.tasks.Find(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.guard.CheckPermission(ctx, task.WorkbasketID(), domain.PermissionRead); err != nil {
		return nil, nil, err
	}
	return task, id, nil
}

// save persists the mutated task, bumping modified and keeping the
// previously read timestamp as the optimistic-concurrency token.
func (s *TaskService) save(ctx context.Context, task *domain.Task, readModified time.Time) (*domain.Task, error) {
	task.Modified = time.Now()
	return s.tasks.Save(ctx, task, readModified)
}

// Claim claims a READY task for the current caller. Claiming a task the
// caller already owns is a no-op; a task owned by someone else is refused.
func (s *TaskService) Claim(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.claim(ctx, taskID, false)
}

// ForceClaim claims a task in any non-end state, overriding an existing
// owner.
func (s *TaskService) ForceClaim(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.claim(ctx, taskID, true)
}

func (s *TaskService) claim(ctx context.Context, taskID string, force bool) (*domain.Task, error) {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !force {
		if task.State == domain.TaskStateClaimed {
			if task.IsOwnedBy(id.UserID) {
				return task, nil
			}
			return nil, &domain.InvalidOwnerError{TaskID: taskID, CurrentUserID: id.UserID, Owner: task.Owner}
		}
		if err := requireState(task, opClaim); err != nil {
			return nil, err
		}
	} else if err := requireState(task, opForceClaim); err != nil {
		return nil, err
	}

	readModified := task.Modified
	now := time.Now()
	task.State = domain.TaskStateClaimed
	task.Owner = id.UserID
	task.Claimed = &now
	task.IsRead = true

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task claimed",
		"task_id", taskID,
		"user_id", id.UserID,
		"forced", force,
	)
	return saved, nil
}

// SelectAndClaim executes the query and claims the first matching task in
// query order. It returns nil without error when nothing matches. Queries
// built with result locking are rejected; the claim already provides the
// exclusivity.
func (s *TaskService) SelectAndClaim(ctx context.Context, query TaskQuery) (*domain.Task, error) {
	if query.LocksResults() {
		return nil, fmt.Errorf("%w: selectAndClaim must not be combined with a result-locking query", domain.ErrInvalidArgument)
	}
	taskIDs, err := query.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("execute task query: %w", err)
	}
	if len(taskIDs) == 0 {
		return nil, nil
	}
	return s.Claim(ctx, taskIDs[0])
}

// CancelClaim returns a claimed or in-review task to READY. The owner is
// cleared unless keepOwner is set.
func (s *TaskService) CancelClaim(ctx context.Context, taskID string, keepOwner bool) (*domain.Task, error) {
	return s.cancelClaim(ctx, taskID, keepOwner, false)
}

// ForceCancelClaim cancels the claim regardless of who owns the task.
func (s *TaskService) ForceCancelClaim(ctx context.Context, taskID string, keepOwner bool) (*domain.Task, error) {
	return s.cancelClaim(ctx, taskID, keepOwner, true)
}

func (s *TaskService) cancelClaim(ctx context.Context, taskID string, keepOwner, force bool) (*domain.Task, error) {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireState(task, opCancelClaim); err != nil {
		return nil, err
	}
	if !force && !task.IsOwnedBy(id.UserID) {
		return nil, &domain.InvalidOwnerError{TaskID: taskID, CurrentUserID: id.UserID, Owner: task.Owner}
	}

	readModified := task.Modified
	task.State = domain.TaskStateReady
	task.Claimed = nil
	if !keepOwner {
		task.Owner = ""
	}

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("claim cancelled",
		"task_id", taskID,
		"user_id", id.UserID,
		"keep_owner", keepOwner,
		"forced", force,
	)
	return saved, nil
}

// RequestReview moves a claimed task into review.
func (s *TaskService) RequestReview(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.requestReview(ctx, taskID, "", "", false)
}

// ForceRequestReview moves a claimed task into review regardless of owner.
func (s *TaskService) ForceRequestReview(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.requestReview(ctx, taskID, "", "", true)
}

// RequestReviewWithWorkbasketID moves a claimed task into review, moving it
// to another workbasket and optionally overriding the owner.
func (s *TaskService) RequestReviewWithWorkbasketID(ctx context.Context, taskID, workbasketID, ownerID string) (*domain.Task, error) {
	if workbasketID == "" {
		return nil, fmt.Errorf("%w: workbasket id must not be empty", domain.ErrInvalidArgument)
	}
	return s.requestReview(ctx, taskID, workbasketID, ownerID, false)
}

func (s *TaskService) requestReview(ctx context.Context, taskID, workbasketID, ownerID string, force bool) (*domain.Task, error) {
	return s.review(ctx, taskID, workbasketID, ownerID, force, opRequestReview)
}

// RequestChanges returns an in-review task to READY for rework.
func (s *TaskService) RequestChanges(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.review(ctx, taskID, "", "", false, opRequestChanges)
}

// ForceRequestChanges returns an in-review task to READY regardless of
// owner.
func (s *TaskService) ForceRequestChanges(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.review(ctx, taskID, "", "", true, opRequestChanges)
}

// RequestChangesWithWorkbasketID returns an in-review task to READY, moving
// it to another workbasket and optionally overriding the owner.
func (s *TaskService) RequestChangesWithWorkbasketID(ctx context.Context, taskID, workbasketID, ownerID string) (*domain.Task, error) {
	if workbasketID == "" {
		return nil, fmt.Errorf("%w: workbasket id must not be empty", domain.ErrInvalidArgument)
	}
	return s.review(ctx, taskID, workbasketID, ownerID, false, opRequestChanges)
}

func (s *TaskService) review(ctx context.Context, taskID, workbasketID, ownerID string, force bool, op operation) (*domain.Task, error) {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireState(task, op); err != nil {
		return nil, err
	}
	if !force && !task.IsOwnedBy(id.UserID) {
		return nil, &domain.InvalidOwnerError{TaskID: taskID, CurrentUserID: id.UserID, Owner: task.Owner}
	}

	readModified := task.Modified
	if workbasketID != "" && workbasketID != task.WorkbasketID() {
		if err := s.guard.CheckPermission(ctx, workbasketID, domain.PermissionAppend); err != nil {
			return nil, err
		}
		summary, err := s.workbaskets.GetSummary(ctx, workbasketID)
		if err != nil {
			return nil, err
		}
		task.WorkbasketSummary = summary
	}
	task.State = targetState(op)
	if ownerID != "" {
		task.Owner = ownerID
	}

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task review state changed",
		"task_id", taskID,
		"user_id", id.UserID,
		"new_state", task.State,
		"forced", force,
	)
	return saved, nil
}

// Complete completes a claimed task. Completing an already completed task is
// an idempotent no-op. Only the owner or an ADMIN may complete.
func (s *TaskService) Complete(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.complete(ctx, taskID, false)
}

// ForceComplete completes a task in any non-final state regardless of owner.
func (s *TaskService) ForceComplete(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.complete(ctx, taskID, true)
}

func (s *TaskService) complete(ctx context.Context, taskID string, force bool) (*domain.Task, error) {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.State == domain.TaskStateCompleted {
		return task, nil
	}

	op := opComplete
	if force {
		op = opForceComplete
	}
	if err := requireState(task, op); err != nil {
		return nil, err
	}
	if !force && !task.IsOwnedBy(id.UserID) && !id.HasRole(domain.RoleAdmin) {
		return nil, &domain.InvalidOwnerError{TaskID: taskID, CurrentUserID: id.UserID, Owner: task.Owner}
	}

	readModified := task.Modified
	now := time.Now()
	task.State = domain.TaskStateCompleted
	task.Completed = &now
	if task.Claimed == nil {
		task.Claimed = &now
	}
	if task.Owner == "" {
		task.Owner = id.UserID
	}

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task completed",
		"task_id", taskID,
		"user_id", id.UserID,
		"forced", force,
	)
	return saved, nil
}

// Cancel cancels a READY or CLAIMED task. CANCELLED is a final end state.
func (s *TaskService) Cancel(ctx context.Context, taskID string) (*domain.Task, error) {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireState(task, opCancel); err != nil {
		return nil, err
	}

	readModified := task.Modified
	task.State = domain.TaskStateCancelled

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task cancelled", "task_id", taskID, "user_id", id.UserID)
	return saved, nil
}

// Terminate terminates a READY or CLAIMED task. Requires the ADMIN or
// TASK_ADMIN role; TERMINATED is a final end state.
func (s *TaskService) Terminate(ctx context.Context, taskID string) (*domain.Task, error) {
	if err := s.guard.CheckRole(ctx, domain.RoleAdmin, domain.RoleTaskAdmin); err != nil {
		return nil, err
	}
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireState(task, opTerminate); err != nil {
		return nil, err
	}

	readModified := task.Modified
	task.State = domain.TaskStateTerminated

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task terminated", "task_id", taskID, "user_id", id.UserID)
	return saved, nil
}

// Transfer moves a task to another workbasket. The task returns to READY,
// loses its owner and read flag, and carries the transfer flag as given.
// Requires TRANSFER on the source and APPEND on the destination.
func (s *TaskService) Transfer(ctx context.Context, taskID, destinationWorkbasketID string, setTransferFlag bool) (*domain.Task, error) {
	return s.transfer(ctx, taskID, destinationWorkbasketID, "", setTransferFlag)
}

// TransferWithOwner transfers a task and sets the given owner in the
// destination workbasket.
func (s *TaskService) TransferWithOwner(ctx context.Context, taskID, destinationWorkbasketID, owner string, setTransferFlag bool) (*domain.Task, error) {
	return s.transfer(ctx, taskID, destinationWorkbasketID, owner, setTransferFlag)
}

func (s *TaskService) transfer(ctx context.Context, taskID, destinationWorkbasketID, owner string, setTransferFlag bool) (*domain.Task, error) {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireState(task, opTransfer); err != nil {
		return nil, err
	}
	if err := s.guard.CheckPermission(ctx, task.WorkbasketID(), domain.PermissionTransfer); err != nil {
		return nil, err
	}
	if err := s.guard.CheckPermission(ctx, destinationWorkbasketID, domain.PermissionAppend); err != nil {
		return nil, err
	}
	destination, err := s.workbaskets.GetSummary(ctx, destinationWorkbasketID)
	if err != nil {
		return nil, err
	}

	readModified := task.Modified
	task.WorkbasketSummary = destination
	task.State = domain.TaskStateReady
	task.Owner = owner
	task.Claimed = nil
	task.IsRead = false
	task.IsTransferred = setTransferFlag

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task transferred",
		"task_id", taskID,
		"user_id", id.UserID,
		"destination_workbasket_id", destinationWorkbasketID,
	)
	return saved, nil
}

// Reopen returns a COMPLETED task to READY. CANCELLED and TERMINATED tasks
// are final and cannot be reopened; neither can a task whose callback
// consumer still requires processing.
func (s *TaskService) Reopen(ctx context.Context, taskID string) (*domain.Task, error) {
	task, id, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireState(task, opReopen); err != nil {
		return nil, err
	}
	if task.CallbackState == domain.CallbackProcessingRequired {
		return nil, &domain.InvalidCallbackStateError{
			TaskID:   taskID,
			Actual:   task.CallbackState,
			Expected: domain.DeletableCallbackStates,
		}
	}

	readModified := task.Modified
	task.State = domain.TaskStateReady
	task.Completed = nil
	task.IsReopened = true

	saved, err := s.save(ctx, task, readModified)
	if err != nil {
		return nil, err
	}

	slog.Info("task reopened", "task_id", taskID, "user_id", id.UserID)
	return saved, nil
}
