package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mtlprog/taskbasket/internal/domain"
)

// DefaultDistributionStrategy is the name of the built-in round-robin
// strategy.
const DefaultDistributionStrategy = "DefaultTaskDistribution"

// DistributionStrategy maps a set of task ids to destination workbasket ids.
// Strategies register by name at process startup; Initialize is called once
// at registration with an engine handle for collaborator lookups.
type DistributionStrategy interface {
	Initialize(engine *TaskService)
	Distribute(taskIDs []string, workbasketIDs []string, additionalInformation map[string]any) (map[string][]string, error)
}

// strategyRegistry resolves distribution strategies by name.
type strategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]DistributionStrategy
}

func newStrategyRegistry() *strategyRegistry {
	return &strategyRegistry{strategies: make(map[string]DistributionStrategy)}
}

func (r *strategyRegistry) register(name string, strategy DistributionStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[name]; ok {
		return fmt.Errorf("%w: distribution strategy %q already registered", domain.ErrInvalidArgument, name)
	}
	r.strategies[name] = strategy
	return nil
}

// lookup resolves a strategy by name. An unknown name is an argument error,
// never a silent fallback to the default.
func (r *strategyRegistry) lookup(name string) (DistributionStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	strategy, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown distribution strategy %q", domain.ErrInvalidArgument, name)
	}
	return strategy, nil
}

// roundRobinStrategy assigns the task at input index i to destination
// i mod len(destinations), preserving input task order per bucket.
type roundRobinStrategy struct{}

func (roundRobinStrategy) Initialize(*TaskService) {}

func (roundRobinStrategy) Distribute(taskIDs []string, workbasketIDs []string, _ map[string]any) (map[string][]string, error) {
	if len(taskIDs) == 0 {
		return nil, fmt.Errorf("%w: task id list must not be empty", domain.ErrInvalidArgument)
	}
	if len(workbasketIDs) == 0 {
		return nil, fmt.Errorf("%w: destination workbasket id list must not be empty", domain.ErrInvalidArgument)
	}

	assignment := make(map[string][]string, len(workbasketIDs))
	for _, wbID := range workbasketIDs {
		assignment[wbID] = []string{}
	}
	for i, taskID := range taskIDs {
		wbID := workbasketIDs[i%len(workbasketIDs)]
		assignment[wbID] = append(assignment[wbID], taskID)
	}
	return assignment, nil
}

// DistributionRequest describes one distribution call.
type DistributionRequest struct {
	// SourceWorkbasketID is the workbasket the tasks are moved out of.
	SourceWorkbasketID string
	// TaskIDs limits distribution to these tasks. Empty means all tasks
	// currently in the source workbasket.
	TaskIDs []string
	// DestinationWorkbasketIDs are the targets. Empty means the source
	// workbasket's configured distribution targets.
	DestinationWorkbasketIDs []string
	// StrategyName selects a registered strategy. Empty means the built-in
	// round-robin strategy.
	StrategyName string
	// AdditionalInformation is passed through to the strategy.
	AdditionalInformation map[string]any
}

// Distribute assigns tasks of a source workbasket to destination workbaskets
// via the selected strategy and transfers each task along the regular
// transfer path, so all transfer guards apply per task.
//
// The call fails fast, before any task moves, when the source or a
// destination cannot be resolved, when a listed task does not belong to the
// source, or when a listed task is in an end state. Per-task transfer
// failures after that point are collected in the result.
func (s *TaskService) Distribute(ctx context.Context, req DistributionRequest) (*domain.BulkOperationResult[string], error) {
	if req.SourceWorkbasketID == "" {
		return nil, fmt.Errorf("%w: source workbasket id must not be empty", domain.ErrInvalidArgument)
	}

	// Snapshot the source's task list before any checks run; the snapshot
	// is what gets validated and distributed.
	taskIDs := req.TaskIDs
	if len(taskIDs) == 0 {
		var err error
		taskIDs, err = s.querier.TaskIDsInWorkbasket(ctx, req.SourceWorkbasketID)
		if err != nil {
			return nil, fmt.Errorf("list tasks of workbasket %s: %w", req.SourceWorkbasketID, err)
		}
	}

	if err := s.guard.CheckPermission(ctx, req.SourceWorkbasketID, domain.PermissionDistribute); err != nil {
		return nil, err
	}

	destinations := req.DestinationWorkbasketIDs
	if len(destinations) == 0 {
		var err error
		destinations, err = s.workbaskets.GetDistributionTargets(ctx, req.SourceWorkbasketID)
		if err != nil {
			return nil, err
		}
	}
	if len(destinations) == 0 {
		return nil, fmt.Errorf("%w: workbasket %s has no distribution targets", domain.ErrInvalidArgument, req.SourceWorkbasketID)
	}
	for _, destID := range destinations {
		if _, err := s.workbaskets.GetSummary(ctx, destID); err != nil {
			return nil, err
		}
	}

	if len(taskIDs) == 0 {
		return domain.NewBulkOperationResult[string](), nil
	}
	for _, taskID := range taskIDs {
		task, err := s.tasks.Find(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.WorkbasketID() != req.SourceWorkbasketID {
			return nil, fmt.Errorf("%w: task %s does not belong to workbasket %s",
				domain.ErrInvalidArgument, taskID, req.SourceWorkbasketID)
		}
		if task.State.IsEndState() {
			return nil, &domain.InvalidTaskStateError{
				TaskID:   taskID,
				Actual:   task.State,
				Expected: nonEndStates,
			}
		}
	}

	strategyName := req.StrategyName
	if strategyName == "" {
		strategyName = DefaultDistributionStrategy
	}
	strategy, err := s.strategies.lookup(strategyName)
	if err != nil {
		return nil, err
	}

	assignment, err := strategy.Distribute(taskIDs, destinations, req.AdditionalInformation)
	if err != nil {
		return nil, err
	}

	result := domain.NewBulkOperationResult[string]()
	for _, destID := range destinations {
		for _, taskID := range assignment[destID] {
			if _, err := s.Transfer(ctx, taskID, destID, true); err != nil {
				result.AddError(taskID, err)
			}
		}
	}

	slog.Info("tasks distributed",
		"source_workbasket_id", req.SourceWorkbasketID,
		"strategy", strategyName,
		"task_count", len(taskIDs),
		"failed_count", len(result.FailedIDs()),
	)

	return result, nil
}

// RegisterDistributionStrategy registers a strategy under a name and hands
// it the engine handle. Registration happens at process startup; a
// duplicate name is an argument error.
func (s *TaskService) RegisterDistributionStrategy(name string, strategy DistributionStrategy) error {
	if err := s.strategies.register(name, strategy); err != nil {
		return err
	}
	strategy.Initialize(s)
	return nil
}
