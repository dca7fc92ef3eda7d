package service

import (
	"context"

	"github.com/mtlprog/taskbasket/internal/domain"
)

// TaskRoutingProvider determines the workbasket for a task created without
// an explicit one. Returning "" means the provider has no route for the
// task.
type TaskRoutingProvider interface {
	DetermineWorkbasketID(ctx context.Context, task *domain.Task) (string, error)
}

// RegisterTaskRoutingProvider adds a routing provider. Providers are
// consulted in registration order during CreateTask.
func (s *TaskService) RegisterTaskRoutingProvider(provider TaskRoutingProvider) {
	s.routers = append(s.routers, provider)
}

// routeTask asks the registered providers for a workbasket id, taking the
// first non-empty answer.
func (s *TaskService) routeTask(ctx context.Context, task *domain.Task) (string, error) {
	for _, provider := range s.routers {
		wbID, err := provider.DetermineWorkbasketID(ctx, task)
		if err != nil {
			return "", err
		}
		if wbID != "" {
			return wbID, nil
		}
	}
	return "", nil
}
