// Package service implements the task lifecycle engine: the state machine
// governing task transitions, the authorization gates applied to each
// transition, the bulk-operation coordinator and the pluggable distribution
// and routing strategies.
package service

import (
	"context"
	"time"

	"github.com/mtlprog/taskbasket/internal/domain"
)

// TaskRepository persists task aggregates. Save is conditional on the
// modified timestamp read before the mutation; a mismatch reports
// domain.ErrConcurrency and leaves the task unchanged.
type TaskRepository interface {
	Find(ctx context.Context, taskID string) (*domain.Task, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Save(ctx context.Context, task *domain.Task, expectedModified time.Time) (*domain.Task, error)
	Delete(ctx context.Context, taskID string) error
}

// WorkbasketRepository resolves workbaskets and their distribution targets.
type WorkbasketRepository interface {
	GetSummary(ctx context.Context, workbasketID string) (*domain.WorkbasketSummary, error)
	GetDistributionTargets(ctx context.Context, workbasketID string) ([]string, error)
}

// AccessIndex resolves the effective permissions of a set of access ids
// (user id plus group ids) on one workbasket.
type AccessIndex interface {
	EffectivePermissions(ctx context.Context, workbasketID string, accessIDs []string) (domain.Permission, error)
}

// TaskQuerier lists task ids, used when distribution is asked to move all
// tasks of a source workbasket.
type TaskQuerier interface {
	TaskIDsInWorkbasket(ctx context.Context, workbasketID string) ([]string, error)
}

// TaskQuery is an externally executed query consumed by SelectAndClaim.
type TaskQuery interface {
	// ListIDs returns matching task ids in query order.
	ListIDs(ctx context.Context) ([]string, error)
	// LocksResults reports whether the query was built with result locking.
	// SelectAndClaim rejects such queries since the claim already provides
	// the exclusivity.
	LocksResults() bool
}
