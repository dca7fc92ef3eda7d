package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/mtlprog/taskbasket/internal/domain"
	"github.com/mtlprog/taskbasket/internal/identity"
)

// ctxAs builds a context carrying the given caller identity.
func ctxAs(userID string, roles ...domain.Role) context.Context {
	return identity.WithIdentity(context.Background(), &identity.Identity{
		UserID: userID,
		Roles:  roles,
	})
}

// fakeTaskRepo is an in-memory task store with the same conditional-save
// contract as the PostgreSQL repository.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
	order []string
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *fakeTaskRepo) put(task *domain.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		r.order = append(r.order, task.ID)
	}
	r.tasks[task.ID] = task.Copy()
}

func (r *fakeTaskRepo) Find(_ context.Context, taskID string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, &domain.TaskNotFoundError{TaskID: taskID}
	}
	return task.Copy(), nil
}

func (r *fakeTaskRepo) FindByExternalID(_ context.Context, externalID string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if task, ok := r.tasks[id]; ok && task.ExternalID == externalID {
			return task.Copy(), nil
		}
	}
	return nil, &domain.TaskNotFoundError{TaskID: externalID}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.put(task)
	return task, nil
}

func (r *fakeTaskRepo) Save(_ context.Context, task *domain.Task, expectedModified time.Time) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tasks[task.ID]
	if !ok {
		return nil, &domain.TaskNotFoundError{TaskID: task.ID}
	}
	if !current.Modified.Equal(expectedModified) {
		return nil, &domain.ConcurrencyError{TaskID: task.ID}
	}
	r.tasks[task.ID] = task.Copy()
	return task, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[taskID]; !ok {
		return &domain.TaskNotFoundError{TaskID: taskID}
	}
	delete(r.tasks, taskID)
	for i, id := range r.order {
		if id == taskID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeTaskRepo) TaskIDsInWorkbasket(_ context.Context, workbasketID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, id := range r.order {
		if task, ok := r.tasks[id]; ok && task.WorkbasketID() == workbasketID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// fakeWorkbasketRepo is an in-memory workbasket store.
type fakeWorkbasketRepo struct {
	workbaskets map[string]*domain.WorkbasketSummary
	targets     map[string][]string
}

func newFakeWorkbasketRepo() *fakeWorkbasketRepo {
	return &fakeWorkbasketRepo{
		workbaskets: make(map[string]*domain.WorkbasketSummary),
		targets:     make(map[string][]string),
	}
}

func (r *fakeWorkbasketRepo) add(id, key string) *domain.WorkbasketSummary {
	wb := &domain.WorkbasketSummary{ID: id, Key: key, Name: key, Type: domain.WorkbasketTypeGroup}
	r.workbaskets[id] = wb
	return wb
}

func (r *fakeWorkbasketRepo) GetSummary(_ context.Context, workbasketID string) (*domain.WorkbasketSummary, error) {
	wb, ok := r.workbaskets[workbasketID]
	if !ok {
		return nil, &domain.WorkbasketNotFoundError{WorkbasketID: workbasketID}
	}
	copied := *wb
	return &copied, nil
}

func (r *fakeWorkbasketRepo) GetDistributionTargets(_ context.Context, workbasketID string) ([]string, error) {
	if _, ok := r.workbaskets[workbasketID]; !ok {
		return nil, &domain.WorkbasketNotFoundError{WorkbasketID: workbasketID}
	}
	return append([]string(nil), r.targets[workbasketID]...), nil
}

// fakeAccessIndex resolves permissions from a static grant table.
type fakeAccessIndex struct {
	workbaskets *fakeWorkbasketRepo
	grants      map[string]map[string]domain.Permission // workbasket id -> access id -> permissions
}

func newFakeAccessIndex(workbaskets *fakeWorkbasketRepo) *fakeAccessIndex {
	return &fakeAccessIndex{
		workbaskets: workbaskets,
		grants:      make(map[string]map[string]domain.Permission),
	}
}

func (a *fakeAccessIndex) grant(workbasketID, accessID string, perms domain.Permission) {
	if a.grants[workbasketID] == nil {
		a.grants[workbasketID] = make(map[string]domain.Permission)
	}
	a.grants[workbasketID][accessID] = perms
}

func (a *fakeAccessIndex) EffectivePermissions(_ context.Context, workbasketID string, accessIDs []string) (domain.Permission, error) {
	if _, ok := a.workbaskets.workbaskets[workbasketID]; !ok {
		return 0, &domain.WorkbasketNotFoundError{WorkbasketID: workbasketID}
	}
	var effective domain.Permission
	for _, accessID := range accessIDs {
		effective = effective.Union(a.grants[workbasketID][accessID])
	}
	return effective, nil
}

// fakeQuery implements the task query port for SelectAndClaim tests.
type fakeQuery struct {
	ids   []string
	locks bool
}

func (q *fakeQuery) ListIDs(context.Context) ([]string, error) { return q.ids, nil }
func (q *fakeQuery) LocksResults() bool                        { return q.locks }

// allPermissions is the full permission set for fixture grants.
var allPermissions = domain.PermissionRead |
	domain.PermissionReadTasks |
	domain.PermissionOpen |
	domain.PermissionAppend |
	domain.PermissionTransfer |
	domain.PermissionEditTasks |
	domain.PermissionDistribute
