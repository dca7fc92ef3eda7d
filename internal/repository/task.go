package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskbasket/internal/domain"
)

// taskColumns is the shared list of task columns, qualified for the
// workbasket join.
var taskColumns = []string{
	"t.id", "t.external_id", "t.state", "t.callback_state", "t.owner",
	"t.name", "t.description", "t.note", "t.priority",
	"t.classification", "t.primary_obj_ref", "t.secondary_obj_refs", "t.attachments",
	"t.is_read", "t.is_transferred", "t.is_reopened",
	"t.created", "t.modified", "t.claimed", "t.completed", "t.planned", "t.received", "t.due",
	"t.custom_fields", "t.custom_ints", "t.callback_info",
	"w.id", "w.wb_key", "w.name", "w.domain", "w.wb_type", "w.owner",
}

// TaskRepository is the PostgreSQL implementation of the task persistence
// port, including the optimistic-concurrency save.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single joined row into a Task.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task           domain.Task
		wb             domain.WorkbasketSummary
		classification []byte
		primaryObjRef  []byte
		secondaryRefs  []byte
		attachments    []byte
		customFields   []byte
		customInts     []byte
		callbackInfo   []byte
	)
	err := row.Scan(
		&task.ID, &task.ExternalID, &task.State, &task.CallbackState, &task.Owner,
		&task.Name, &task.Description, &task.Note, &task.Priority,
		&classification, &primaryObjRef, &secondaryRefs, &attachments,
		&task.IsRead, &task.IsTransferred, &task.IsReopened,
		&task.Created, &task.Modified, &task.Claimed, &task.Completed, &task.Planned, &task.Received, &task.Due,
		&customFields, &customInts, &callbackInfo,
		&wb.ID, &wb.Key, &wb.Name, &wb.Domain, &wb.Type, &wb.Owner,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.WorkbasketSummary = &wb

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{classification, &task.ClassificationSummary},
		{primaryObjRef, &task.PrimaryObjRef},
		{secondaryRefs, &task.SecondaryObjectRefs},
		{attachments, &task.Attachments},
		{customFields, &task.CustomFields},
		{customInts, &task.CustomInts},
		{callbackInfo, &task.CallbackInfo},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("parse task json column: %w", err)
		}
	}
	return &task, nil
}

func (r *TaskRepository) findBy(ctx context.Context, cond sq.Eq) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks t").
		Join("workbaskets w ON w.id = t.workbasket_id").
		Where(cond).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}
	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// Find retrieves a task by id.
func (r *TaskRepository) Find(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := r.findBy(ctx, sq.Eq{"t.id": taskID})
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, &domain.TaskNotFoundError{TaskID: taskID}
	}
	return task, err
}

// FindByExternalID retrieves a task by its external id.
func (r *TaskRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Task, error) {
	task, err := r.findBy(ctx, sq.Eq{"t.external_id": externalID})
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, &domain.TaskNotFoundError{TaskID: externalID}
	}
	return task, err
}

// TaskIDsInWorkbasket lists the ids of all tasks in a workbasket in
// creation order.
func (r *TaskRepository) TaskIDsInWorkbasket(ctx context.Context, workbasketID string) ([]string, error) {
	query, args, err := psql.
		Select("id").
		From("tasks").
		Where(sq.Eq{"workbasket_id": workbasketID}).
		OrderBy("created ASC, id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build TaskIDsInWorkbasket query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return ids, nil
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	values, err := taskValues(task)
	if err != nil {
		return nil, err
	}

	builder := psql.Insert("tasks").Columns(
		"id", "external_id", "workbasket_id", "state", "callback_state", "owner",
		"name", "description", "note", "priority",
		"classification", "primary_obj_ref", "secondary_obj_refs", "attachments",
		"is_read", "is_transferred", "is_reopened",
		"created", "modified", "claimed", "completed", "planned", "received", "due",
		"custom_fields", "custom_ints", "callback_info",
	).Values(values...)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Save persists the task conditionally on the modified timestamp still
// matching the value read before the mutation. A lost race reports a
// concurrency error and leaves the row unchanged.
func (r *TaskRepository) Save(ctx context.Context, task *domain.Task, expectedModified time.Time) (*domain.Task, error) {
	jsonCols, err := taskJSONColumns(task)
	if err != nil {
		return nil, err
	}

	builder := psql.
		Update("tasks").
		Set("external_id", task.ExternalID).
		Set("workbasket_id", task.WorkbasketID()).
		Set("state", task.State).
		Set("callback_state", task.CallbackState).
		Set("owner", task.Owner).
		Set("name", task.Name).
		Set("description", task.Description).
		Set("note", task.Note).
		Set("priority", task.Priority).
		Set("is_read", task.IsRead).
		Set("is_transferred", task.IsTransferred).
		Set("is_reopened", task.IsReopened).
		Set("modified", task.Modified).
		Set("claimed", task.Claimed).
		Set("completed", task.Completed).
		Set("planned", task.Planned).
		Set("received", task.Received).
		Set("due", task.Due).
		Where(sq.Eq{"id": task.ID, "modified": expectedModified})
	for col, val := range jsonCols {
		builder = builder.Set(col, val)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Save query for task %s: %w", task.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("save task %s: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the task is gone or another writer committed first.
		if _, err := r.Find(ctx, task.ID); err != nil {
			return nil, err
		}
		return nil, &domain.ConcurrencyError{TaskID: task.ID}
	}
	return task, nil
}

// Delete removes a task by id.
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	query, args, err := psql.Delete("tasks").Where(sq.Eq{"id": taskID}).ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task %s: %w", taskID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.TaskNotFoundError{TaskID: taskID}
	}
	return nil
}

// taskJSONColumns marshals the jsonb-backed task fields.
func taskJSONColumns(task *domain.Task) (map[string][]byte, error) {
	cols := map[string]any{
		"classification":     task.ClassificationSummary,
		"primary_obj_ref":    task.PrimaryObjRef,
		"secondary_obj_refs": task.SecondaryObjectRefs,
		"attachments":        task.Attachments,
		"custom_fields":      task.CustomFields,
		"custom_ints":        task.CustomInts,
		"callback_info":      task.CallbackInfo,
	}
	out := make(map[string][]byte, len(cols))
	for col, v := range cols {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal task column %s: %w", col, err)
		}
		out[col] = raw
	}
	return out, nil
}

// taskValues builds the insert value list matching the Create column order.
func taskValues(task *domain.Task) ([]any, error) {
	jsonCols, err := taskJSONColumns(task)
	if err != nil {
		return nil, err
	}
	return []any{
		task.ID, task.ExternalID, task.WorkbasketID(), task.State, task.CallbackState, task.Owner,
		task.Name, task.Description, task.Note, task.Priority,
		jsonCols["classification"], jsonCols["primary_obj_ref"], jsonCols["secondary_obj_refs"], jsonCols["attachments"],
		task.IsRead, task.IsTransferred, task.IsReopened,
		task.Created, task.Modified, task.Claimed, task.Completed, task.Planned, task.Received, task.Due,
		jsonCols["custom_fields"], jsonCols["custom_ints"], jsonCols["callback_info"],
	}, nil
}
