package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskbasket/internal/domain"
)

// AccessItemRepository resolves and maintains workbasket access items. It
// implements the engine's authorization index.
type AccessItemRepository struct {
	pool *pgxpool.Pool
}

// NewAccessItemRepository creates a new AccessItemRepository.
func NewAccessItemRepository(pool *pgxpool.Pool) *AccessItemRepository {
	return &AccessItemRepository{pool: pool}
}

// EffectivePermissions returns the union of all permissions granted to any
// of the access ids on the workbasket. A missing workbasket surfaces as a
// not-found error so the guard can apply its visibility rule.
func (r *AccessItemRepository) EffectivePermissions(ctx context.Context, workbasketID string, accessIDs []string) (domain.Permission, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM workbaskets WHERE id = $1)", workbasketID,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check workbasket %s: %w", workbasketID, err)
	}
	if !exists {
		return 0, &domain.WorkbasketNotFoundError{WorkbasketID: workbasketID}
	}

	query, args, err := psql.
		Select("permissions").
		From("workbasket_access_items").
		Where(sq.Eq{"workbasket_id": workbasketID, "access_id": accessIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build EffectivePermissions query for workbasket %s: %w", workbasketID, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("query access items: %w", err)
	}
	defer rows.Close()

	var effective domain.Permission
	for rows.Next() {
		var perms int64
		if err := rows.Scan(&perms); err != nil {
			return 0, fmt.Errorf("scan access item: %w", err)
		}
		effective = effective.Union(domain.Permission(perms))
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate rows: %w", err)
	}
	return effective, nil
}

// Upsert creates or replaces the access item for one (workbasket, access id)
// pair. At most one item exists per pair.
func (r *AccessItemRepository) Upsert(ctx context.Context, item *domain.WorkbasketAccessItem) (*domain.WorkbasketAccessItem, error) {
	if item.ID == "" {
		item.ID = domain.NewAccessItemID()
	}
	query, args, err := psql.
		Insert("workbasket_access_items").
		Columns("id", "workbasket_id", "access_id", "access_name", "permissions").
		Values(item.ID, item.WorkbasketID, item.AccessID, item.AccessName, int64(item.Permissions)).
		Suffix("ON CONFLICT (workbasket_id, access_id) DO UPDATE SET access_name = EXCLUDED.access_name, permissions = EXCLUDED.permissions").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Upsert query for access item: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("upsert access item: %w", err)
	}
	return item, nil
}

// GetByWorkbasket lists all access items of a workbasket.
func (r *AccessItemRepository) GetByWorkbasket(ctx context.Context, workbasketID string) ([]*domain.WorkbasketAccessItem, error) {
	query, args, err := psql.
		Select("id", "workbasket_id", "access_id", "access_name", "permissions").
		From("workbasket_access_items").
		Where(sq.Eq{"workbasket_id": workbasketID}).
		OrderBy("access_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByWorkbasket query for workbasket %s: %w", workbasketID, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query access items: %w", err)
	}
	defer rows.Close()

	var items []*domain.WorkbasketAccessItem
	for rows.Next() {
		var (
			item  domain.WorkbasketAccessItem
			perms int64
		)
		if err := rows.Scan(&item.ID, &item.WorkbasketID, &item.AccessID, &item.AccessName, &perms); err != nil {
			return nil, fmt.Errorf("scan access item: %w", err)
		}
		item.Permissions = domain.Permission(perms)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}
