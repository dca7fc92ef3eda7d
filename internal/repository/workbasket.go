package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskbasket/internal/domain"
)

// WorkbasketRepository handles database operations for workbaskets and
// their distribution-target edges.
type WorkbasketRepository struct {
	pool *pgxpool.Pool
}

// NewWorkbasketRepository creates a new WorkbasketRepository.
func NewWorkbasketRepository(pool *pgxpool.Pool) *WorkbasketRepository {
	return &WorkbasketRepository{pool: pool}
}

// GetSummary retrieves the summary slice of a workbasket.
func (r *WorkbasketRepository) GetSummary(ctx context.Context, workbasketID string) (*domain.WorkbasketSummary, error) {
	query, args, err := psql.
		Select("id", "wb_key", "name", "domain", "wb_type", "owner").
		From("workbaskets").
		Where(sq.Eq{"id": workbasketID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetSummary query for workbasket %s: %w", workbasketID, err)
	}

	var wb domain.WorkbasketSummary
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&wb.ID, &wb.Key, &wb.Name, &wb.Domain, &wb.Type, &wb.Owner,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.WorkbasketNotFoundError{WorkbasketID: workbasketID}
		}
		return nil, fmt.Errorf("query workbasket: %w", err)
	}
	return &wb, nil
}

// GetDistributionTargets lists the immediate distribution targets of a
// workbasket in configuration order.
func (r *WorkbasketRepository) GetDistributionTargets(ctx context.Context, workbasketID string) ([]string, error) {
	if _, err := r.GetSummary(ctx, workbasketID); err != nil {
		return nil, err
	}

	query, args, err := psql.
		Select("target_id").
		From("workbasket_distribution_targets").
		Where(sq.Eq{"source_id": workbasketID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetDistributionTargets query for workbasket %s: %w", workbasketID, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query distribution targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("scan distribution target: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return targets, nil
}

// Create inserts a workbasket.
func (r *WorkbasketRepository) Create(ctx context.Context, wb *domain.Workbasket) (*domain.Workbasket, error) {
	if wb.ID == "" {
		wb.ID = domain.NewWorkbasketID()
	}
	query, args, err := psql.
		Insert("workbaskets").
		Columns("id", "wb_key", "name", "domain", "wb_type", "owner", "description", "created", "modified").
		Values(wb.ID, wb.Key, wb.Name, wb.Domain, wb.Type, wb.Owner, wb.Description, wb.Created, wb.Modified).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for workbasket: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create workbasket: %w", err)
	}

	if err := r.SetDistributionTargets(ctx, wb.ID, wb.DistributionTargets); err != nil {
		return nil, err
	}
	return wb, nil
}

// SetDistributionTargets replaces the distribution-target edges of a
// workbasket. Cycles are permitted; distribution only resolves immediate
// targets.
func (r *WorkbasketRepository) SetDistributionTargets(ctx context.Context, workbasketID string, targetIDs []string) error {
	query, args, err := psql.
		Delete("workbasket_distribution_targets").
		Where(sq.Eq{"source_id": workbasketID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build target delete query for workbasket %s: %w", workbasketID, err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear distribution targets: %w", err)
	}

	if len(targetIDs) == 0 {
		return nil
	}

	builder := psql.
		Insert("workbasket_distribution_targets").
		Columns("source_id", "target_id", "position")
	for i, targetID := range targetIDs {
		builder = builder.Values(workbasketID, targetID, i)
	}
	query, args, err = builder.ToSql()
	if err != nil {
		return fmt.Errorf("build target insert query for workbasket %s: %w", workbasketID, err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set distribution targets: %w", err)
	}
	return nil
}
