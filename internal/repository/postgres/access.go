package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccessRepository implements domain.PublishedAccessRepository
type AccessRepository struct {
	pool *pgxpool.Pool
}

// NewAccessRepository creates a new published access repository
func NewAccessRepository(pool *pgxpool.Pool) *AccessRepository {
	return &AccessRepository{pool: pool}
}

const accessColumns = `id, diet_plan_id, access_token, issued_at, expires_at, is_active, deactivated_at`

func (r *AccessRepository) GetByToken(ctx context.Context, token string) (*domain.PublishedAccess, error) {
	query := `SELECT ` + accessColumns + ` FROM published_access WHERE access_token = $1`
	a, err := scanAccess(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("access token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get published access: %w", err)
	}
	return a, nil
}

func (r *AccessRepository) GetActiveByPlan(ctx context.Context, planID uuid.UUID) (*domain.PublishedAccess, error) {
	query := `SELECT ` + accessColumns + ` FROM published_access WHERE diet_plan_id = $1 AND is_active`
	a, err := scanAccess(r.pool.QueryRow(ctx, query, planID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("active access of plan %s: %w", planID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active access: %w", err)
	}
	return a, nil
}

func (r *AccessRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.PublishedAccess, error) {
	query := `SELECT ` + accessColumns + ` FROM published_access WHERE diet_plan_id = $1 ORDER BY issued_at DESC`
	rows, err := r.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list published access: %w", err)
	}
	defer rows.Close()

	records := []domain.PublishedAccess{}
	for rows.Next() {
		a, err := scanAccess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan published access: %w", err)
		}
		records = append(records, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list published access: %w", err)
	}
	return records, nil
}

func (r *AccessRepository) DeactivateByPlan(ctx context.Context, planID uuid.UUID, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE published_access
		SET is_active = FALSE, deactivated_at = $2
		WHERE diet_plan_id = $1 AND is_active
	`, planID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate published access: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAccess(row rowScanner) (*domain.PublishedAccess, error) {
	var a domain.PublishedAccess
	if err := row.Scan(
		&a.ID,
		&a.DietPlanID,
		&a.AccessToken,
		&a.IssuedAt,
		&a.ExpiresAt,
		&a.IsActive,
		&a.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
