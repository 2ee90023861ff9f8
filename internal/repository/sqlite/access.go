package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
)

// AccessRepository implements domain.PublishedAccessRepository
type AccessRepository struct {
	db *sql.DB
}

const accessColumns = `id, diet_plan_id, access_token, issued_at, expires_at, is_active, deactivated_at`

func (r *AccessRepository) GetByToken(ctx context.Context, token string) (*domain.PublishedAccess, error) {
	a, err := scanAccess(r.db.QueryRowContext(ctx,
		`SELECT `+accessColumns+` FROM published_access WHERE access_token = ?`, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("access token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get published access: %w", err)
	}
	return a, nil
}

func (r *AccessRepository) GetActiveByPlan(ctx context.Context, planID uuid.UUID) (*domain.PublishedAccess, error) {
	a, err := scanAccess(r.db.QueryRowContext(ctx,
		`SELECT `+accessColumns+` FROM published_access WHERE diet_plan_id = ? AND is_active = 1`, planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active access of plan %s: %w", planID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get active access: %w", err)
	}
	return a, nil
}

func (r *AccessRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.PublishedAccess, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accessColumns+` FROM published_access WHERE diet_plan_id = ? ORDER BY issued_at DESC`, planID)
	if err != nil {
		return nil, fmt.Errorf("list published access: %w", err)
	}
	defer rows.Close()

	records := []domain.PublishedAccess{}
	for rows.Next() {
		a, err := scanAccess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan published access: %w", err)
		}
		records = append(records, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list published access: %w", err)
	}
	return records, nil
}

func (r *AccessRepository) DeactivateByPlan(ctx context.Context, planID uuid.UUID, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE published_access
		SET is_active = 0, deactivated_at = ?
		WHERE diet_plan_id = ? AND is_active = 1
	`, formatTime(at), planID)
	if err != nil {
		return 0, fmt.Errorf("deactivate published access: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate published access: %w", err)
	}
	return n, nil
}

func scanAccess(row rowScanner) (*domain.PublishedAccess, error) {
	var a domain.PublishedAccess
	var issuedAt, expiresAt string
	var deactivatedAt sql.NullString
	if err := row.Scan(
		&a.ID,
		&a.DietPlanID,
		&a.AccessToken,
		&issuedAt,
		&expiresAt,
		&a.IsActive,
		&deactivatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if a.IssuedAt, err = parseTime(issuedAt); err != nil {
		return nil, err
	}
	if a.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if a.DeactivatedAt, err = parseNullTime(deactivatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
