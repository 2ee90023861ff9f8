package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execer is satisfied by both the pool and a transaction
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DietPlanRepository implements domain.DietPlanRepository
type DietPlanRepository struct {
	pool *pgxpool.Pool
}

// NewDietPlanRepository creates a new diet plan repository
func NewDietPlanRepository(pool *pgxpool.Pool) *DietPlanRepository {
	return &DietPlanRepository{pool: pool}
}

const planColumns = `
	id, client_id, status, version, targets, overview, weeks, recommendations, review_notes,
	approved_by, approved_at, rejected_by, rejected_at, generation_log_id, created_at, updated_at
`

func (r *DietPlanRepository) Create(ctx context.Context, plan *domain.DietPlan) error {
	targets, err := encodeJSON(plan.Targets)
	if err != nil {
		return err
	}
	overview, err := encodeJSON(plan.Overview)
	if err != nil {
		return err
	}
	weeks := plan.Weeks
	if weeks == nil {
		weeks = []domain.Week{}
	}
	weeksJSON, err := encodeJSON(weeks)
	if err != nil {
		return err
	}
	recommendations, err := encodeJSON(plan.Recommendations)
	if err != nil {
		return err
	}
	notes := plan.ReviewNotes
	if notes == nil {
		notes = []domain.ReviewNote{}
	}
	notesJSON, err := encodeJSON(notes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO diet_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.pool.Exec(ctx, query,
		plan.ID,
		plan.ClientID,
		string(plan.Status),
		plan.Version,
		targets,
		overview,
		weeksJSON,
		recommendations,
		notesJSON,
		plan.ApprovedBy,
		plan.ApprovedAt,
		plan.RejectedBy,
		plan.RejectedAt,
		plan.GenerationLogID,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create diet plan: %w", err)
	}
	return nil
}

func (r *DietPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DietPlan, error) {
	query := `SELECT ` + planColumns + ` FROM diet_plans WHERE id = $1`
	plan, err := scanPlan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("diet plan %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get diet plan: %w", err)
	}
	return plan, nil
}

func (r *DietPlanRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.DietPlan, error) {
	query := `SELECT ` + planColumns + ` FROM diet_plans WHERE client_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diet plans: %w", err)
	}
	defer rows.Close()

	plans := []domain.DietPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan diet plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list diet plans: %w", err)
	}
	return plans, nil
}

func (r *DietPlanRepository) ApplyStatusChange(ctx context.Context, change domain.StatusChange) error {
	return applyStatusChange(ctx, r.pool, change)
}

func (r *DietPlanRepository) Publish(ctx context.Context, change domain.StatusChange, access *domain.PublishedAccess) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := applyStatusChange(ctx, tx, change); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE published_access
		SET is_active = FALSE, deactivated_at = $2
		WHERE diet_plan_id = $1 AND is_active
	`, change.PlanID, change.At); err != nil {
		return fmt.Errorf("failed to deactivate previous access: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO published_access (id, diet_plan_id, access_token, issued_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		access.ID,
		access.DietPlanID,
		access.AccessToken,
		access.IssuedAt,
		access.ExpiresAt,
		access.IsActive,
	); err != nil {
		return fmt.Errorf("failed to create published access: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit publish: %w", err)
	}
	return nil
}

func (r *DietPlanRepository) SaveCustomization(ctx context.Context, c *domain.PlanCustomization, planVersion int) error {
	var overview, weeks, recommendations []byte
	var err error
	if c.Overview != nil {
		if overview, err = encodeJSON(c.Overview); err != nil {
			return err
		}
	}
	if c.Weeks != nil {
		if weeks, err = encodeJSON(c.Weeks); err != nil {
			return err
		}
	}
	if c.Recommendations != nil {
		if recommendations, err = encodeJSON(c.Recommendations); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO plan_customizations (plan_id, overview, weeks, recommendations, edited_by, updated_at)
		SELECT $1::uuid, $2::jsonb, $3::jsonb, $4::jsonb, $5::uuid, $6::timestamptz
		WHERE EXISTS (
			SELECT 1 FROM diet_plans
			WHERE id = $1 AND version = $7 AND status IN ('draft', 'pending_review')
		)
		ON CONFLICT (plan_id) DO UPDATE SET
			overview = EXCLUDED.overview,
			weeks = EXCLUDED.weeks,
			recommendations = EXCLUDED.recommendations,
			edited_by = EXCLUDED.edited_by,
			updated_at = EXCLUDED.updated_at
	`
	tag, err := r.pool.Exec(ctx, query, c.PlanID, overview, weeks, recommendations, c.EditedBy, c.UpdatedAt, planVersion)
	if err != nil {
		return fmt.Errorf("failed to save plan customization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("diet plan %s: %w", c.PlanID, domain.ErrStaleState)
	}
	return nil
}

func (r *DietPlanRepository) GetCustomization(ctx context.Context, planID uuid.UUID) (*domain.PlanCustomization, error) {
	query := `
		SELECT plan_id, overview, weeks, recommendations, edited_by, updated_at
		FROM plan_customizations
		WHERE plan_id = $1
	`
	var c domain.PlanCustomization
	var overview, weeks, recommendations []byte
	err := r.pool.QueryRow(ctx, query, planID).Scan(
		&c.PlanID,
		&overview,
		&weeks,
		&recommendations,
		&c.EditedBy,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customization of plan %s: %w", planID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plan customization: %w", err)
	}
	if len(overview) > 0 {
		c.Overview = &domain.PlanOverview{}
		if err := decodeJSON(overview, c.Overview); err != nil {
			return nil, err
		}
	}
	if err := decodeJSON(weeks, &c.Weeks); err != nil {
		return nil, err
	}
	if len(recommendations) > 0 {
		c.Recommendations = &domain.Recommendations{}
		if err := decodeJSON(recommendations, c.Recommendations); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *DietPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var referenced bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM published_access WHERE diet_plan_id = $1)`, id,
	).Scan(&referenced); err != nil {
		return fmt.Errorf("failed to check plan references: %w", err)
	}
	if referenced {
		return fmt.Errorf("diet plan %s: %w", id, domain.ErrPlanReferenced)
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM diet_plans WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("diet plan %s: %w", id, domain.ErrPlanReferenced)
		}
		return fmt.Errorf("failed to delete diet plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("diet plan %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func applyStatusChange(ctx context.Context, db execer, c domain.StatusChange) error {
	var note []byte
	if c.Note != nil {
		var err error
		if note, err = encodeJSON([]domain.ReviewNote{*c.Note}); err != nil {
			return err
		}
	}

	query := `
		UPDATE diet_plans SET
			status = $1,
			version = version + 1,
			updated_at = $2,
			review_notes = CASE WHEN $3::jsonb IS NULL THEN review_notes ELSE review_notes || $3::jsonb END,
			approved_by = COALESCE($4, approved_by),
			approved_at = COALESCE($5, approved_at),
			rejected_by = COALESCE($6, rejected_by),
			rejected_at = COALESCE($7, rejected_at)
		WHERE id = $8 AND status = $9 AND version = $10
	`
	tag, err := db.Exec(ctx, query,
		string(c.To),
		c.At,
		note,
		c.ApprovedBy,
		c.ApprovedAt,
		c.RejectedBy,
		c.RejectedAt,
		c.PlanID,
		string(c.From),
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM diet_plans WHERE id = $1)`, c.PlanID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check plan existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("diet plan %s: %w", c.PlanID, domain.ErrNotFound)
	}
	return fmt.Errorf("diet plan %s: %w", c.PlanID, domain.ErrStaleState)
}

func scanPlan(row rowScanner) (*domain.DietPlan, error) {
	var p domain.DietPlan
	var status string
	var targets, overview, weeks, recommendations, notes []byte
	if err := row.Scan(
		&p.ID,
		&p.ClientID,
		&status,
		&p.Version,
		&targets,
		&overview,
		&weeks,
		&recommendations,
		&notes,
		&p.ApprovedBy,
		&p.ApprovedAt,
		&p.RejectedBy,
		&p.RejectedAt,
		&p.GenerationLogID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.PlanStatus(status)

	for _, doc := range []struct {
		data []byte
		dst  any
	}{
		{targets, &p.Targets},
		{overview, &p.Overview},
		{weeks, &p.Weeks},
		{recommendations, &p.Recommendations},
		{notes, &p.ReviewNotes},
	} {
		if err := decodeJSON(doc.data, doc.dst); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
