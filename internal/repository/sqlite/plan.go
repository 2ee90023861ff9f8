package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
)

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DietPlanRepository implements domain.DietPlanRepository
type DietPlanRepository struct {
	db *sql.DB
}

const planColumns = `
	id, client_id, status, version, targets, overview, weeks, recommendations, review_notes,
	approved_by, approved_at, rejected_by, rejected_at, generation_log_id, created_at, updated_at
`

func (r *DietPlanRepository) Create(ctx context.Context, plan *domain.DietPlan) error {
	weeks := plan.Weeks
	if weeks == nil {
		weeks = []domain.Week{}
	}
	notes := plan.ReviewNotes
	if notes == nil {
		notes = []domain.ReviewNote{}
	}
	docs := make([]string, 0, 5)
	for _, v := range []any{plan.Targets, plan.Overview, weeks, plan.Recommendations, notes} {
		s, err := encodeJSON(v)
		if err != nil {
			return err
		}
		docs = append(docs, s)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO diet_plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		plan.ID,
		plan.ClientID,
		string(plan.Status),
		plan.Version,
		docs[0],
		docs[1],
		docs[2],
		docs[3],
		docs[4],
		nullUUID(plan.ApprovedBy),
		nullTime(plan.ApprovedAt),
		nullUUID(plan.RejectedBy),
		nullTime(plan.RejectedAt),
		nullUUID(plan.GenerationLogID),
		formatTime(plan.CreatedAt),
		formatTime(plan.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create diet plan: %w", err)
	}
	return nil
}

func (r *DietPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DietPlan, error) {
	plan, err := scanPlan(r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM diet_plans WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("diet plan %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get diet plan: %w", err)
	}
	return plan, nil
}

func (r *DietPlanRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.DietPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM diet_plans WHERE client_id = ? ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list diet plans: %w", err)
	}
	defer rows.Close()

	plans := []domain.DietPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diet plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list diet plans: %w", err)
	}
	return plans, nil
}

func (r *DietPlanRepository) ApplyStatusChange(ctx context.Context, change domain.StatusChange) error {
	return applyStatusChange(ctx, r.db, change)
}

func (r *DietPlanRepository) Publish(ctx context.Context, change domain.StatusChange, access *domain.PublishedAccess) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin publish tx: %w", err)
	}
	defer tx.Rollback()

	if err := applyStatusChange(ctx, tx, change); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE published_access
		SET is_active = 0, deactivated_at = ?
		WHERE diet_plan_id = ? AND is_active = 1
	`, formatTime(change.At), change.PlanID); err != nil {
		return fmt.Errorf("deactivate previous access: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO published_access (id, diet_plan_id, access_token, issued_at, expires_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		access.ID,
		access.DietPlanID,
		access.AccessToken,
		formatTime(access.IssuedAt),
		formatTime(access.ExpiresAt),
		access.IsActive,
	); err != nil {
		return fmt.Errorf("create published access: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit publish: %w", err)
	}
	return nil
}

func (r *DietPlanRepository) SaveCustomization(ctx context.Context, c *domain.PlanCustomization, planVersion int) error {
	overview, err := nullJSON(c.Overview, c.Overview == nil)
	if err != nil {
		return err
	}
	weeks, err := nullJSON(c.Weeks, c.Weeks == nil)
	if err != nil {
		return err
	}
	recommendations, err := nullJSON(c.Recommendations, c.Recommendations == nil)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO plan_customizations (plan_id, overview, weeks, recommendations, edited_by, updated_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE EXISTS (
			SELECT 1 FROM diet_plans
			WHERE id = ? AND version = ? AND status IN ('draft', 'pending_review')
		)
		ON CONFLICT(plan_id) DO UPDATE SET
			overview = excluded.overview,
			weeks = excluded.weeks,
			recommendations = excluded.recommendations,
			edited_by = excluded.edited_by,
			updated_at = excluded.updated_at
	`, c.PlanID, overview, weeks, recommendations, c.EditedBy, formatTime(c.UpdatedAt), c.PlanID, planVersion)
	if err != nil {
		return fmt.Errorf("save plan customization: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save plan customization: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("diet plan %s: %w", c.PlanID, domain.ErrStaleState)
	}
	return nil
}

func (r *DietPlanRepository) GetCustomization(ctx context.Context, planID uuid.UUID) (*domain.PlanCustomization, error) {
	var c domain.PlanCustomization
	var overview, weeks, recommendations sql.NullString
	var updatedAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT plan_id, overview, weeks, recommendations, edited_by, updated_at
		FROM plan_customizations
		WHERE plan_id = ?
	`, planID).Scan(&c.PlanID, &overview, &weeks, &recommendations, &c.EditedBy, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customization of plan %s: %w", planID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get plan customization: %w", err)
	}
	if overview.Valid {
		c.Overview = &domain.PlanOverview{}
		if err := decodeJSON(overview, c.Overview); err != nil {
			return nil, err
		}
	}
	if err := decodeJSON(weeks, &c.Weeks); err != nil {
		return nil, err
	}
	if recommendations.Valid {
		c.Recommendations = &domain.Recommendations{}
		if err := decodeJSON(recommendations, c.Recommendations); err != nil {
			return nil, err
		}
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *DietPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var referenced int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM published_access WHERE diet_plan_id = ?`, id,
	).Scan(&referenced); err != nil {
		return fmt.Errorf("check plan references: %w", err)
	}
	if referenced > 0 {
		return fmt.Errorf("diet plan %s: %w", id, domain.ErrPlanReferenced)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM diet_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete diet plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete diet plan: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("diet plan %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func applyStatusChange(ctx context.Context, db execer, c domain.StatusChange) error {
	var note any
	if c.Note != nil {
		s, err := encodeJSON(c.Note)
		if err != nil {
			return err
		}
		note = s
	}

	res, err := db.ExecContext(ctx, `
		UPDATE diet_plans SET
			status = ?1,
			version = version + 1,
			updated_at = ?2,
			review_notes = CASE WHEN ?3 IS NULL THEN review_notes ELSE json_insert(review_notes, '$[#]', json(?3)) END,
			approved_by = COALESCE(?4, approved_by),
			approved_at = COALESCE(?5, approved_at),
			rejected_by = COALESCE(?6, rejected_by),
			rejected_at = COALESCE(?7, rejected_at)
		WHERE id = ?8 AND status = ?9 AND version = ?10
	`,
		string(c.To),
		formatTime(c.At),
		note,
		nullUUID(c.ApprovedBy),
		nullTime(c.ApprovedAt),
		nullUUID(c.RejectedBy),
		nullTime(c.RejectedAt),
		c.PlanID,
		string(c.From),
		c.Version,
	)
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM diet_plans WHERE id = ?`, c.PlanID).Scan(&exists); err != nil {
		return fmt.Errorf("check plan existence: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("diet plan %s: %w", c.PlanID, domain.ErrNotFound)
	}
	return fmt.Errorf("diet plan %s: %w", c.PlanID, domain.ErrStaleState)
}

func scanPlan(row rowScanner) (*domain.DietPlan, error) {
	var p domain.DietPlan
	var status, createdAt, updatedAt string
	var targets, overview, weeks, recommendations, notes sql.NullString
	var approvedBy, rejectedBy, logID uuid.NullUUID
	var approvedAt, rejectedAt sql.NullString
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
		&approvedBy,
		&approvedAt,
		&rejectedBy,
		&rejectedAt,
		&logID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = domain.PlanStatus(status)
	p.ApprovedBy = uuidPtr(approvedBy)
	p.RejectedBy = uuidPtr(rejectedBy)
	p.GenerationLogID = uuidPtr(logID)

	for _, doc := range []struct {
		data sql.NullString
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

	var err error
	if p.ApprovedAt, err = parseNullTime(approvedAt); err != nil {
		return nil, err
	}
	if p.RejectedAt, err = parseNullTime(rejectedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
