package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
)

// GenerationLogRepository implements domain.GenerationLogRepository
type GenerationLogRepository struct {
	db *sql.DB
}

func (r *GenerationLogRepository) Append(ctx context.Context, g *domain.GenerationResult) error {
	var clientID any
	if g.ClientID != uuid.Nil {
		clientID = g.ClientID.String()
	}
	var rawJSON any
	if len(g.RawJSON) > 0 {
		rawJSON = string(g.RawJSON)
	}
	var errorMessage any
	if g.ErrorMessage != nil {
		errorMessage = *g.ErrorMessage
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generation_logs (
			id, client_id, diet_plan_id, provider, model, raw_text, raw_json,
			prompt_tokens, completion_tokens, generation_time_ms, cost,
			success, failure_kind, error_message, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID,
		clientID,
		nullUUID(g.DietPlanID),
		g.Provider,
		g.Model,
		g.RawText,
		rawJSON,
		g.Usage.PromptTokens,
		g.Usage.CompletionTokens,
		g.GenerationTimeMs,
		g.Cost,
		g.Success,
		string(g.FailureKind),
		errorMessage,
		formatTime(g.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append generation log: %w", err)
	}
	return nil
}

func (r *GenerationLogRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]domain.GenerationResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, diet_plan_id, provider, model, raw_text, raw_json,
			prompt_tokens, completion_tokens, generation_time_ms, cost,
			success, failure_kind, error_message, created_at
		FROM generation_logs
		WHERE client_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, clientID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list generation logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.GenerationResult{}
	for rows.Next() {
		var g domain.GenerationResult
		var client, planID uuid.NullUUID
		var rawJSON, errorMessage sql.NullString
		var failureKind, createdAt string
		if err := rows.Scan(
			&g.ID,
			&client,
			&planID,
			&g.Provider,
			&g.Model,
			&g.RawText,
			&rawJSON,
			&g.Usage.PromptTokens,
			&g.Usage.CompletionTokens,
			&g.GenerationTimeMs,
			&g.Cost,
			&g.Success,
			&failureKind,
			&errorMessage,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan generation log: %w", err)
		}
		g.ClientID = client.UUID
		g.DietPlanID = uuidPtr(planID)
		if rawJSON.Valid {
			g.RawJSON = []byte(rawJSON.String)
		}
		if errorMessage.Valid {
			msg := errorMessage.String
			g.ErrorMessage = &msg
		}
		g.FailureKind = domain.FailureKind(failureKind)
		if g.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		logs = append(logs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list generation logs: %w", err)
	}
	return logs, nil
}
