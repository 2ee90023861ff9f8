package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GenerationLogRepository implements domain.GenerationLogRepository.
// Rows are inserted once and never updated.
type GenerationLogRepository struct {
	pool *pgxpool.Pool
}

// NewGenerationLogRepository creates a new generation log repository
func NewGenerationLogRepository(pool *pgxpool.Pool) *GenerationLogRepository {
	return &GenerationLogRepository{pool: pool}
}

func (r *GenerationLogRepository) Append(ctx context.Context, g *domain.GenerationResult) error {
	// diagnostic calls are not tied to a client
	var clientID *uuid.UUID
	if g.ClientID != uuid.Nil {
		clientID = &g.ClientID
	}
	var rawJSON []byte
	if len(g.RawJSON) > 0 {
		rawJSON = []byte(g.RawJSON)
	}

	query := `
		INSERT INTO generation_logs (
			id, client_id, diet_plan_id, provider, model, raw_text, raw_json,
			prompt_tokens, completion_tokens, generation_time_ms, cost,
			success, failure_kind, error_message, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.pool.Exec(ctx, query,
		g.ID,
		clientID,
		g.DietPlanID,
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
		g.ErrorMessage,
		g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append generation log: %w", err)
	}
	return nil
}

func (r *GenerationLogRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]domain.GenerationResult, error) {
	query := `
		SELECT id, client_id, diet_plan_id, provider, model, raw_text, raw_json,
			prompt_tokens, completion_tokens, generation_time_ms, cost,
			success, failure_kind, error_message, created_at
		FROM generation_logs
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.GenerationResult{}
	for rows.Next() {
		var (
			g           domain.GenerationResult
			client      *uuid.UUID
			rawJSON     []byte
			failureKind string
		)
		if err := rows.Scan(
			&g.ID,
			&client,
			&g.DietPlanID,
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
			&g.ErrorMessage,
			&g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation log: %w", err)
		}
		if client != nil {
			g.ClientID = *client
		}
		g.RawJSON = rawJSON
		g.FailureKind = domain.FailureKind(failureKind)
		logs = append(logs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list generation logs: %w", err)
	}
	return logs, nil
}
