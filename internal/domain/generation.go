package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GenerationRequest is the fully rendered instruction set for one generation attempt
type GenerationRequest struct {
	Locale            Locale `json:"locale"`
	SystemPrompt      string `json:"system_prompt"`
	UserPrompt        string `json:"user_prompt"`
	SchemaDescription string `json:"schema_description"`
}

// Usage contains provider token accounting
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Total returns prompt plus completion tokens
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// FailureKind classifies an unsuccessful generation attempt
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureMalformed FailureKind = "malformed"
)

// GenerationResult is one append-only generation log row
type GenerationResult struct {
	ID               uuid.UUID       `json:"id"`
	ClientID         uuid.UUID       `json:"client_id"`
	DietPlanID       *uuid.UUID      `json:"diet_plan_id,omitempty"`
	Provider         string          `json:"provider"`
	Model            string          `json:"model"`
	RawText          string          `json:"raw_text,omitempty"`
	RawJSON          json.RawMessage `json:"raw_json,omitempty"`
	Usage            Usage           `json:"usage"`
	GenerationTimeMs int64           `json:"generation_time_ms"`
	Cost             float64         `json:"cost"`
	Success          bool            `json:"success"`
	FailureKind      FailureKind     `json:"failure_kind,omitempty"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// GenerationLogRepository defines the interface for the append-only generation log
type GenerationLogRepository interface {
	Append(ctx context.Context, result *GenerationResult) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]GenerationResult, error)
}

// GenerationLock guards against concurrent generations for one client.
// Acquire returns an owner value identifying this acquisition; an empty owner
// means another generation holds the lock. Release only frees the lock while
// it is still held by owner.
type GenerationLock interface {
	Acquire(ctx context.Context, clientID uuid.UUID) (string, error)
	Release(ctx context.Context, clientID uuid.UUID, owner string) error
}
