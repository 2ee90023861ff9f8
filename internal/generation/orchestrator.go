package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/llm"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTemperature = 0.7
	DefaultTimeout     = 180 * time.Second

	logAppendTimeout = 10 * time.Second
)

// Config holds the fixed sampling settings of an orchestrator
type Config struct {
	Temperature float64
	Timeout     time.Duration
	Pricing     llm.Pricing
}

// CallOptions varies per call: a full plan and a diagnostic ping differ only in their output ceiling
type CallOptions struct {
	MaxTokens int
	Model     string
}

// Orchestrator issues one provider call per Generate and records it in the generation log
type Orchestrator struct {
	provider llm.Provider
	logs     domain.GenerationLogRepository
	cfg      Config
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator bound to one provider
func NewOrchestrator(provider llm.Provider, logs domain.GenerationLogRepository, cfg Config) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Pricing == nil {
		cfg.Pricing = llm.DefaultPricing
	}
	return &Orchestrator{
		provider: provider,
		logs:     logs,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Provider returns the provider this orchestrator calls
func (o *Orchestrator) Provider() llm.Provider {
	return o.provider
}

// Generate never returns an error: every failure is folded into the result,
// which is appended to the generation log exactly once.
func (o *Orchestrator) Generate(ctx context.Context, clientID uuid.UUID, req domain.GenerationRequest, opts CallOptions) *domain.GenerationResult {
	model := opts.Model
	if model == "" {
		model = o.provider.DefaultModel()
	}

	result := &domain.GenerationResult{
		ID:        uuid.New(),
		ClientID:  clientID,
		Provider:  o.provider.Name(),
		Model:     model,
		CreatedAt: o.now(),
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.provider.Complete(callCtx, llm.Request{
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Temperature:  o.cfg.Temperature,
		MaxTokens:    opts.MaxTokens,
		JSON:         true,
	}, model)
	result.GenerationTimeMs = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("provider call timed out after %s: %w", o.cfg.Timeout, err)
		}
		o.fail(result, domain.FailureTransport, err.Error())
	default:
		if resp.Model != "" {
			result.Model = resp.Model
		}
		result.RawText = resp.Content
		result.Usage = resp.Usage
		result.Cost = o.cfg.Pricing.Cost(result.Provider, result.Model, resp.Usage)

		payload := llm.ExtractJSON(resp.Content)
		if payload == "" || !json.Valid([]byte(payload)) {
			o.fail(result, domain.FailureMalformed, "model response is not valid JSON")
		} else {
			result.RawJSON = json.RawMessage(payload)
			result.Success = true
		}
	}

	o.record(ctx, result)
	return result
}

func (o *Orchestrator) fail(result *domain.GenerationResult, kind domain.FailureKind, msg string) {
	result.Success = false
	result.FailureKind = kind
	result.ErrorMessage = &msg
}

// record appends the attempt even when the caller has gone away
func (o *Orchestrator) record(ctx context.Context, result *domain.GenerationResult) {
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logAppendTimeout)
	defer cancel()

	event := log.Info()
	if !result.Success {
		event = log.Warn().Str("failure_kind", string(result.FailureKind)).Str("error", *result.ErrorMessage)
		if result.FailureKind == domain.FailureMalformed {
			event = event.Str("raw_text", truncate(result.RawText, 2000))
		}
	}
	event.
		Str("log_id", result.ID.String()).
		Str("client_id", result.ClientID.String()).
		Str("provider", result.Provider).
		Str("model", result.Model).
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Float64("cost", result.Cost).
		Int64("generation_time_ms", result.GenerationTimeMs).
		Msg("generation attempt finished")

	if err := o.logs.Append(logCtx, result); err != nil {
		log.Error().Err(err).Str("log_id", result.ID.String()).Msg("failed to append generation log")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
