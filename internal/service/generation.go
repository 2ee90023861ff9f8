package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/generation"
	"github.com/Rrens/dietplan/internal/lifecycle"
	"github.com/Rrens/dietplan/internal/llm"
	"github.com/Rrens/dietplan/internal/nutrition"
	"github.com/Rrens/dietplan/internal/plan"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const lockReleaseTimeout = 5 * time.Second

// GenerationSettings configures plan generation
type GenerationSettings struct {
	Temperature         float64
	Timeout             time.Duration
	MaxTokens           int
	DiagnosticMaxTokens int

	// MaxRetries is the number of fresh attempts after a retryable failure
	MaxRetries int
	Pricing    llm.Pricing
}

// GenerateOptions selects the provider and model of one generation
type GenerateOptions struct {
	Provider string `json:"provider" validate:"omitempty,max=32"`
	Model    string `json:"model" validate:"omitempty,max=100"`
}

// PlanGenerationService runs the generate, structure and draft pipeline for one client
type PlanGenerationService struct {
	profiles  domain.ClientProfileRepository
	logs      domain.GenerationLogRepository
	lifecycle *lifecycle.Manager
	llmRouter *llm.Router
	lock      domain.GenerationLock
	settings  GenerationSettings
}

// NewPlanGenerationService creates a new plan generation service. lock may be nil.
func NewPlanGenerationService(
	profiles domain.ClientProfileRepository,
	logs domain.GenerationLogRepository,
	manager *lifecycle.Manager,
	llmRouter *llm.Router,
	lock domain.GenerationLock,
	settings GenerationSettings,
) *PlanGenerationService {
	return &PlanGenerationService{
		profiles:  profiles,
		logs:      logs,
		lifecycle: manager,
		llmRouter: llmRouter,
		lock:      lock,
		settings:  settings,
	}
}

// Generate produces a new draft plan for a client.
// Failed attempts are retried with a fresh request up to MaxRetries times.
func (s *PlanGenerationService) Generate(ctx context.Context, clientID uuid.UUID, opts GenerateOptions) (*domain.DietPlan, error) {
	profile, err := s.profiles.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	orchestrator, err := s.orchestrator(opts.Provider)
	if err != nil {
		return nil, err
	}

	if s.lock != nil {
		owner, err := s.lock.Acquire(ctx, clientID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
		}
		if owner == "" {
			return nil, domain.ErrGenerationInFlight
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
			defer cancel()
			if err := s.lock.Release(releaseCtx, clientID, owner); err != nil {
				log.Warn().Err(err).Str("client_id", clientID.String()).Msg("failed to release generation lock")
			}
		}()
	}

	targets := nutrition.Compute(*profile)
	callOpts := generation.CallOptions{MaxTokens: s.settings.MaxTokens, Model: opts.Model}

	var result *domain.GenerationResult
	for attempt := 0; attempt <= s.settings.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req := llm.BuildGenerationRequest(*profile, targets, profile.Locale)
		result = orchestrator.Generate(ctx, clientID, req, callOpts)
		if result.Success {
			break
		}
		log.Warn().
			Str("client_id", clientID.String()).
			Int("attempt", attempt+1).
			Str("failure_kind", string(result.FailureKind)).
			Msg("plan generation attempt failed")
	}

	if !result.Success {
		genErr := &domain.GenerationError{Kind: result.FailureKind, LogID: result.ID}
		if result.ErrorMessage != nil {
			genErr.Message = *result.ErrorMessage
		}
		return nil, genErr
	}
	// an abandoned request leaves only its log row behind
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	draft, err := plan.Structure(result, targets, *profile)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.CreateDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Diagnose sends a tiny request to check that a provider answers with JSON
func (s *PlanGenerationService) Diagnose(ctx context.Context, opts GenerateOptions) (*domain.GenerationResult, error) {
	orchestrator, err := s.orchestrator(opts.Provider)
	if err != nil {
		return nil, err
	}
	result := orchestrator.Generate(ctx, uuid.Nil, llm.DiagnosticRequest(), generation.CallOptions{
		MaxTokens: s.settings.DiagnosticMaxTokens,
		Model:     opts.Model,
	})
	return result, nil
}

// History lists the most recent generation attempts of a client
func (s *PlanGenerationService) History(ctx context.Context, clientID uuid.UUID, limit int) ([]domain.GenerationResult, error) {
	if _, err := s.profiles.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.logs.ListByClient(ctx, clientID, limit)
}

// Providers describes the registered generation providers
func (s *PlanGenerationService) Providers() []llm.ProviderInfo {
	return s.llmRouter.GetProvidersInfo()
}

func (s *PlanGenerationService) orchestrator(providerName string) (*generation.Orchestrator, error) {
	provider, err := s.llmRouter.GetProvider(providerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return generation.NewOrchestrator(provider, s.logs, generation.Config{
		Temperature: s.settings.Temperature,
		Timeout:     s.settings.Timeout,
		Pricing:     s.settings.Pricing,
	}), nil
}

// IsRetryable reports whether err is a generation failure worth retrying later
func IsRetryable(err error) bool {
	var genErr *domain.GenerationError
	return errors.As(err, &genErr) && genErr.Retryable()
}
