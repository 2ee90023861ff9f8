package service

import (
	"context"
	"fmt"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/intake"
	"github.com/Rrens/dietplan/internal/nutrition"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ClientSummary is a stored profile with its computed targets
type ClientSummary struct {
	Profile *domain.ClientProfile   `json:"profile"`
	Targets domain.NutritionTargets `json:"targets"`
}

// IntakeService turns questionnaire submissions into client profiles
type IntakeService struct {
	profiles   domain.ClientProfileRepository
	normalizer *intake.Normalizer
}

// NewIntakeService creates a new intake service
func NewIntakeService(profiles domain.ClientProfileRepository, normalizer *intake.Normalizer) *IntakeService {
	return &IntakeService{
		profiles:   profiles,
		normalizer: normalizer,
	}
}

// Submit normalizes and stores an intake submission
func (s *IntakeService) Submit(ctx context.Context, sub domain.IntakeSubmission) (*ClientSummary, error) {
	profile := s.normalizer.Normalize(sub.Answers, sub.FormLocale)
	if err := s.profiles.Create(ctx, &profile); err != nil {
		return nil, fmt.Errorf("failed to store client profile: %w", err)
	}

	targets := nutrition.Compute(profile)
	log.Info().
		Str("client_id", profile.ID.String()).
		Str("locale", string(profile.Locale)).
		Str("goal", string(profile.Goal)).
		Int("total_calories", targets.TotalCalories).
		Msg("intake stored")

	return &ClientSummary{Profile: &profile, Targets: targets}, nil
}

// Get returns a stored profile with freshly computed targets
func (s *IntakeService) Get(ctx context.Context, clientID uuid.UUID) (*ClientSummary, error) {
	profile, err := s.profiles.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &ClientSummary{Profile: profile, Targets: nutrition.Compute(*profile)}, nil
}
