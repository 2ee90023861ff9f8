package service

import (
	"context"
	"errors"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/lifecycle"
	"github.com/Rrens/dietplan/internal/notify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultViewCacheTTL bounds how long a resolved client view is served from cache
const DefaultViewCacheTTL = 5 * time.Minute

// PlanDetail is the reviewer's view of a plan
type PlanDetail struct {
	Plan          *domain.DietPlan          `json:"plan"`
	Customization *domain.PlanCustomization `json:"customization,omitempty"`

	// Effective is the plan with the customization overlay applied
	Effective domain.DietPlan `json:"effective"`
}

// PublishResult is returned by a publish action
type PublishResult struct {
	Plan   *domain.DietPlan        `json:"plan"`
	Access *domain.PublishedAccess `json:"access"`
	URL    string                  `json:"url"`
}

// ReviewService exposes the plan lifecycle to reviewers and clients
type ReviewService struct {
	manager       *lifecycle.Manager
	plans         domain.DietPlanRepository
	profiles      domain.ClientProfileRepository
	notifier      domain.PlanNotifier
	cache         domain.ViewCache
	publicBaseURL string
	cacheTTL      time.Duration
	now           func() time.Time
}

// NewReviewService creates a new review service. cache may be nil.
func NewReviewService(
	manager *lifecycle.Manager,
	plans domain.DietPlanRepository,
	profiles domain.ClientProfileRepository,
	notifier domain.PlanNotifier,
	cache domain.ViewCache,
	publicBaseURL string,
) *ReviewService {
	return &ReviewService{
		manager:       manager,
		plans:         plans,
		profiles:      profiles,
		notifier:      notifier,
		cache:         cache,
		publicBaseURL: publicBaseURL,
		cacheTTL:      DefaultViewCacheTTL,
		now:           time.Now,
	}
}

// Get returns a plan, its overlay and the effective document
func (s *ReviewService) Get(ctx context.Context, planID uuid.UUID) (*PlanDetail, error) {
	plan, custom, err := s.manager.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &PlanDetail{Plan: plan, Customization: custom, Effective: custom.Apply(*plan)}, nil
}

// ListByClient lists a client's plans, newest first
func (s *ReviewService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.DietPlan, error) {
	if _, err := s.profiles.GetByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.plans.ListByClient(ctx, clientID)
}

func (s *ReviewService) Submit(ctx context.Context, planID, actor uuid.UUID) (*domain.DietPlan, error) {
	return s.manager.Submit(ctx, planID, actor)
}

func (s *ReviewService) RequestChanges(ctx context.Context, planID, actor uuid.UUID, note string) (*domain.DietPlan, error) {
	return s.manager.RequestChanges(ctx, planID, actor, note)
}

func (s *ReviewService) Approve(ctx context.Context, planID, actor uuid.UUID) (*domain.DietPlan, error) {
	return s.manager.Approve(ctx, planID, actor)
}

func (s *ReviewService) Reject(ctx context.Context, planID, actor uuid.UUID, note string) (*domain.DietPlan, error) {
	return s.manager.Reject(ctx, planID, actor, note)
}

// Publish issues a new access token and notifies the client.
// A failed notification is logged; the plan stays published.
func (s *ReviewService) Publish(ctx context.Context, planID, actor uuid.UUID) (*PublishResult, error) {
	previous := s.activeToken(ctx, planID)

	plan, access, err := s.manager.Publish(ctx, planID, actor)
	if err != nil {
		return nil, err
	}
	if previous != "" {
		s.invalidate(ctx, previous)
	}

	url := notify.ViewURL(s.publicBaseURL, access.AccessToken)
	profile, err := s.profiles.GetByID(ctx, plan.ClientID)
	if err != nil {
		log.Error().Err(err).Str("plan_id", plan.ID.String()).Msg("failed to load client for notification")
		return &PublishResult{Plan: plan, Access: access, URL: url}, nil
	}

	if err := s.notifier.PlanPublished(ctx, domain.PublishedNotification{
		ClientName:  profile.Name,
		ClientEmail: profile.Email,
		AccessToken: access.AccessToken,
		Locale:      profile.Locale,
		URL:         url,
	}); err != nil {
		log.Error().Err(err).Str("plan_id", plan.ID.String()).Msg("failed to notify client")
	}

	return &PublishResult{Plan: plan, Access: access, URL: url}, nil
}

// Revoke deactivates the active access of a plan
func (s *ReviewService) Revoke(ctx context.Context, planID, actor uuid.UUID) error {
	previous := s.activeToken(ctx, planID)
	if err := s.manager.Revoke(ctx, planID, actor); err != nil {
		return err
	}
	if previous != "" {
		s.invalidate(ctx, previous)
	}
	return nil
}

func (s *ReviewService) Customize(ctx context.Context, planID, actor uuid.UUID, input domain.CustomizationInput) (*domain.PlanCustomization, error) {
	return s.manager.Customize(ctx, planID, actor, input)
}

func (s *ReviewService) Delete(ctx context.Context, planID uuid.UUID) error {
	return s.manager.Delete(ctx, planID)
}

// AccessHistory lists every access issued for a plan
func (s *ReviewService) AccessHistory(ctx context.Context, planID uuid.UUID) ([]domain.PublishedAccess, error) {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return nil, err
	}
	return s.manager.AccessHistory(ctx, planID)
}

// ResolveToken returns the client view of a token. A cached view is served only
// while its access record is still active.
func (s *ReviewService) ResolveToken(ctx context.Context, token string) (*domain.ClientView, error) {
	if s.cache != nil && token != "" {
		view, err := s.cache.Get(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("view cache read failed")
		}
		if view != nil {
			if _, err := s.manager.CheckAccess(ctx, token); err != nil {
				if errors.Is(err, domain.ErrTokenInvalid) {
					s.invalidate(ctx, token)
				}
				return nil, err
			}
			return view, nil
		}
	}

	view, err := s.manager.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ttl := min(s.cacheTTL, view.ExpiresAt.Sub(s.now()))
		if err := s.cache.Set(ctx, token, view, ttl); err != nil {
			log.Warn().Err(err).Msg("view cache write failed")
		}
	}
	return view, nil
}

func (s *ReviewService) activeToken(ctx context.Context, planID uuid.UUID) string {
	if s.cache == nil {
		return ""
	}
	access, err := s.manager.ActiveAccess(ctx, planID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("plan_id", planID.String()).Msg("failed to read active access")
		}
		return ""
	}
	return access.AccessToken
}

func (s *ReviewService) invalidate(ctx context.Context, token string) {
	if err := s.cache.Invalidate(ctx, token); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate cached view")
	}
}
