package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/plan"
	"github.com/Rrens/dietplan/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AccessTTL is the fixed lifetime of a published access token
const AccessTTL = 90 * 24 * time.Hour

// Manager drives diet plans through their review states and owns
// published access issuance.
type Manager struct {
	plans    domain.DietPlanRepository
	access   domain.PublishedAccessRepository
	now      func() time.Time
	newToken security.TokenGenerator
}

// Option customizes a Manager
type Option func(*Manager)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTokenGenerator replaces the access token source
func WithTokenGenerator(gen security.TokenGenerator) Option {
	return func(m *Manager) { m.newToken = gen }
}

// NewManager creates a new lifecycle manager
func NewManager(plans domain.DietPlanRepository, access domain.PublishedAccessRepository, opts ...Option) *Manager {
	m := &Manager{
		plans:    plans,
		access:   access,
		now:      time.Now,
		newToken: security.NewAccessToken,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateDraft persists a freshly structured plan
func (m *Manager) CreateDraft(ctx context.Context, plan *domain.DietPlan) error {
	if plan.Status != domain.StatusDraft {
		return &domain.InvalidTransitionError{From: plan.Status, Event: "create"}
	}
	now := m.now()
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	plan.Version = 1
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.ReviewNotes == nil {
		plan.ReviewNotes = []domain.ReviewNote{}
	}

	if err := m.plans.Create(ctx, plan); err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().
		Str("plan_id", plan.ID.String()).
		Str("client_id", plan.ClientID.String()).
		Msg("draft plan created")
	return nil
}

// Get returns a plan and its customization overlay, if any
func (m *Manager) Get(ctx context.Context, planID uuid.UUID) (*domain.DietPlan, *domain.PlanCustomization, error) {
	plan, err := m.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	custom, err := m.plans.GetCustomization(ctx, planID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	return plan, custom, nil
}

// Submit moves a draft into review
func (m *Manager) Submit(ctx context.Context, planID, actor uuid.UUID) (*domain.DietPlan, error) {
	return m.transition(ctx, planID, actor, EventSubmit, nil)
}

// RequestChanges sends a plan back to draft with a reviewer note
func (m *Manager) RequestChanges(ctx context.Context, planID, actor uuid.UUID, note string) (*domain.DietPlan, error) {
	return m.transition(ctx, planID, actor, EventRequestChanges, func(c *domain.StatusChange) {
		c.Note = m.note(actor, note, c.At)
	})
}

// Approve stamps the reviewer and approval time
func (m *Manager) Approve(ctx context.Context, planID, actor uuid.UUID) (*domain.DietPlan, error) {
	return m.transition(ctx, planID, actor, EventApprove, func(c *domain.StatusChange) {
		c.ApprovedBy = &actor
		c.ApprovedAt = &c.At
	})
}

// Reject retires a plan; it is kept, never deleted
func (m *Manager) Reject(ctx context.Context, planID, actor uuid.UUID, note string) (*domain.DietPlan, error) {
	return m.transition(ctx, planID, actor, EventReject, func(c *domain.StatusChange) {
		c.RejectedBy = &actor
		c.RejectedAt = &c.At
		c.Note = m.note(actor, note, c.At)
	})
}

// Publish issues a new access token for an approved or already published plan.
// Any previously active token of the plan stops resolving.
func (m *Manager) Publish(ctx context.Context, planID, actor uuid.UUID) (*domain.DietPlan, *domain.PublishedAccess, error) {
	plan, err := m.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	to, err := Next(plan.Status, EventPublish)
	if err != nil {
		return nil, nil, err
	}

	token, err := m.newToken()
	if err != nil {
		return nil, nil, err
	}
	now := m.now()
	access := &domain.PublishedAccess{
		ID:          uuid.New(),
		DietPlanID:  plan.ID,
		AccessToken: token,
		IssuedAt:    now,
		ExpiresAt:   now.Add(AccessTTL),
		IsActive:    true,
	}
	change := domain.StatusChange{
		PlanID:  plan.ID,
		From:    plan.Status,
		To:      to,
		Version: plan.Version,
		At:      now,
	}

	if err := m.plans.Publish(ctx, change, access); err != nil {
		return nil, nil, err
	}

	reissue := plan.Status == domain.StatusPublished
	applyChange(plan, change)

	log.Info().
		Str("plan_id", plan.ID.String()).
		Str("actor", actor.String()).
		Str("access_id", access.ID.String()).
		Bool("reissue", reissue).
		Time("expires_at", access.ExpiresAt).
		Msg("plan published")
	return plan, access, nil
}

// Revoke deactivates the plan's active access. The plan's own status is unchanged.
func (m *Manager) Revoke(ctx context.Context, planID, actor uuid.UUID) error {
	if _, err := m.plans.GetByID(ctx, planID); err != nil {
		return err
	}
	n, err := m.access.DeactivateByPlan(ctx, planID, m.now())
	if err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no active access for plan: %w", domain.ErrNotFound)
	}

	log.Info().
		Str("plan_id", planID.String()).
		Str("actor", actor.String()).
		Msg("published access revoked")
	return nil
}

// ResolveToken maps a client access token to its plan with the overlay applied.
// Unknown, inactive and expired tokens all yield ErrTokenInvalid; the reason is only logged.
func (m *Manager) ResolveToken(ctx context.Context, token string) (*domain.ClientView, error) {
	access, err := m.CheckAccess(ctx, token)
	if err != nil {
		return nil, err
	}

	plan, custom, err := m.Get(ctx, access.DietPlanID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.StatusPublished {
		log.Warn().Str("plan_id", plan.ID.String()).Str("status", string(plan.Status)).Msg("active access on unpublished plan")
		return nil, domain.ErrTokenInvalid
	}

	view := custom.Apply(*plan)
	view.ReviewNotes = []domain.ReviewNote{}
	return &domain.ClientView{Plan: view, ExpiresAt: access.ExpiresAt}, nil
}

// CheckAccess returns the access record of a token that is active and unexpired right now
func (m *Manager) CheckAccess(ctx context.Context, token string) (*domain.PublishedAccess, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	access, err := m.access.GetByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Str("reason", "unknown").Msg("access token rejected")
		return nil, domain.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	if !access.ValidAt(m.now()) {
		reason := "expired"
		if !access.IsActive {
			reason = "inactive"
		}
		log.Debug().
			Str("reason", reason).
			Str("access_id", access.ID.String()).
			Str("plan_id", access.DietPlanID.String()).
			Msg("access token rejected")
		return nil, domain.ErrTokenInvalid
	}
	return access, nil
}

// Customize stores the reviewer overlay. Only plans still under review can be edited.
func (m *Manager) Customize(ctx context.Context, planID, actor uuid.UUID, input domain.CustomizationInput) (*domain.PlanCustomization, error) {
	plan, err := m.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !Editable(plan.Status) {
		return nil, fmt.Errorf("%w: status %s", domain.ErrNotEditable, plan.Status)
	}

	if err := normalizeWeeks(input.Weeks); err != nil {
		return nil, err
	}
	custom := &domain.PlanCustomization{
		PlanID:          planID,
		Overview:        input.Overview,
		Weeks:           input.Weeks,
		Recommendations: input.Recommendations,
		EditedBy:        actor,
		UpdatedAt:       m.now(),
	}

	if err := m.plans.SaveCustomization(ctx, custom, plan.Version); err != nil {
		return nil, fmt.Errorf("failed to save customization: %w", err)
	}
	return custom, nil
}

// normalizeWeeks holds an overlay to the same shape rules as a generated plan:
// weeks renumbered, days ordered, meal types on the six slots, day totals recomputed.
func normalizeWeeks(weeks []domain.Week) error {
	for wi := range weeks {
		weeks[wi].WeekNumber = wi + 1
		days := weeks[wi].Days
		for di := range days {
			day := &days[di]
			if day.DayNumber <= 0 {
				day.DayNumber = di + 1
			}
			day.TotalCalories = 0
			for mi := range day.Meals {
				meal := &day.Meals[mi]
				t, ok := plan.ParseMealType(string(meal.Type))
				if !ok {
					return fmt.Errorf("%w: week %d day %d: unknown meal type %q",
						domain.ErrInvalidCustomization, wi+1, day.DayNumber, meal.Type)
				}
				meal.Type = t
				if meal.Calories < 0 {
					return fmt.Errorf("%w: week %d day %d: negative calories",
						domain.ErrInvalidCustomization, wi+1, day.DayNumber)
				}
				day.TotalCalories += meal.Calories
			}
		}
		sort.SliceStable(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })
	}
	return nil
}

// Delete removes a plan that was never published
func (m *Manager) Delete(ctx context.Context, planID uuid.UUID) error {
	if _, err := m.plans.GetByID(ctx, planID); err != nil {
		return err
	}
	issued, err := m.access.ListByPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to list access: %w", err)
	}
	if len(issued) > 0 {
		return domain.ErrPlanReferenced
	}
	return m.plans.Delete(ctx, planID)
}

// ActiveAccess returns the active access of a plan
func (m *Manager) ActiveAccess(ctx context.Context, planID uuid.UUID) (*domain.PublishedAccess, error) {
	return m.access.GetActiveByPlan(ctx, planID)
}

// AccessHistory returns every access ever issued for a plan, newest first
func (m *Manager) AccessHistory(ctx context.Context, planID uuid.UUID) ([]domain.PublishedAccess, error) {
	return m.access.ListByPlan(ctx, planID)
}

func (m *Manager) transition(ctx context.Context, planID, actor uuid.UUID, event Event, decorate func(*domain.StatusChange)) (*domain.DietPlan, error) {
	plan, err := m.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	to, err := Next(plan.Status, event)
	if err != nil {
		return nil, err
	}

	change := domain.StatusChange{
		PlanID:  plan.ID,
		From:    plan.Status,
		To:      to,
		Version: plan.Version,
		At:      m.now(),
	}
	if decorate != nil {
		decorate(&change)
	}

	if err := m.plans.ApplyStatusChange(ctx, change); err != nil {
		return nil, err
	}
	applyChange(plan, change)

	log.Info().
		Str("plan_id", plan.ID.String()).
		Str("actor", actor.String()).
		Str("event", string(event)).
		Str("from", string(change.From)).
		Str("to", string(change.To)).
		Msg("plan transitioned")
	return plan, nil
}

func (m *Manager) note(actor uuid.UUID, text string, at time.Time) *domain.ReviewNote {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &domain.ReviewNote{Author: actor, Note: text, CreatedAt: at}
}

// applyChange mirrors a persisted StatusChange onto the in-memory plan
func applyChange(plan *domain.DietPlan, c domain.StatusChange) {
	plan.Status = c.To
	plan.Version = c.Version + 1
	plan.UpdatedAt = c.At
	if c.Note != nil {
		plan.ReviewNotes = append(plan.ReviewNotes, *c.Note)
	}
	if c.ApprovedBy != nil {
		plan.ApprovedBy = c.ApprovedBy
		plan.ApprovedAt = c.ApprovedAt
	}
	if c.RejectedBy != nil {
		plan.RejectedBy = c.RejectedBy
		plan.RejectedAt = c.RejectedAt
	}
}
