package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PublishedAccess is a time-limited token granting an unauthenticated client
// read access to one published plan
type PublishedAccess struct {
	ID            uuid.UUID  `json:"id"`
	DietPlanID    uuid.UUID  `json:"diet_plan_id"`
	AccessToken   string     `json:"access_token"`
	IssuedAt      time.Time  `json:"issued_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	IsActive      bool       `json:"is_active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// ValidAt reports whether the access is active and unexpired at t
func (a *PublishedAccess) ValidAt(t time.Time) bool {
	return a != nil && a.IsActive && t.Before(a.ExpiresAt)
}

// PublishedAccessRepository defines the interface for published access storage.
// Issuing is done through DietPlanRepository.Publish.
type PublishedAccessRepository interface {
	GetByToken(ctx context.Context, token string) (*PublishedAccess, error)
	GetActiveByPlan(ctx context.Context, planID uuid.UUID) (*PublishedAccess, error)
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]PublishedAccess, error)
	DeactivateByPlan(ctx context.Context, planID uuid.UUID, at time.Time) (int64, error)
}

// PublishedNotification is handed to the notification collaborator after publishing
type PublishedNotification struct {
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	AccessToken string `json:"access_token"`
	Locale      Locale `json:"locale"`
	URL         string `json:"url"`
}

// PlanNotifier delivers the client-facing link of a published plan
type PlanNotifier interface {
	PlanPublished(ctx context.Context, n PublishedNotification) error
}

// ClientView is what an access token resolves to
type ClientView struct {
	Plan      DietPlan  `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ViewCache holds resolved client views keyed by access token
type ViewCache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, token string) (*ClientView, error)
	Set(ctx context.Context, token string, view *ClientView, ttl time.Duration) error
	Invalidate(ctx context.Context, token string) error
}
