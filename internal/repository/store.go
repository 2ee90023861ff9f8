package repository

import (
	"context"

	"github.com/Rrens/dietplan/internal/domain"
)

// Store bundles the Persistence Gateway of one storage backend
type Store struct {
	Profiles domain.ClientProfileRepository
	Plans    domain.DietPlanRepository
	Access   domain.PublishedAccessRepository
	Logs     domain.GenerationLogRepository

	ping  func(ctx context.Context) error
	close func()
}

// NewStore assembles a Store; ping and close belong to the backing connection
func NewStore(
	profiles domain.ClientProfileRepository,
	plans domain.DietPlanRepository,
	access domain.PublishedAccessRepository,
	logs domain.GenerationLogRepository,
	ping func(ctx context.Context) error,
	close func(),
) *Store {
	return &Store{
		Profiles: profiles,
		Plans:    plans,
		Access:   access,
		Logs:     logs,
		ping:     ping,
		close:    close,
	}
}

// Ping verifies connectivity of the backing database
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backing connection
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}
