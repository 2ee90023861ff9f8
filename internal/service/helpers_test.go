package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/lifecycle"
	"github.com/Rrens/dietplan/internal/repository"
	"github.com/Rrens/dietplan/internal/repository/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *repository.Store
	manager *lifecycle.Manager
	client  *domain.ClientProfile
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	store := db.Store()
	t.Cleanup(store.Close)

	tokens := 0
	manager := lifecycle.NewManager(store.Plans, store.Access,
		lifecycle.WithClock(func() time.Time { return testNow }),
		lifecycle.WithTokenGenerator(func() (string, error) {
			tokens++
			return fmt.Sprintf("token-%d", tokens), nil
		}),
	)

	client := &domain.ClientProfile{
		ID:            uuid.New(),
		Name:          "Carla",
		Email:         "carla@example.com",
		Age:           28,
		Sex:           domain.SexFemale,
		HeightCM:      160,
		WeightKG:      58,
		Goal:          domain.GoalGeneralHealth,
		ActivityLevel: domain.ActivityLight,
		Locale:        domain.LocalePT,
		CreatedAt:     testNow,
	}
	require.NoError(t, store.Profiles.Create(ctx, client))

	return &testEnv{store: store, manager: manager, client: client}
}

const planJSON = `{
	"overview": {"duration": "30 dias", "goals": ["energia"]},
	"weeks": [{
		"week_number": 1,
		"theme": "Adaptação",
		"days": [{
			"day_number": 1,
			"meals": [
				{"type": "cafe_da_manha", "name": "Aveia", "calories": 350},
				{"type": "almoco", "name": "Arroz e frango", "calories": 600}
			]
		}]
	}],
	"recommendations": {"tips": ["beba água"]}
}`
