package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "dietplan.db"))
	require.NoError(t, err)
	store := db.Store()
	t.Cleanup(store.Close)
	return store
}

func seedProfile(t *testing.T, store *repository.Store) *domain.ClientProfile {
	t.Helper()
	p := &domain.ClientProfile{
		ID:            uuid.New(),
		Name:          "Ana",
		Email:         "ana@example.com",
		Age:           34,
		Sex:           domain.SexFemale,
		HeightCM:      165,
		WeightKG:      62,
		Goal:          domain.GoalWeightLoss,
		ActivityLevel: domain.ActivityModerate,
		Locale:        domain.LocalePT,
		Restrictions:  "vegetarian",
		Allergies:     domain.Unspecified,
		CreatedAt:     epoch,
	}
	require.NoError(t, store.Profiles.Create(context.Background(), p))
	return p
}

func seedPlan(t *testing.T, store *repository.Store, clientID uuid.UUID) *domain.DietPlan {
	t.Helper()
	plan := &domain.DietPlan{
		ID:       uuid.New(),
		ClientID: clientID,
		Status:   domain.StatusDraft,
		Version:  1,
		Targets:  domain.NutritionTargets{TotalCalories: 1800, ProteinG: 124},
		Overview: domain.PlanOverview{Duration: "30 days", TotalCalories: 1800, Goals: []string{"lose fat"}},
		Weeks: []domain.Week{{
			WeekNumber: 1,
			Theme:      "Adaptation",
			Days: []domain.Day{{
				DayNumber:     1,
				TotalCalories: 400,
				Meals: []domain.Meal{{
					Type:        domain.MealBreakfast,
					Name:        "Oats",
					Calories:    400,
					Ingredients: []domain.Ingredient{{Item: "oats", Quantity: "60 g", Calories: 230}},
					Tips:        []string{},
				}},
			}},
		}},
		Recommendations: domain.Recommendations{Supplements: []string{}, Tips: []string{"hydrate"}, Warnings: []string{}},
		CreatedAt:       epoch,
		UpdatedAt:       epoch,
	}
	require.NoError(t, store.Plans.Create(context.Background(), plan))
	return plan
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	p := seedProfile(t, store)

	got, err := store.Profiles.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = store.Profiles.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlans_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := seedProfile(t, store)
	plan := seedPlan(t, store, client.ID)

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Weeks, got.Weeks)
	assert.Equal(t, plan.Overview, got.Overview)
	assert.Equal(t, plan.Targets, got.Targets)
	assert.Equal(t, domain.StatusDraft, got.Status)
	assert.Empty(t, got.ReviewNotes)
	assert.Nil(t, got.ApprovedBy)
	assert.True(t, epoch.Equal(got.CreatedAt))

	second := seedPlan(t, store, client.ID)
	list, err := store.Plans.ListByClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []uuid.UUID{plan.ID, second.ID}, []uuid.UUID{list[0].ID, list[1].ID})
}

func TestPlans_ApplyStatusChange(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := seedProfile(t, store)
	plan := seedPlan(t, store, client.ID)
	reviewer := uuid.New()

	err := store.Plans.ApplyStatusChange(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusDraft, To: domain.StatusPendingReview, Version: 1, At: epoch,
	})
	require.NoError(t, err)

	note := &domain.ReviewNote{Author: reviewer, Note: "less sugar", CreatedAt: epoch}
	err = store.Plans.ApplyStatusChange(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusPendingReview, To: domain.StatusDraft, Version: 2, Note: note, At: epoch,
	})
	require.NoError(t, err)

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)
	assert.Equal(t, 3, got.Version)
	require.Len(t, got.ReviewNotes, 1)
	assert.Equal(t, "less sugar", got.ReviewNotes[0].Note)

	// stale version
	err = store.Plans.ApplyStatusChange(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusDraft, To: domain.StatusPendingReview, Version: 1, At: epoch,
	})
	assert.ErrorIs(t, err, domain.ErrStaleState)

	err = store.Plans.ApplyStatusChange(ctx, domain.StatusChange{
		PlanID: uuid.New(), From: domain.StatusDraft, To: domain.StatusPendingReview, Version: 1, At: epoch,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlans_PublishKeepsOneActiveAccess(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := seedProfile(t, store)
	plan := seedPlan(t, store, client.ID)
	reviewer := uuid.New()
	approvedAt := epoch

	require.NoError(t, store.Plans.ApplyStatusChange(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusDraft, To: domain.StatusApproved, Version: 1,
		ApprovedBy: &reviewer, ApprovedAt: &approvedAt, At: epoch,
	}))

	first := &domain.PublishedAccess{
		ID: uuid.New(), DietPlanID: plan.ID, AccessToken: "first",
		IssuedAt: epoch, ExpiresAt: epoch.Add(time.Hour), IsActive: true,
	}
	require.NoError(t, store.Plans.Publish(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusApproved, To: domain.StatusPublished, Version: 2, At: epoch,
	}, first))

	second := &domain.PublishedAccess{
		ID: uuid.New(), DietPlanID: plan.ID, AccessToken: "second",
		IssuedAt: epoch.Add(time.Minute), ExpiresAt: epoch.Add(2 * time.Hour), IsActive: true,
	}
	require.NoError(t, store.Plans.Publish(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusPublished, To: domain.StatusPublished, Version: 3, At: epoch.Add(time.Minute),
	}, second))

	active, err := store.Access.GetActiveByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", active.AccessToken)

	old, err := store.Access.GetByToken(ctx, "first")
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	require.NotNil(t, old.DeactivatedAt)

	history, err := store.Access.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].AccessToken)

	got, err := store.Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, reviewer, *got.ApprovedBy)

	n, err := store.Access.DeactivateByPlan(ctx, plan.ID, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = store.Access.GetActiveByPlan(ctx, plan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlans_PublishRollsBackOnStaleState(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := seedProfile(t, store)
	plan := seedPlan(t, store, client.ID)

	access := &domain.PublishedAccess{
		ID: uuid.New(), DietPlanID: plan.ID, AccessToken: "never",
		IssuedAt: epoch, ExpiresAt: epoch.Add(time.Hour), IsActive: true,
	}
	err := store.Plans.Publish(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusApproved, To: domain.StatusPublished, Version: 1, At: epoch,
	}, access)
	assert.ErrorIs(t, err, domain.ErrStaleState)

	_, err = store.Access.GetByToken(ctx, "never")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlans_Customization(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := seedProfile(t, store)
	plan := seedPlan(t, store, client.ID)
	editor := uuid.New()

	_, err := store.Plans.GetCustomization(ctx, plan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c := &domain.PlanCustomization{
		PlanID:    plan.ID,
		Overview:  &domain.PlanOverview{Duration: "4 weeks", TotalCalories: 1750},
		EditedBy:  editor,
		UpdatedAt: epoch,
	}
	require.NoError(t, store.Plans.SaveCustomization(ctx, c, plan.Version))

	c.Recommendations = &domain.Recommendations{Tips: []string{"walk daily"}}
	c.Overview = nil
	require.NoError(t, store.Plans.SaveCustomization(ctx, c, plan.Version))

	got, err := store.Plans.GetCustomization(ctx, plan.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Overview)
	assert.Nil(t, got.Weeks)
	require.NotNil(t, got.Recommendations)
	assert.Equal(t, []string{"walk daily"}, got.Recommendations.Tips)
	assert.Equal(t, editor, got.EditedBy)

	// a version that moved on, or a status past review, leaves the overlay untouched
	c.Recommendations = &domain.Recommendations{Tips: []string{"late edit"}}
	assert.ErrorIs(t, store.Plans.SaveCustomization(ctx, c, plan.Version+1), domain.ErrStaleState)

	require.NoError(t, store.Plans.ApplyStatusChange(ctx, domain.StatusChange{
		PlanID: plan.ID, From: domain.StatusDraft, To: domain.StatusApproved, Version: plan.Version, At: epoch,
	}))
	assert.ErrorIs(t, store.Plans.SaveCustomization(ctx, c, plan.Version+1), domain.ErrStaleState)

	got, err = store.Plans.GetCustomization(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"walk daily"}, got.Recommendations.Tips)
}

func TestPlans_Delete(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := seedProfile(t, store)

	draft := seedPlan(t, store, client.ID)
	require.NoError(t, store.Plans.SaveCustomization(ctx, &domain.PlanCustomization{
		PlanID: draft.ID, Weeks: []domain.Week{}, EditedBy: uuid.New(), UpdatedAt: epoch,
	}, draft.Version))
	require.NoError(t, store.Plans.Delete(ctx, draft.ID))
	_, err := store.Plans.GetByID(ctx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Plans.Delete(ctx, draft.ID), domain.ErrNotFound)

	published := seedPlan(t, store, client.ID)
	require.NoError(t, store.Plans.Publish(ctx, domain.StatusChange{
		PlanID: published.ID, From: domain.StatusDraft, To: domain.StatusPublished, Version: 1, At: epoch,
	}, &domain.PublishedAccess{
		ID: uuid.New(), DietPlanID: published.ID, AccessToken: "tok",
		IssuedAt: epoch, ExpiresAt: epoch.Add(time.Hour), IsActive: true,
	}))
	assert.ErrorIs(t, store.Plans.Delete(ctx, published.ID), domain.ErrPlanReferenced)
}

func TestGenerationLogs(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	client := seedProfile(t, store)
	msg := "provider returned 502"

	entries := []*domain.GenerationResult{
		{
			ID: uuid.New(), ClientID: client.ID, Provider: "openai", Model: "gpt-4o-mini",
			RawText: `{"weeks":[]}`, RawJSON: []byte(`{"weeks":[]}`),
			Usage: domain.Usage{PromptTokens: 1200, CompletionTokens: 800}, Cost: 0.00066,
			Success: true, CreatedAt: epoch,
		},
		{
			ID: uuid.New(), ClientID: client.ID, Provider: "openai", Model: "gpt-4o-mini",
			FailureKind: domain.FailureTransport, ErrorMessage: &msg, CreatedAt: epoch.Add(time.Minute),
		},
		{
			ID: uuid.New(), Provider: "ollama", Model: "llama3.1", Success: true, CreatedAt: epoch,
		},
	}
	for _, e := range entries {
		require.NoError(t, store.Logs.Append(ctx, e))
	}

	logs, err := store.Logs.ListByClient(ctx, client.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.False(t, logs[0].Success)
	assert.Equal(t, domain.FailureTransport, logs[0].FailureKind)
	require.NotNil(t, logs[0].ErrorMessage)
	assert.Equal(t, msg, *logs[0].ErrorMessage)
	assert.JSONEq(t, `{"weeks":[]}`, string(logs[1].RawJSON))
	assert.Equal(t, 2000, logs[1].Usage.Total())
	assert.InDelta(t, 0.00066, logs[1].Cost, 1e-9)

	logs, err = store.Logs.ListByClient(ctx, client.ID, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestStorePing(t *testing.T) {
	store := openStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
