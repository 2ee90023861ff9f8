package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rrens/dietplan/internal/api"
	"github.com/Rrens/dietplan/internal/api/handler"
	"github.com/Rrens/dietplan/internal/api/middleware"
	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/intake"
	"github.com/Rrens/dietplan/internal/lifecycle"
	"github.com/Rrens/dietplan/internal/llm"
	"github.com/Rrens/dietplan/internal/notify"
	"github.com/Rrens/dietplan/internal/repository/sqlite"
	"github.com/Rrens/dietplan/internal/security"
	"github.com/Rrens/dietplan/internal/security/securitytest"
	"github.com/Rrens/dietplan/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const planJSON = `{
	"overview": {"duration": "30 days", "goals": ["energy"]},
	"weeks": [{
		"week_number": 1,
		"theme": "Adaptation",
		"days": [{
			"day_number": 1,
			"meals": [
				{"type": "breakfast", "name": "Oats", "calories": 400},
				{"type": "dinner", "name": "Salmon and rice", "calories": 700}
			]
		}]
	}],
	"recommendations": {"tips": ["drink water"]}
}`

// MockLLMProvider mocks the llm.Provider interface
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string              { return "mock-provider" }
func (m *MockLLMProvider) AvailableModels() []string { return []string{"mock-model"} }
func (m *MockLLMProvider) DefaultModel() string      { return "mock-model" }
func (m *MockLLMProvider) IsConfigured() bool        { return true }

func (m *MockLLMProvider) Complete(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

type testServer struct {
	handler  http.Handler
	provider *MockLLMProvider
	token    string
	reviewer uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	store := db.Store()
	t.Cleanup(store.Close)

	provider := new(MockLLMProvider)
	llmRouter := llm.NewRouter("mock-provider")
	llmRouter.RegisterProvider(provider)

	manager := lifecycle.NewManager(store.Plans, store.Access)
	generationService := service.NewPlanGenerationService(store.Profiles, store.Logs, manager, llmRouter, nil, service.GenerationSettings{
		Temperature:         0.7,
		Timeout:             5 * time.Second,
		MaxTokens:           16000,
		DiagnosticMaxTokens: 50,
		MaxRetries:          1,
	})
	reviewService := service.NewReviewService(manager, store.Plans, store.Profiles, notify.NewLogNotifier(), nil, "https://coach.example.com")

	jwtManager := security.NewJWTManager("router-test-secret")
	reviewer := uuid.New()
	token, err := securitytest.IssueToken("router-test-secret", reviewer, "reviewer@example.com", "nutritionist", time.Hour)
	require.NoError(t, err)

	h := api.Routes([]string{"*"}, api.Handlers{
		Intake:     handler.NewIntakeHandler(service.NewIntakeService(store.Profiles, intake.NewNormalizer())),
		Plan:       handler.NewPlanHandler(generationService, reviewService),
		Review:     handler.NewReviewHandler(reviewService),
		Public:     handler.NewPublicHandler(reviewService),
		Generation: generationService,
		Auth:       middleware.NewAuthMiddleware(jwtManager),
		Ready:      map[string]handler.Pinger{"database": store},
	})

	return &testServer{handler: h, provider: provider, token: token, reviewer: reviewer}
}

func (s *testServer) do(t *testing.T, method, path string, body any, authenticated bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	}
	return rec, env
}

func (s *testServer) submitIntake(t *testing.T) uuid.UUID {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/intake", map[string]any{
		"form_locale": "en",
		"answers": map[string]any{
			"name":           "Dana",
			"email":          "dana@example.com",
			"sex":            "male",
			"age":            30,
			"height":         175,
			"weight":         80,
			"goal":           "muscle gain",
			"activity_level": "moderate",
		},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var summary service.ClientSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	return summary.Profile.ID
}

func (s *testServer) generate(t *testing.T, clientID uuid.UUID) domain.DietPlan {
	t.Helper()
	s.provider.On("Complete", mock.Anything, mock.Anything, "mock-model").
		Return(&llm.Response{Content: planJSON, Model: "mock-model"}, nil).Once()

	rec, env := s.do(t, http.MethodPost, "/api/v1/clients/"+clientID.String()+"/plans/generate", nil, true)
	require.Equal(t, http.StatusCreated, rec.Code, "%v", env.Error)

	var plan domain.DietPlan
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	return plan
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/ready", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/intake", map[string]any{"answers": map[string]any{}}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/llm-providers", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_IntakeAndTargets(t *testing.T) {
	s := newTestServer(t)
	clientID := s.submitIntake(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/clients/"+clientID.String()+"/targets", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var targets domain.NutritionTargets
	require.NoError(t, json.Unmarshal(env.Data, &targets))
	assert.Equal(t, 1830, targets.BMR)
	assert.InDelta(t, targets.TotalCalories, targets.ProteinG*4+targets.CarbsG*4+targets.FatsG*9, 5)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/clients/"+uuid.NewString(), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/clients/not-a-uuid", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/intake", map[string]any{"form_locale": "en"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_ReviewAndPublishFlow(t *testing.T) {
	s := newTestServer(t)
	clientID := s.submitIntake(t)
	plan := s.generate(t, clientID)
	planPath := "/api/v1/plans/" + plan.ID.String()

	assert.Equal(t, domain.StatusDraft, plan.Status)
	require.Len(t, plan.Weeks, 1)
	assert.Equal(t, 1100, plan.Weeks[0].Days[0].TotalCalories)

	// a draft cannot be published
	rec, _ := s.do(t, http.MethodPost, planPath+"/publish", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env := s.do(t, http.MethodPost, planPath+"/submit", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodPost, planPath+"/request-changes", domain.ReviewInput{Note: "more fish"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.DietPlan
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, domain.StatusDraft, updated.Status)
	require.Len(t, updated.ReviewNotes, 1)
	assert.Equal(t, "more fish", updated.ReviewNotes[0].Note)

	rec, env = s.do(t, http.MethodPost, planPath+"/approve", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, domain.StatusApproved, updated.Status)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, s.reviewer, *updated.ApprovedBy)

	rec, env = s.do(t, http.MethodPost, planPath+"/publish", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var published service.PublishResult
	require.NoError(t, json.Unmarshal(env.Data, &published))
	assert.Equal(t, domain.StatusPublished, published.Plan.Status)
	assert.Equal(t, "https://coach.example.com/diet-view?token="+published.Access.AccessToken, published.URL)

	rec, env = s.do(t, http.MethodGet, "/api/v1/public/diet-view?token="+published.Access.AccessToken, nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var view domain.ClientView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, plan.ID, view.Plan.ID)
	assert.Empty(t, view.Plan.ReviewNotes)

	// published plans are kept
	rec, _ = s.do(t, http.MethodDelete, planPath, nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodPost, planPath+"/revoke", nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/public/diet-view?token="+published.Access.AccessToken, nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "expired or invalid", env.Error)

	rec, env = s.do(t, http.MethodGet, planPath+"/access", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []domain.PublishedAccess
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 1)
	assert.False(t, records[0].IsActive)
}

func TestRoutes_RejectedIsTerminal(t *testing.T) {
	s := newTestServer(t)
	plan := s.generate(t, s.submitIntake(t))
	planPath := "/api/v1/plans/" + plan.ID.String()

	rec, _ := s.do(t, http.MethodPost, planPath+"/reject", domain.ReviewInput{Note: "off target"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, action := range []string{"submit", "approve", "publish", "request-changes"} {
		rec, _ = s.do(t, http.MethodPost, planPath+"/"+action, nil, true)
		assert.Equal(t, http.StatusConflict, rec.Code, action)
	}
}

func TestRoutes_CustomizeAndDelete(t *testing.T) {
	s := newTestServer(t)
	clientID := s.submitIntake(t)
	plan := s.generate(t, clientID)
	planPath := "/api/v1/plans/" + plan.ID.String()

	rec, _ := s.do(t, http.MethodPut, planPath+"/customization", domain.CustomizationInput{
		Weeks: []domain.Week{{Days: []domain.Day{{DayNumber: 1, Meals: []domain.Meal{{Type: "brunch", Calories: 500}}}}}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := s.do(t, http.MethodPut, planPath+"/customization", domain.CustomizationInput{
		Recommendations: &domain.Recommendations{Tips: []string{"walk after dinner"}},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, "%v", env.Error)

	rec, env = s.do(t, http.MethodGet, planPath, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail service.PlanDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, []string{"walk after dinner"}, detail.Effective.Recommendations.Tips)
	assert.Equal(t, []string{"drink water"}, detail.Plan.Recommendations.Tips)

	rec, env = s.do(t, http.MethodGet, "/api/v1/clients/"+clientID.String()+"/plans", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var plans []domain.DietPlan
	require.NoError(t, json.Unmarshal(env.Data, &plans))
	assert.Len(t, plans, 1)

	rec, _ = s.do(t, http.MethodDelete, planPath, nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = s.do(t, http.MethodGet, planPath, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_GenerationFailures(t *testing.T) {
	s := newTestServer(t)
	clientID := s.submitIntake(t)
	generatePath := "/api/v1/clients/" + clientID.String() + "/plans/generate"

	t.Run("non-object output", func(t *testing.T) {
		s.provider.On("Complete", mock.Anything, mock.Anything, "mock-model").
			Return(&llm.Response{Content: `[1, 2, 3]`}, nil).Once()

		rec, _ := s.do(t, http.MethodPost, generatePath, nil, true)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown provider", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodPost, generatePath, service.GenerateOptions{Provider: "nope"}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history lists every attempt", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/api/v1/clients/"+clientID.String()+"/generations?limit=10", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)
		var results []domain.GenerationResult
		require.NoError(t, json.Unmarshal(env.Data, &results))
		assert.Len(t, results, 1)
	})
}

func TestRoutes_Providers(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/llm-providers", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Providers       []llm.ProviderInfo `json:"providers"`
		DefaultProvider string             `json:"default_provider"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "mock-provider", body.DefaultProvider)
}
