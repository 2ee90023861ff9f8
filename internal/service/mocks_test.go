package service

import (
	"context"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLLMProvider mocks the llm.Provider interface
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	return "mock-provider"
}

func (m *MockLLMProvider) AvailableModels() []string {
	return []string{"mock-model"}
}

func (m *MockLLMProvider) DefaultModel() string {
	return "mock-model"
}

func (m *MockLLMProvider) IsConfigured() bool {
	return true
}

func (m *MockLLMProvider) Complete(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	args := m.Called(ctx, req, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockGenerationLock mocks the domain.GenerationLock interface
type MockGenerationLock struct {
	mock.Mock
}

func (m *MockGenerationLock) Acquire(ctx context.Context, clientID uuid.UUID) (string, error) {
	args := m.Called(ctx, clientID)
	return args.String(0), args.Error(1)
}

func (m *MockGenerationLock) Release(ctx context.Context, clientID uuid.UUID, owner string) error {
	args := m.Called(ctx, clientID, owner)
	return args.Error(0)
}

// MockNotifier mocks the domain.PlanNotifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PlanPublished(ctx context.Context, n domain.PublishedNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockViewCache mocks the domain.ViewCache interface
type MockViewCache struct {
	mock.Mock
}

func (m *MockViewCache) Get(ctx context.Context, token string) (*domain.ClientView, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientView), args.Error(1)
}

func (m *MockViewCache) Set(ctx context.Context, token string, view *domain.ClientView, ttl time.Duration) error {
	args := m.Called(ctx, token, view, ttl)
	return args.Error(0)
}

func (m *MockViewCache) Invalidate(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// memoryViewCache is a map-backed domain.ViewCache. beforeSet, when set, runs
// once ahead of the next write.
type memoryViewCache struct {
	views     map[string]*domain.ClientView
	beforeSet func()
}

func newMemoryViewCache() *memoryViewCache {
	return &memoryViewCache{views: make(map[string]*domain.ClientView)}
}

func (c *memoryViewCache) Get(ctx context.Context, token string) (*domain.ClientView, error) {
	return c.views[token], nil
}

func (c *memoryViewCache) Set(ctx context.Context, token string, view *domain.ClientView, ttl time.Duration) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.views[token] = view
	return nil
}

func (c *memoryViewCache) Invalidate(ctx context.Context, token string) error {
	delete(c.views, token)
	return nil
}
