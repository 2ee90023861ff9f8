package llm

import (
	"context"

	"github.com/Rrens/dietplan/internal/domain"
)

// Request contains one completion call's parameters
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	// JSON asks the provider to constrain its answer to a JSON object
	JSON bool
}

// Response contains LLM completion result
type Response struct {
	Content   string
	Model     string
	Usage     domain.Usage
	LatencyMs int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete sends one completion request and returns the raw text answer
	Complete(ctx context.Context, req Request, model string) (*Response, error)
}

// ProviderFactory creates a provider instance from per-request settings
type ProviderFactory func(config map[string]any) (Provider, error)
