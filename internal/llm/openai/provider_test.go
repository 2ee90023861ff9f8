package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rrens/dietplan/internal/llm"
	"github.com/Rrens/dietplan/internal/llm/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{"message": {"content": "{\"overview\": {}}"}}],
			"usage": {"prompt_tokens": 1200, "completion_tokens": 9000, "total_tokens": 10200}
		}`))
	}))
	defer srv.Close()

	p := openai.NewProvider("test-key", "", openai.WithBaseURL(srv.URL))
	resp, err := p.Complete(context.Background(), llm.Request{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Temperature:  0.7,
		MaxTokens:    16000,
		JSON:         true,
	}, "")

	require.NoError(t, err)
	assert.Equal(t, `{"overview": {}}`, resp.Content)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, 1200, resp.Usage.PromptTokens)
	assert.Equal(t, 9000, resp.Usage.CompletionTokens)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Equal(t, 0.7, got["temperature"])
	assert.Equal(t, float64(16000), got["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestProvider_Complete_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer srv.Close()

	p := openai.NewProvider("test-key", "gpt-4o", openai.WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), llm.Request{UserPrompt: "hi"}, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestProvider_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	p := openai.NewProvider("test-key", "", openai.WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), llm.Request{UserPrompt: "hi"}, "")

	assert.Error(t, err)
}

func TestProvider_IsConfigured(t *testing.T) {
	assert.False(t, openai.NewProvider("", "").IsConfigured())
	assert.True(t, openai.NewProvider("k", "").IsConfigured())
	assert.Equal(t, "gpt-4o-mini", openai.NewProvider("k", "").DefaultModel())
}
