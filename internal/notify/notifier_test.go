package notify

import (
	"context"
	"testing"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestViewURL(t *testing.T) {
	assert.Equal(t, "https://coach.example.com/diet-view?token=abc_-123",
		ViewURL("https://coach.example.com/", "abc_-123"))
	assert.Equal(t, "http://localhost:3000/diet-view?token=a%2Bb",
		ViewURL("http://localhost:3000", "a+b"))
}

func TestLogNotifier(t *testing.T) {
	err := NewLogNotifier().PlanPublished(context.Background(), domain.PublishedNotification{
		ClientName: "Ana", ClientEmail: "ana@example.com", Locale: domain.LocalePT,
		URL: "http://localhost:3000/diet-view?token=x",
	})
	assert.NoError(t, err)
}
