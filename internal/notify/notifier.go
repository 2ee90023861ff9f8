package notify

import (
	"context"
	"net/url"
	"strings"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/rs/zerolog/log"
)

// ViewURL builds the client-facing link of a published plan
func ViewURL(publicBaseURL, token string) string {
	return strings.TrimRight(publicBaseURL, "/") + "/diet-view?token=" + url.QueryEscape(token)
}

// LogNotifier records delivery requests in the log; it is used when no mail
// collaborator is wired in.
type LogNotifier struct{}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) PlanPublished(ctx context.Context, p domain.PublishedNotification) error {
	log.Ctx(ctx).Info().
		Str("client_name", p.ClientName).
		Str("client_email", p.ClientEmail).
		Str("locale", string(p.Locale)).
		Str("url", p.URL).
		Msg("plan published notification")
	return nil
}
