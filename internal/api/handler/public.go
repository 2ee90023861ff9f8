package handler

import (
	"net/http"

	"github.com/Rrens/dietplan/internal/api/response"
	"github.com/Rrens/dietplan/internal/service"
)

// PublicHandler serves the unauthenticated client view
type PublicHandler struct {
	reviewService *service.ReviewService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(reviewService *service.ReviewService) *PublicHandler {
	return &PublicHandler{reviewService: reviewService}
}

// DietView resolves an access token into the published plan.
// Unknown, inactive and expired tokens are indistinguishable.
func (h *PublicHandler) DietView(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.NotFound(w, "expired or invalid")
		return
	}

	view, err := h.reviewService.ResolveToken(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.OK(w, view)
}
