package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/dietplan/internal/api/response"
	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/service"
	"github.com/google/uuid"
)

// ReviewHandler handles the reviewer actions of the plan lifecycle
type ReviewHandler struct {
	reviewService *service.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

type transitionFunc func(ctx context.Context, planID, actor uuid.UUID, note string) (*domain.DietPlan, error)

// Submit moves a draft into review
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, false, func(ctx context.Context, planID, actor uuid.UUID, _ string) (*domain.DietPlan, error) {
		return h.reviewService.Submit(ctx, planID, actor)
	})
}

// RequestChanges sends a plan back to draft
func (h *ReviewHandler) RequestChanges(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, true, h.reviewService.RequestChanges)
}

// Approve approves a plan
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, false, func(ctx context.Context, planID, actor uuid.UUID, _ string) (*domain.DietPlan, error) {
		return h.reviewService.Approve(ctx, planID, actor)
	})
}

// Reject retires a plan
func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, true, h.reviewService.Reject)
}

// Publish issues a client access token and notifies the client
func (h *ReviewHandler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := reviewerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathUUID(r, "planID")
	if !ok {
		response.BadRequest(w, "invalid plan ID")
		return
	}

	result, err := h.reviewService.Publish(r.Context(), planID, actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, result)
}

// Revoke deactivates the active access token of a plan
func (h *ReviewHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := reviewerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathUUID(r, "planID")
	if !ok {
		response.BadRequest(w, "invalid plan ID")
		return
	}

	if err := h.reviewService.Revoke(r.Context(), planID, actor); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

func (h *ReviewHandler) transition(w http.ResponseWriter, r *http.Request, withNote bool, fn transitionFunc) {
	actor, ok := reviewerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathUUID(r, "planID")
	if !ok {
		response.BadRequest(w, "invalid plan ID")
		return
	}

	var input domain.ReviewInput
	if withNote {
		if err := decodeOptionalBody(w, r, &input); err != nil {
			badBody(w, err)
			return
		}
	}

	plan, err := fn(r.Context(), planID, actor, input.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, plan)
}
