package handler

import (
	"net/http"

	"github.com/Rrens/dietplan/internal/api/response"
	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// PlanHandler handles plan generation and plan documents
type PlanHandler struct {
	generationService *service.PlanGenerationService
	reviewService     *service.ReviewService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(generationService *service.PlanGenerationService, reviewService *service.ReviewService) *PlanHandler {
	return &PlanHandler{
		generationService: generationService,
		reviewService:     reviewService,
	}
}

// Generate runs a generation for a client and stores the result as a draft
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(r, "clientID")
	if !ok {
		response.BadRequest(w, "invalid client ID")
		return
	}

	var opts service.GenerateOptions
	if err := decodeOptionalBody(w, r, &opts); err != nil {
		badBody(w, err)
		return
	}

	draft, err := h.generationService.Generate(r.Context(), clientID, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Str("client_id", clientID.String()).
		Str("plan_id", draft.ID.String()).
		Msg("draft plan generated")

	response.Created(w, draft)
}

// ListByClient lists the plans of a client, newest first
func (h *PlanHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(r, "clientID")
	if !ok {
		response.BadRequest(w, "invalid client ID")
		return
	}

	plans, err := h.reviewService.ListByClient(r.Context(), clientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, plans)
}

// History lists the generation log of a client
func (h *PlanHandler) History(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(r, "clientID")
	if !ok {
		response.BadRequest(w, "invalid client ID")
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit, maxHistoryLimit)
	results, err := h.generationService.History(r.Context(), clientID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, results)
}

// Get returns a plan with its customization overlay
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(r, "planID")
	if !ok {
		response.BadRequest(w, "invalid plan ID")
		return
	}

	detail, err := h.reviewService.Get(r.Context(), planID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, detail)
}

// Customize saves the reviewer's overlay of a plan
func (h *PlanHandler) Customize(w http.ResponseWriter, r *http.Request) {
	actor, ok := reviewerID(w, r)
	if !ok {
		return
	}
	planID, ok := pathUUID(r, "planID")
	if !ok {
		response.BadRequest(w, "invalid plan ID")
		return
	}

	var input domain.CustomizationInput
	if err := decodeBody(w, r, &input); err != nil {
		badBody(w, err)
		return
	}

	custom, err := h.reviewService.Customize(r.Context(), planID, actor, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, custom)
}

// Delete removes a plan that was never published
func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(r, "planID")
	if !ok {
		response.BadRequest(w, "invalid plan ID")
		return
	}

	if err := h.reviewService.Delete(r.Context(), planID); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

// AccessHistory lists every access token issued for a plan
func (h *PlanHandler) AccessHistory(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(r, "planID")
	if !ok {
		response.BadRequest(w, "invalid plan ID")
		return
	}

	records, err := h.reviewService.AccessHistory(r.Context(), planID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, records)
}
