package handler

import (
	"net/http"

	"github.com/Rrens/dietplan/internal/api/response"
	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/service"
)

// IntakeHandler handles questionnaire submissions and client lookups
type IntakeHandler struct {
	intakeService *service.IntakeService
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService}
}

// Submit stores a questionnaire submission as a new client profile
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input domain.IntakeSubmission
	if err := decodeBody(w, r, &input); err != nil {
		badBody(w, err)
		return
	}

	summary, err := h.intakeService.Submit(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, summary)
}

// GetClient returns a client profile with its targets
func (h *IntakeHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(r, "clientID")
	if !ok {
		response.BadRequest(w, "invalid client ID")
		return
	}

	summary, err := h.intakeService.Get(r.Context(), clientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, summary)
}

// GetTargets returns only the computed nutrition targets of a client
func (h *IntakeHandler) GetTargets(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(r, "clientID")
	if !ok {
		response.BadRequest(w, "invalid client ID")
		return
	}

	summary, err := h.intakeService.Get(r.Context(), clientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, summary.Targets)
}
