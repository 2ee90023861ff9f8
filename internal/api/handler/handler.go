package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Rrens/dietplan/internal/api/middleware"
	"github.com/Rrens/dietplan/internal/api/response"
	"github.com/Rrens/dietplan/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// errEmptyBody is returned by decodeBody when the request carries no payload
var errEmptyBody = errors.New("empty request body")

// decodeBody decodes and validates a JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return validate.Struct(dst)
}

// decodeOptionalBody is decodeBody for endpoints whose payload may be omitted
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeBody(w, r, dst); err != nil && !errors.Is(err, errEmptyBody) {
		return err
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def, limit int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, limit)
}

func reviewerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
	}
	return userID, ok
}

func badBody(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		response.BadRequest(w, err.Error())
		return
	}
	response.BadRequest(w, "invalid request body")
}

// writeError maps domain errors onto HTTP statuses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var genErr *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrTokenInvalid):
		response.NotFound(w, "expired or invalid")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStaleState),
		errors.Is(err, domain.ErrGenerationInFlight),
		errors.Is(err, domain.ErrPlanReferenced),
		errors.Is(err, domain.ErrNotEditable):
		response.Conflict(w, err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrInvalidCustomization):
		response.BadRequest(w, err.Error())
	case errors.As(err, &genErr):
		response.Error(w, http.StatusBadGateway, map[string]any{
			"message":   genErr.Message,
			"kind":      genErr.Kind,
			"retryable": genErr.Retryable(),
			"log_id":    genErr.LogID,
		})
	case errors.Is(err, domain.ErrInvalidGenerationOutput):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.Error(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		log.Ctx(r.Context()).Info().Msg("request cancelled by caller")
	default:
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		response.InternalError(w, "internal server error")
	}
}
