package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/dietplan/internal/api/response"
	"github.com/Rrens/dietplan/internal/service"
	"github.com/rs/zerolog/log"
)

// Pinger is a dependency the readiness check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including database connectivity.
// Nil dependencies are skipped.
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
				response.ServiceUnavailable(w, name+" not ready")
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListLLMProviders returns the registered generation providers
func ListLLMProviders(generationService *service.PlanGenerationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers := generationService.Providers()

		defaultProvider := ""
		for _, p := range providers {
			if p.Default {
				defaultProvider = p.Name
			}
		}

		response.OK(w, map[string]any{
			"providers":        providers,
			"default_provider": defaultProvider,
		})
	}
}

// DiagnoseLLM sends a minimal request to a provider and returns the logged attempt
func DiagnoseLLM(generationService *service.PlanGenerationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts service.GenerateOptions
		if err := decodeOptionalBody(w, r, &opts); err != nil {
			badBody(w, err)
			return
		}

		result, err := generationService.Diagnose(r.Context(), opts)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.OK(w, result)
	}
}
