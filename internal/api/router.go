package api

import (
	"net/http"
	"time"

	"github.com/Rrens/dietplan/internal/api/handler"
	customMiddleware "github.com/Rrens/dietplan/internal/api/middleware"
	"github.com/Rrens/dietplan/internal/config"
	"github.com/Rrens/dietplan/internal/domain"
	"github.com/Rrens/dietplan/internal/intake"
	"github.com/Rrens/dietplan/internal/lifecycle"
	"github.com/Rrens/dietplan/internal/llm"
	"github.com/Rrens/dietplan/internal/llm/anthropic"
	"github.com/Rrens/dietplan/internal/llm/deepseek"
	"github.com/Rrens/dietplan/internal/llm/gemini"
	"github.com/Rrens/dietplan/internal/llm/ollama"
	"github.com/Rrens/dietplan/internal/llm/openai"
	"github.com/Rrens/dietplan/internal/notify"
	"github.com/Rrens/dietplan/internal/repository"
	"github.com/Rrens/dietplan/internal/repository/redis"
	"github.com/Rrens/dietplan/internal/security"
	"github.com/Rrens/dietplan/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router. redisClient may be nil.
func NewRouter(cfg *config.Config, store *repository.Store, redisClient *redis.Client) http.Handler {
	// Optional Redis backed components
	var generationLock domain.GenerationLock
	var viewCache domain.ViewCache
	if redisClient != nil {
		generationLock = redis.NewGenerationLock(redisClient, lockTTL(cfg))
		viewCache = redis.NewViewCache(redisClient)
	}

	llmRouter := NewLLMRouter(cfg.LLM)

	manager := lifecycle.NewManager(store.Plans, store.Access)

	// Initialize services
	intakeService := service.NewIntakeService(store.Profiles, intake.NewNormalizer())
	generationService := service.NewPlanGenerationService(
		store.Profiles,
		store.Logs,
		manager,
		llmRouter,
		generationLock,
		service.GenerationSettings{
			Temperature:         cfg.Generation.Temperature,
			Timeout:             cfg.Generation.Timeout,
			MaxTokens:           cfg.Generation.MaxTokens,
			DiagnosticMaxTokens: cfg.Generation.DiagnosticMaxTokens,
			MaxRetries:          cfg.Generation.MaxRetries,
			Pricing:             llm.DefaultPricing,
		},
	)
	reviewService := service.NewReviewService(
		manager,
		store.Plans,
		store.Profiles,
		notify.NewLogNotifier(),
		viewCache,
		cfg.Publish.PublicBaseURL,
	)

	handlers := Handlers{
		Intake:     handler.NewIntakeHandler(intakeService),
		Plan:       handler.NewPlanHandler(generationService, reviewService),
		Review:     handler.NewReviewHandler(reviewService),
		Public:     handler.NewPublicHandler(reviewService),
		Generation: generationService,
		Auth:       customMiddleware.NewAuthMiddleware(security.NewJWTManager(cfg.Auth.JWTSecret)),
		Ready:      map[string]handler.Pinger{"database": store},
	}
	if redisClient != nil {
		handlers.Ready["redis"] = redisClient
		handlers.RateLimit = customMiddleware.NewRateLimitMiddleware(redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		))
	}

	return Routes(cfg.Server.CORSOrigins, handlers)
}

// Handlers are the endpoint groups mounted by Routes. RateLimit may be nil.
type Handlers struct {
	Intake     *handler.IntakeHandler
	Plan       *handler.PlanHandler
	Review     *handler.ReviewHandler
	Public     *handler.PublicHandler
	Generation *service.PlanGenerationService
	Auth       *customMiddleware.AuthMiddleware
	RateLimit  *customMiddleware.RateLimitMiddleware
	Ready      map[string]handler.Pinger
}

// Routes mounts the API on a chi router
func Routes(corsOrigins []string, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(h.Ready))

		// Client view (public)
		r.Group(func(r chi.Router) {
			if h.RateLimit != nil {
				r.Use(h.RateLimit.Limit)
			}
			r.Get("/public/diet-view", h.Public.DietView)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Authenticate)
			if h.RateLimit != nil {
				r.Use(h.RateLimit.Limit)
			}

			// LLM providers
			r.Get("/llm-providers", handler.ListLLMProviders(h.Generation))
			r.Post("/llm/diagnose", handler.DiagnoseLLM(h.Generation))

			r.Post("/intake", h.Intake.Submit)

			r.Route("/clients/{clientID}", func(r chi.Router) {
				r.Get("/", h.Intake.GetClient)
				r.Get("/targets", h.Intake.GetTargets)
				r.Get("/plans", h.Plan.ListByClient)
				r.Post("/plans/generate", h.Plan.Generate)
				r.Get("/generations", h.Plan.History)
			})

			r.Route("/plans/{planID}", func(r chi.Router) {
				r.Get("/", h.Plan.Get)
				r.Delete("/", h.Plan.Delete)
				r.Put("/customization", h.Plan.Customize)
				r.Get("/access", h.Plan.AccessHistory)

				r.Post("/submit", h.Review.Submit)
				r.Post("/request-changes", h.Review.RequestChanges)
				r.Post("/approve", h.Review.Approve)
				r.Post("/reject", h.Review.Reject)
				r.Post("/publish", h.Review.Publish)
				r.Post("/revoke", h.Review.Revoke)
			})
		})
	})

	return r
}

// NewLLMRouter registers every provider that has credentials configured
func NewLLMRouter(cfg config.LLMConfig) *llm.Router {
	llmRouter := llm.NewRouter(cfg.DefaultProvider)

	log.Info().Str("default", cfg.DefaultProvider).Msg("initializing generation providers")

	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("registering Ollama provider")
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}
	if cfg.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, openai.WithBaseURL(cfg.OpenAI.BaseURL)))
	}
	if cfg.Anthropic.APIKey != "" {
		llmRouter.RegisterProvider(anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model))
	}
	if cfg.DeepSeek.APIKey != "" {
		llmRouter.RegisterProvider(deepseek.NewProvider(cfg.DeepSeek.APIKey, cfg.DeepSeek.Model))
	}
	if cfg.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	} else {
		log.Debug().Msg("Gemini API key is empty, skipping registration")
	}

	if len(llmRouter.ListProviders()) == 0 {
		log.Warn().Msg("no generation provider configured")
	}
	return llmRouter
}

// lockTTL outlives the longest run of generation attempts
func lockTTL(cfg *config.Config) time.Duration {
	attempts := time.Duration(cfg.Generation.MaxRetries + 1)
	return max(cfg.Redis.InFlightTTL, cfg.Generation.Timeout*attempts+time.Minute)
}
