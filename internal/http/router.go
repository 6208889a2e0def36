package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/config"
	httpmiddleware "github.com/gestaozabele/zeladoria/internal/http/middleware"
	"github.com/gestaozabele/zeladoria/internal/obs"
	"github.com/gestaozabele/zeladoria/internal/service"
)

// HealthCheck testa uma dependência externa.
type HealthCheck func(ctx context.Context) error

// Deps reúne o que o roteador precisa para montar as rotas.
type Deps struct {
	Config   *config.Config
	Service  *service.OccurrenceService
	Tokens   httpmiddleware.TokenParser
	Metrics  *obs.Metrics
	Logger   zerolog.Logger
	Checks   map[string]HealthCheck
	Location *time.Location
}

// Handler concentra os handlers HTTP da API.
type Handler struct {
	service  *service.OccurrenceService
	checks   map[string]HealthCheck
	logger   zerolog.Logger
	location *time.Location
}

// NewHandler cria os handlers sobre o serviço de ocorrências.
func NewHandler(svc *service.OccurrenceService, logger zerolog.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: svc, logger: logger, location: loc}
}

// NewRouter devolve roteador configurado.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps.Service, deps.Logger, deps.Location)
	h.checks = deps.Checks

	publicLimiter := httpmiddleware.NewLimiter(deps.Config.RateLimitPublic.RequestsPerSecond, deps.Config.RateLimitPublic.Burst)
	apiLimiter := httpmiddleware.NewLimiter(deps.Config.RateLimitAPI.RequestsPerSecond, deps.Config.RateLimitAPI.Burst)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging(deps.Logger))
	r.Use(httpmiddleware.Recover(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}
	r.Use(httpmiddleware.CORS(httpmiddleware.CORSPolicy{
		Origins: deps.Config.AllowOrigins,
		Methods: []string{http.MethodGet, http.MethodPost},
		Headers: []string{"Authorization", "Content-Type", "X-Request-Id"},
		Expose:  []string{"Content-Disposition", "X-Total-Count", "Retry-After"},
		MaxAge:  10 * time.Minute,
	}))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.Throttle(publicLimiter, httpmiddleware.ByIP))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		if deps.Metrics != nil {
			public.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
		}
	})

	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.Auth(deps.Tokens))
		api.Use(httpmiddleware.Throttle(apiLimiter, httpmiddleware.ByViewer))
		h.RegisterRoutes(api)
	})

	return r
}

// RegisterRoutes adiciona as rotas autenticadas; o usuário deve estar no contexto.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/occurrences", func(r chi.Router) {
		r.Get("/", h.ListOccurrences)
		r.Post("/", h.CreateOccurrence)
		r.With(httpmiddleware.RequireAction(access.ActionExportCSV)).Get("/export.csv", h.ExportOccurrences)
		r.Get("/{id}", h.GetOccurrence)
		r.Post("/{id}/transitions/{transition}", h.TransitionOccurrence)
	})
	r.Get("/teams/snapshot", h.TeamSnapshots)
	r.Get("/dashboard/stats", h.DashboardStats)
	r.Get("/me/actions", h.MyActions)
}

// Health responde status básico.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida as dependências configuradas.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		WriteError(w, http.StatusServiceUnavailable, CodeInternal, "dependências indisponíveis", failed)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
