package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slotwise/bookingd/internal/http/handlers"
	httpmiddleware "github.com/slotwise/bookingd/internal/http/middleware"
	"github.com/slotwise/bookingd/internal/identity"
	"github.com/slotwise/bookingd/internal/realtime"
	"github.com/slotwise/bookingd/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *handlers.AppointmentsHandler
	SlotsHandler        *handlers.SlotsHandler
	ServicesHandler     *handlers.ServicesHandler
	ProvidersHandler    *handlers.ProvidersHandler
	RealtimeHandler     *realtime.Handler
	MetricsHandler      http.Handler
	AuthSecret          string
	CORSAllowedOrigins  []string
	RateLimitPerSecond  float64
	RateLimitBurst      int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints (discovery, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ProvidersHandler != nil {
			public.Post("/providers", cfg.ProvidersHandler.Create)
			public.Get("/providers/{id}", cfg.ProvidersHandler.Get)
		}
		if cfg.ServicesHandler != nil {
			public.Get("/providers/{id}/services", cfg.ServicesHandler.ListByProvider)
		}
		if cfg.SlotsHandler != nil {
			public.Get("/slots/{providerID}", cfg.SlotsHandler.ListByProvider)
		}
	})

	// Authenticated endpoints
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.Auth(cfg.AuthSecret))

		if cfg.AppointmentsHandler != nil {
			authed.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Delete("/{id}", cfg.AppointmentsHandler.Cancel)
				r.Post("/{id}/reschedule", cfg.AppointmentsHandler.Reschedule)
			})
		}
		if cfg.SlotsHandler != nil {
			authed.With(httpmiddleware.RequireRole(identity.RoleProvider)).Post("/slots", cfg.SlotsHandler.Create)
			authed.With(httpmiddleware.RequireRole(identity.RoleProvider)).Delete("/slots/{id}", cfg.SlotsHandler.Delete)
		}
		if cfg.ServicesHandler != nil {
			authed.With(httpmiddleware.RequireRole(identity.RoleProvider)).Post("/services", cfg.ServicesHandler.Create)
			authed.With(httpmiddleware.RequireRole(identity.RoleProvider)).Delete("/services/{id}", cfg.ServicesHandler.Delete)
		}
		if cfg.RealtimeHandler != nil {
			authed.Get("/ws", cfg.RealtimeHandler.HandleConnect)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
