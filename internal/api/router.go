package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/calculations-api/internal/api/handlers"
	"github.com/isdelr/calculations-api/internal/auth"
	"github.com/isdelr/calculations-api/internal/services"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Users          services.UserServiceProvider
	Calculations   services.CalculationServiceProvider
	Tokens         *auth.TokenService
	Resolver       *auth.IdentityResolver
	DB             handlers.Pinger
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router, wrapped for tracing.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Tokens)
	calcHandler := handlers.NewCalculationHandler(deps.Calculations)
	requireUser := deps.Resolver.Middleware(handlers.WriteError)

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.With(requireUser).Get("/me", userHandler.GetMe)
	})

	r.Route("/calculations", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", calcHandler.List)
		r.Post("/", calcHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", calcHandler.Get)
			r.Put("/", calcHandler.Update)
			r.Delete("/", calcHandler.Delete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, handlers.ErrRouteNotFound)
	})

	return otelhttp.NewHandler(r, "http.server")
}
