package api

import (
	"log/slog"
	"net/http"

	"github.com/eventosumss/api/internal/auth"
	"github.com/eventosumss/api/internal/middleware"
)

// RouterConfig collects the handlers and policies the route table
// composes.
type RouterConfig struct {
	Events    *EventHandlers
	Favorites *FavoriteHandlers
	Auth      *AuthHandlers
	Topics    *TopicHandlers
	Uploads   *UploadHandlers // nil when object storage is not configured
	Health    *HealthHandlers

	Tokens *auth.TokenService

	// RateLimitStore and the two limits guard the whole API; the auth
	// limit applies to login and register only.
	RateLimitStore middleware.RateLimitStore
	GlobalLimit    middleware.RateLimitConfig
	AuthLimit      middleware.RateLimitConfig

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler

	Logger *slog.Logger
}

// NewRouter builds the ServeMux with per-route auth and rate limit
// policies applied. Outer middleware (request id, tracing, metrics,
// logging, CORS) wraps the returned handler in main.
func NewRouter(cfg RouterConfig) http.Handler {
	requireAuth := RequireAuth(cfg.Tokens)

	authLimited := func(h http.Handler) http.Handler { return h }
	if cfg.RateLimitStore != nil {
		authLimited = middleware.RateLimiter(cfg.RateLimitStore, cfg.AuthLimit, middleware.IPKeyFunc())
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /eventos", cfg.Events.List)
	mux.Handle("POST /eventos", requireAuth(http.HandlerFunc(cfg.Events.Create)))
	mux.HandleFunc("GET /eventos/filtrar", cfg.Events.Filter)
	mux.HandleFunc("POST /eventos/cercanos", cfg.Events.Nearby)
	mux.Handle("GET /eventos/recomendados", requireAuth(http.HandlerFunc(cfg.Events.Recommended)))

	mux.Handle("GET /favoritos", requireAuth(http.HandlerFunc(cfg.Favorites.List)))
	mux.Handle("POST /favoritos", requireAuth(http.HandlerFunc(cfg.Favorites.Toggle)))
	mux.Handle("DELETE /favoritos", requireAuth(http.HandlerFunc(cfg.Favorites.Remove)))

	mux.Handle("POST /login", authLimited(http.HandlerFunc(cfg.Auth.Login)))
	mux.Handle("POST /auth/register", authLimited(http.HandlerFunc(cfg.Auth.Register)))

	mux.HandleFunc("GET /temas", cfg.Topics.List)
	mux.HandleFunc("GET /ubicaciones", cfg.Events.Locations)

	if cfg.Uploads != nil {
		mux.Handle("POST /uploads/sign", requireAuth(http.HandlerFunc(cfg.Uploads.Sign)))
	}

	mux.HandleFunc("GET /health", cfg.Health.Health)
	mux.HandleFunc("GET /ready", cfg.Health.Ready)

	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "recurso no encontrado")
			return
		}
		writeJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": "eventos-umss-api",
			"version": "0.1.0",
		})
	})

	var handler http.Handler = mux
	if cfg.RateLimitStore != nil {
		// Authentication happens inside the mux, so the global limiter
		// keys by client IP.
		handler = middleware.RateLimiter(cfg.RateLimitStore, cfg.GlobalLimit, middleware.IPKeyFunc())(handler)
	}
	return handler
}
