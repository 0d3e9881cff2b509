package rest

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/rest/middleware"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type RouterConfig struct {
	JWTSecret          string
	CORSAllowedOrigins []string
	// RateLimiter guards the public search; nil disables limiting.
	RateLimiter *middleware.RateLimiter
}

// NewRouter wires the public catalog routes and the owner routes behind JWT.
func NewRouter(h *ListingHandler, cfg RouterConfig, log *logger.Logger, m *metrics.MetricsManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID, chimw.RealIP, traceContext, middleware.Logger(log, m), chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", HandleHealthz)

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		r.Get("/api/listings", h.HandleSearch)
		r.Get("/api/listings/{id}", h.HandleGetListing)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret, log))

		r.Post("/api/listings", h.HandleCreateListing)
		r.Put("/api/listings/{id}", h.HandleUpdateListing)
		r.Delete("/api/listings/{id}", h.HandleDeleteListing)
		r.Get("/api/owner/listings", h.HandleOwnerListings)
	})

	return r
}

// traceContext continues a trace started by the caller, e.g. the gateway.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewServer wraps handler in an http.Server listening on port.
func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
