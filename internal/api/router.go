package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gatherpoint/server/internal/api/handlers"
	"github.com/gatherpoint/server/internal/api/middleware"
	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/config"
	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/gatherpoint/server/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps carries the wired dependencies for the router. The caller owns the
// pool lifecycle; the router never opens or closes connections itself.
type Deps struct {
	Pool      *pgxpool.Pool
	Accounts  accounts.Repository
	Events    events.Repository
	Version   string
	GitCommit string
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Deps) http.Handler {
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	accountsService := accounts.NewService(deps.Accounts, logger)
	eventsService := events.NewService(deps.Events, logger)

	accountsHandler := handlers.NewAccountsHandler(accountsService, tokens, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, cfg.Environment)
	healthChecker := handlers.NewHealthChecker(deps.Pool, deps.Version, deps.GitCommit)

	identity := middleware.Identity(tokens)
	requireAdmin := middleware.RequireAdmin(tokens, cfg.Environment)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	adminTier := middleware.WithRateLimitTierHandler(middleware.TierAdmin)
	bodyLimit := middleware.PublicRequestSize()

	// One shared limiter store; tier tagging must run before it so the login
	// and admin tiers see their own buckets.
	rateLimit := middleware.RateLimit(cfg.RateLimit)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(deps.Pool))
	mux.Handle("/health", healthChecker.Health())
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/register", methodMux(map[string]http.Handler{
		http.MethodPost: rateLimit(bodyLimit(http.HandlerFunc(accountsHandler.Register))),
	}))
	mux.Handle("/api/v1/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(rateLimit(bodyLimit(http.HandlerFunc(accountsHandler.Login)))),
	}))

	listEvents := rateLimit(identity(http.HandlerFunc(eventsHandler.List)))
	createEvents := rateLimit(identity(bodyLimit(http.HandlerFunc(eventsHandler.Create))))
	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  listEvents,
		http.MethodPost: createEvents,
	}))

	mux.Handle("/api/v1/events/{id}/approve", methodMux(map[string]http.Handler{
		http.MethodPut: adminTier(rateLimit(requireAdmin(http.HandlerFunc(eventsHandler.Approve)))),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    rateLimit(identity(http.HandlerFunc(eventsHandler.Get))),
		http.MethodDelete: adminTier(rateLimit(requireAdmin(http.HandlerFunc(eventsHandler.Delete)))),
	}))

	var handler http.Handler = mux
	handler = middleware.SecurityHeaders()(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
