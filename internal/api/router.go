// Package api wires the HTTP surface: middleware chain, routes, and the
// services behind them.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/fsp-platform/server/internal/api/handlers"
	"github.com/fsp-platform/server/internal/api/middleware"
	"github.com/fsp-platform/server/internal/auth"
	"github.com/fsp-platform/server/internal/config"
	"github.com/fsp-platform/server/internal/domain/events"
	"github.com/fsp-platform/server/internal/domain/profiles"
	"github.com/fsp-platform/server/internal/domain/users"
	"github.com/fsp-platform/server/internal/metrics"
	"github.com/fsp-platform/server/internal/storage/postgres"
	"github.com/fsp-platform/server/internal/uploads"
	"github.com/fsp-platform/server/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter builds the full handler chain. The pool stays owned by the
// caller so shutdown ordering is explicit.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	assets, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Server.BaseURL)

	profilesService := profiles.NewService(repo.Profiles(), repo.Users(), logger)
	usersService := users.NewService(repo.Users(), profilesService, tokens, logger)
	eventsService := events.NewService(repo.Events(), repo.Users(), assets, logger)

	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, assets, cfg.Environment)
	profilesHandler := handlers.NewProfilesHandler(profilesService, cfg.Environment)

	bearer := middleware.BearerAuth(tokens, usersService, cfg.Environment)
	authTier := middleware.WithRateLimitTierHandler(middleware.TierAuth)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)

	// Tier tagging has to run before the limiter reads the tier from the
	// context, so the limiter sits inside each route chain.
	rateLimit := middleware.RateLimit(cfg.RateLimit)

	public := func(h http.HandlerFunc) http.Handler {
		return rateLimit(h)
	}
	login := func(h http.HandlerFunc) http.Handler {
		return loginTier(rateLimit(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return authTier(rateLimit(bearer(h)))
	}

	mux := http.NewServeMux()

	mux.Handle("/{$}", web.IndexHandler())
	mux.Handle("/robots.txt", web.RobotsHandler())

	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(pool))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/register", methodMux(map[string]http.Handler{
		http.MethodPost: login(authHandler.Register),
	}))
	mux.Handle("/api/token", methodMux(map[string]http.Handler{
		http.MethodPost: login(authHandler.Token),
	}))
	mux.Handle("/api/users/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(authHandler.Me),
	}))

	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: authed(eventsHandler.Create),
	}))
	mux.Handle("/api/events/stats", methodMux(map[string]http.Handler{
		http.MethodGet: public(eventsHandler.Stats),
	}))
	mux.Handle("/api/events/my", methodMux(map[string]http.Handler{
		http.MethodGet: authed(eventsHandler.My),
	}))
	mux.Handle("/api/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(eventsHandler.Get),
		http.MethodPut:    authed(eventsHandler.Update),
		http.MethodDelete: authed(eventsHandler.Delete),
	}))
	mux.Handle("/api/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost:   authed(eventsHandler.Register),
		http.MethodDelete: authed(eventsHandler.Unregister),
	}))
	mux.Handle("/api/events/{id}/participants", methodMux(map[string]http.Handler{
		http.MethodGet: authed(eventsHandler.Participants),
	}))

	mux.Handle("/api/profiles/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(profilesHandler.Me),
	}))
	mux.Handle("/api/profiles/athlete", methodMux(map[string]http.Handler{
		http.MethodPut: authed(profilesHandler.UpdateAthlete),
	}))
	mux.Handle("/api/profiles/sponsor", methodMux(map[string]http.Handler{
		http.MethodPut: authed(profilesHandler.UpdateSponsor),
	}))
	mux.Handle("/api/profiles/region", methodMux(map[string]http.Handler{
		http.MethodPost: authed(profilesHandler.CreateRegion),
		http.MethodPut:  authed(profilesHandler.UpdateRegion),
	}))
	mux.Handle("/api/profiles/{user_id}", methodMux(map[string]http.Handler{
		http.MethodGet: authed(profilesHandler.Get),
	}))

	mux.Handle("/api/ratings", methodMux(map[string]http.Handler{
		http.MethodGet: public(profilesHandler.Ratings),
	}))

	mux.Handle("/api/uploads/events/", http.StripPrefix("/api/uploads/events/",
		http.FileServer(http.Dir(assets.Dir()))))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.Recovery(cfg.Environment)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
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
