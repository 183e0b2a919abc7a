package standingshttp

import (
	"net/http"
	"time"

	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CorrelationHeader carries the correlation id in and out of the API.
const CorrelationHeader = "X-Correlation-ID"

// RouterConfig holds the collaborators of the HTTP surface.
type RouterConfig struct {
	Handlers       *Handlers
	Auth           *Authenticator
	Limiter        *IPRateLimiter
	Metrics        http.Handler
	Health         func(r *http.Request) error
	RequestTimeout time.Duration
}

// correlationMiddleware propagates or assigns a correlation id.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.ContextWithCorrelationID(r.Context(), id)))
	})
}

// NewRouter builds the chi router for the standings API.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(correlationMiddleware)
	r.Use(middleware.Recoverer)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := cfg.Handlers
	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(RateLimitMiddleware(cfg.Limiter))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(cfg.Auth.OptionalJudge)

		r.Get("/contests", h.ListContests)
		r.Get("/problemsets", h.ListProblemsets)
		r.Get("/languages", h.ListLanguages)
		r.Get("/judge-replies", h.ListJudgeReplies)

		r.Route("/contests/{contestID}", func(r chi.Router) {
			r.Get("/ranklist", h.GetRankList)
			r.Get("/ranklist.xlsx", h.ExportRankList)
			r.Get("/ranklist/{userID}", h.GetRankListEntry)

			// Statistics ignore the freeze, so they share the judge view's guard.
			r.Group(func(r chi.Router) {
				r.Use(cfg.Auth.RequireJudge)
				r.Get("/statistics", h.GetContestStatistics)
				r.Get("/statistics.png", h.GetContestStatisticsChart)
				r.Get("/users/{userID}/statistics", h.GetUserStatistics)
				r.Post("/invalidate", h.Invalidate)
			})
		})

		r.Get("/problems/{problemID}/statistics", h.GetProblemStatistics)
		r.Get("/problemsets/{problemsetID}/ranklist", h.GetProblemsetRankList)
	})

	return r
}
