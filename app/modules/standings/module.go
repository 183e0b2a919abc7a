package standings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/judge-standings/app/eventbus"
	standingsservice "github.com/Black-And-White-Club/judge-standings/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	standingshandlers "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/handlers"
	standingshttp "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/httpapi"
	standingslistener "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/listener"
	standingsqueue "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/queue"
	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
	standingsrouter "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/router"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/Black-And-White-Club/judge-standings/config"
	"github.com/ThreeDotsLabs/watermill/message"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Repositories are the read-side stores the module scores from.
type Repositories struct {
	Feed      standingsdb.SubmissionFeed
	Catalog   standingsdb.Catalog
	Directory standingsdb.Directory
	// Ping backs the health endpoint. Nil reports healthy.
	Ping func(ctx context.Context) error
}

// Module represents the standings module.
type Module struct {
	EventBus         eventbus.EventBus
	StandingsService standingsservice.Service
	StandingsRouter  *standingsrouter.StandingsRouter
	Queue            standingsqueue.QueueService
	HTTPHandler      http.Handler

	config        *config.Config
	listener      *standingslistener.Listener
	server        *http.Server
	observability observability.Observability
	cancelFunc    context.CancelFunc
}

// PolicyFromConfig turns the configured scoring rules into a domain policy.
func PolicyFromConfig(cfg config.StandingsConfig) (standingsdomain.Policy, error) {
	policy := standingsdomain.Policy{
		PenaltyPerWrong: cfg.PenaltyPerWrong,
		FreezeWindow:    cfg.FreezeWindow,
		NonPenalized:    mapset.NewSet[standingsdomain.Verdict](),
	}
	for _, code := range cfg.NonPenalizedVerdicts {
		v, err := standingsdomain.ParseVerdict(code)
		if err != nil {
			return standingsdomain.Policy{}, fmt.Errorf("non_penalized_verdicts: %w", err)
		}
		policy.NonPenalized.Add(v)
	}
	return policy, policy.Validate()
}

// NewStandingsModule creates a new instance of the Standings module. eventBus and
// router may be nil, in which case invalidation relies on Postgres notifications
// and the HTTP endpoint only.
func NewStandingsModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	repos Repositories,
	eventBus eventbus.EventBus,
	router *message.Router,
) (*Module, error) {
	logger := obs.Provider.Logger
	metrics := obs.Registry.StandingsMetrics
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "standings.NewStandingsModule called")

	policy, err := PolicyFromConfig(cfg.Standings)
	if err != nil {
		return nil, fmt.Errorf("invalid standings policy: %w", err)
	}

	service, err := standingsservice.NewStandingsService(
		repos.Feed,
		repos.Catalog,
		repos.Directory,
		standingsservice.Options{
			Policy:         policy,
			CacheStaleness: cfg.Standings.CacheStaleness,
			PageSize:       cfg.Standings.FeedPageSize,
		},
		logger,
		metrics,
		tracer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create standings service: %w", err)
	}

	module := &Module{
		EventBus:         eventBus,
		StandingsService: service,
		config:           cfg,
		observability:    obs,
	}

	var warmer standingshandlers.WarmScheduler
	if cfg.Standings.WarmOnInvalidate {
		queue, err := standingsqueue.NewService(ctx, cfg.Postgres.DSN, service, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create standings queue: %w", err)
		}
		module.Queue = queue
		warmer = queue
	}

	if eventBus != nil && router != nil {
		standingsRouter := standingsrouter.NewStandingsRouter(logger, router, eventBus, eventBus, tracer, obs.Provider.Prometheus)
		handlers := standingshandlers.NewStandingsHandlers(service, warmer, logger)
		if err := standingsRouter.Configure(ctx, handlers); err != nil {
			return nil, fmt.Errorf("failed to configure standings router: %w", err)
		}
		module.StandingsRouter = standingsRouter
	}

	module.listener = standingslistener.NewListener(cfg.Postgres.DSN, service, logger)

	routerCfg := standingshttp.RouterConfig{
		Handlers:       standingshttp.NewHandlers(service, logger),
		Auth:           standingshttp.NewAuthenticator(cfg.JWT.Secret),
		RequestTimeout: 30 * time.Second,
		Health: func(r *http.Request) error {
			if repos.Ping == nil {
				return nil
			}
			return repos.Ping(r.Context())
		},
	}
	if cfg.HTTP.RateLimit > 0 {
		routerCfg.Limiter = standingshttp.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateLimitBurst)
	}
	if obs.Provider.Prometheus != nil {
		routerCfg.Metrics = observability.MetricsHandler(obs.Provider.Prometheus)
	}
	module.HTTPHandler = standingshttp.NewRouter(routerCfg)
	module.server = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           module.HTTPHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return module, nil
}

// Run starts the queue, the notification listener and the HTTP API, and blocks
// until ctx is canceled or one of them fails.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) error {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting standings module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.listener.Run(gctx)
	})
	g.Go(func() error {
		logger.InfoContext(gctx, "Standings HTTP API listening", slog.String("address", m.server.Addr))
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("standings http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	logger.InfoContext(ctx, "Standings module goroutine stopped")
	return err
}

// Close stops the standings module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping standings module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var errs []error
	if m.Queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.Queue.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.StandingsRouter != nil {
		if err := m.StandingsRouter.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	logger.Info("Standings module stopped")
	return errors.Join(errs...)
}
