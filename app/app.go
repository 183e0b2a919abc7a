package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Black-And-White-Club/judge-standings/app/eventbus"
	"github.com/Black-And-White-Club/judge-standings/app/modules/standings"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/Black-And-White-Club/judge-standings/config"
	"github.com/Black-And-White-Club/judge-standings/db/bundb"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// durablePrefix names the JetStream consumers of this service.
const durablePrefix = "judge-standings"

// App holds the process-wide collaborators and the standings module.
type App struct {
	Config          *config.Config
	Observability   observability.Observability
	DB              *bundb.DBService
	EventBus        eventbus.EventBus
	Router          *message.Router
	StandingsModule *standings.Module
}

// Initialize loads configuration and builds every dependency.
func Initialize(ctx context.Context, configFile string) (*App, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	obs, err := observability.Init(ctx, os.Stdout, observability.Config{
		ServiceName:  cfg.Observability.ServiceName,
		Environment:  cfg.Observability.Environment,
		LogLevel:     cfg.Observability.LogLevel,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		OTLPInsecure: cfg.Observability.OTLPInsecure,
	})
	if err != nil {
		return nil, err
	}
	logger := obs.Provider.Logger

	app := &App{Config: cfg, Observability: obs}

	app.DB, err = bundb.NewBunDBService(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}

	if cfg.NATS.URL != "" {
		if err := app.initMessaging(ctx, logger); err != nil {
			app.Close()
			return nil, err
		}
	} else {
		logger.WarnContext(ctx, "NATS URL not set; submission events are not consumed")
	}

	app.StandingsModule, err = standings.NewStandingsModule(ctx, cfg, obs, standings.Repositories{
		Feed:      app.DB.Feed,
		Catalog:   app.DB.Catalog,
		Directory: app.DB.Directory,
		Ping:      app.DB.Ping,
	}, app.EventBus, app.Router)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize standings module: %w", err)
	}

	return app, nil
}

func (app *App) initMessaging(ctx context.Context, logger *slog.Logger) error {
	bus, err := eventbus.NewEventBus(ctx, app.Config.NATS.URL, durablePrefix, logger)
	if err != nil {
		return err
	}
	app.EventBus = bus

	if err := eventbus.InitializeStreams(ctx, bus, logger); err != nil {
		return err
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create Watermill router: %w", err)
	}
	app.Router = router
	return nil
}

// Run blocks until ctx is canceled or a component fails.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Provider.Logger
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	if app.Router != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.Router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("watermill router: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		if err := app.StandingsModule.Run(ctx, &wg); err != nil {
			errs <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "Shutdown requested")
	case runErr = <-errs:
		logger.ErrorContext(ctx, "Component failed", observability.Error(runErr))
	}
	cancel()
	wg.Wait()
	return runErr
}

// Close releases every resource in reverse construction order.
func (app *App) Close() error {
	var errs []error
	if app.StandingsModule != nil {
		errs = append(errs, app.StandingsModule.Close())
	}
	if app.Router != nil {
		errs = append(errs, app.Router.Close())
	}
	if app.EventBus != nil {
		errs = append(errs, app.EventBus.Close())
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs = append(errs, app.Observability.Shutdown(ctx))
	return errors.Join(errs...)
}
