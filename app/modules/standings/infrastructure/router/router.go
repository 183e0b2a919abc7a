package standingsrouter

import (
	"context"
	"log/slog"
	"time"

	standingsevents "github.com/Black-And-White-Club/judge-standings/app/modules/standings/events"
	standingshandlers "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/handlers"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// StandingsRouter binds submission topics to the standings handlers.
type StandingsRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	publisher      message.Publisher
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewStandingsRouter creates a new instance of the router. A nil registry disables
// router metrics.
func NewStandingsRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
	prometheusRegistry prometheus.Registerer,
) *StandingsRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "standings", "")
		metricsBuilder = &builder
	}

	return &StandingsRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure sets up the middlewares and registers the handlers.
func (r *StandingsRouter) Configure(ctx context.Context, handlers standingshandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.logger.InfoContext(ctx, "Adding Prometheus router metrics middleware for Standings")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Multiplier:      2,
			Logger:          watermill.NewSlogLogger(r.logger),
		}.Middleware,
		middleware.Recoverer,
	)

	r.RegisterHandlers(ctx, handlers)
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

func registerHandler[T any](deps handlerDeps, topic string, handler func(context.Context, *T) ([]*message.Message, error)) {
	handlerName := "standings." + topic
	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		standingsevents.ContestInvalidatedV1,
		deps.publisher,
		wrapTyped(handlerName, deps.logger, deps.tracer, handler),
	)
}

// RegisterHandlers binds each submission topic to its handler.
func (r *StandingsRouter) RegisterHandlers(ctx context.Context, handlers standingshandlers.Handlers) {
	r.logger.InfoContext(ctx, "Registering Standings Event Handlers")

	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, standingsevents.SubmissionCreatedV1, handlers.HandleSubmissionCreated)
	registerHandler(deps, standingsevents.SubmissionJudgedV1, handlers.HandleSubmissionJudged)
	registerHandler(deps, standingsevents.SubmissionRejudgedV1, handlers.HandleSubmissionRejudged)
}

// Close stops the router and cleans up resources.
func (r *StandingsRouter) Close() error {
	return r.Router.Close()
}
