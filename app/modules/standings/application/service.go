package standingsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/judge-standings/app/observability"
	standingsmetrics "github.com/Black-And-White-Club/judge-standings/app/observability/metrics/standings"
	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "StandingsService"

// DefaultPageSize is the number of submissions requested per feed page.
const DefaultPageSize = 500

// Options tune scoring and caching.
type Options struct {
	Policy         standingsdomain.Policy
	CacheStaleness time.Duration
	PageSize       int
	Now            func() time.Time
}

// StandingsService implements the Service interface.
type StandingsService struct {
	feed      standingsdb.SubmissionFeed
	catalog   standingsdb.Catalog
	directory standingsdb.Directory
	cache     *RankListCache
	opts      Options
	logger    *slog.Logger
	metrics   standingsmetrics.StandingsMetrics
	tracer    trace.Tracer
}

var _ Service = (*StandingsService)(nil)

// NewStandingsService creates a new StandingsService.
func NewStandingsService(
	feed standingsdb.SubmissionFeed,
	catalog standingsdb.Catalog,
	directory standingsdb.Directory,
	opts Options,
	logger *slog.Logger,
	metrics standingsmetrics.StandingsMetrics,
	tracer trace.Tracer,
) (*StandingsService, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.CacheStaleness < 0 {
		return nil, fmt.Errorf("%w: negative cache staleness %s", standingsdomain.ErrInvalidArgument, opts.CacheStaleness)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &standingsmetrics.NoOpMetrics{}
	}

	return &StandingsService{
		feed:      feed,
		catalog:   catalog,
		directory: directory,
		cache:     NewRankListCache(opts.CacheStaleness, opts.Now),
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}, nil
}

// Cache exposes the rank list cache, mainly for lifecycle checks.
func (s *StandingsService) Cache() *RankListCache {
	return s.cache
}

// isFailure reports errors caused by the request rather than the system.
func isFailure(err error) bool {
	return errors.Is(err, standingsdomain.ErrInvalidArgument) || errors.Is(err, standingsdomain.ErrNotFound)
}

// withTelemetry wraps a service operation with tracing, metrics, logging and panic recovery.
func withTelemetry[T any](
	s *StandingsService,
	ctx context.Context,
	operationName string,
	contestID int64,
	op func(ctx context.Context) (T, error),
) (result T, err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.Int64("contest_id", contestID),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.DebugContext(ctx, "Operation triggered",
		observability.ExtractCorrelationID(ctx),
		slog.String("operation", operationName),
		slog.Int64("contest_id", contestID),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				observability.ExtractCorrelationID(ctx),
				slog.Int64("contest_id", contestID),
				observability.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			var zero T
			result = zero
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		if isFailure(err) {
			s.logger.WarnContext(ctx, "Operation rejected",
				observability.ExtractCorrelationID(ctx),
				slog.String("operation", operationName),
				slog.Int64("contest_id", contestID),
				observability.Error(wrappedErr),
			)
		} else {
			s.logger.ErrorContext(ctx, "Operation failed with error",
				observability.ExtractCorrelationID(ctx),
				slog.String("operation", operationName),
				slog.Int64("contest_id", contestID),
				observability.Error(wrappedErr),
			)
		}
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	s.logger.DebugContext(ctx, "Operation completed successfully",
		observability.ExtractCorrelationID(ctx),
		slog.String("operation", operationName),
		slog.Int64("contest_id", contestID),
	)
	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}
