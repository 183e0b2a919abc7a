package standingsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Metrics is the subset of the standings metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService schedules background standings work.
type QueueService interface {
	// EnqueueWarm schedules a rebuild of a contest's cached rank lists.
	EnqueueWarm(ctx context.Context, contestID int64) error
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

const metricsService = "river"

// Service runs standings jobs on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics Metrics
}

// NewService creates a River client with its own pgx pool. River's schema must
// already be migrated (see cmd/bun).
func NewService(ctx context.Context, dsn string, warmer Warmer, logger *slog.Logger, metrics Metrics) (*Service, error) {
	logger = logger.With(slog.String("component", "river_queue"))

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewWarmRankListWorker(warmer, logger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: 4},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{client: client, pool: pool, logger: logger, metrics: metrics}, nil
}

func (s *Service) observe(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, metricsService)
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operation, metricsService, time.Since(start))
	}()

	if err := fn(); err != nil {
		s.metrics.RecordOperationFailure(ctx, operation, metricsService)
		s.logger.ErrorContext(ctx, "Queue operation failed", slog.String("operation", operation), observability.Error(err))
		return err
	}
	s.metrics.RecordOperationSuccess(ctx, operation, metricsService)
	return nil
}

func (s *Service) Start(ctx context.Context) error {
	return s.observe(ctx, "start_service", func() error {
		if err := s.client.Start(ctx); err != nil {
			return fmt.Errorf("failed to start River client: %w", err)
		}
		s.logger.InfoContext(ctx, "Standings queue started")
		return nil
	})
}

// Stop drains running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	return s.observe(ctx, "stop_service", func() error {
		defer s.pool.Close()
		if err := s.client.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop River client: %w", err)
		}
		return nil
	})
}

func (s *Service) HealthCheck(ctx context.Context) error {
	return s.observe(ctx, "health_check", func() error {
		return s.pool.Ping(ctx)
	})
}

func (s *Service) EnqueueWarm(ctx context.Context, contestID int64) error {
	return s.observe(ctx, "enqueue_warm", func() error {
		res, err := s.client.Insert(ctx, WarmRankListArgs{ContestID: contestID}, nil)
		if err != nil {
			return fmt.Errorf("failed to enqueue warm job for contest %d: %w", contestID, err)
		}
		s.logger.DebugContext(ctx, "Warm job enqueued",
			slog.Int64("contest_id", contestID),
			slog.Int64("job_id", res.Job.ID),
			slog.Bool("duplicate", res.UniqueSkippedAsDuplicate),
		)
		return nil
	})
}
