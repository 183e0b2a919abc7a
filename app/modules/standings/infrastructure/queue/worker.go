package standingsqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/riverqueue/river"
)

// Warmer rebuilds a contest's rank lists into the cache.
type Warmer interface {
	WarmRankLists(ctx context.Context, contestID int64) error
}

// WarmRankListWorker runs WarmRankListArgs jobs.
type WarmRankListWorker struct {
	river.WorkerDefaults[WarmRankListArgs]
	warmer Warmer
	logger *slog.Logger
}

func NewWarmRankListWorker(warmer Warmer, logger *slog.Logger) *WarmRankListWorker {
	return &WarmRankListWorker{warmer: warmer, logger: logger}
}

func (w *WarmRankListWorker) Timeout(*river.Job[WarmRankListArgs]) time.Duration {
	return 2 * time.Minute
}

func (w *WarmRankListWorker) Work(ctx context.Context, job *river.Job[WarmRankListArgs]) error {
	logger := w.logger.With(
		slog.Int64("job_id", job.ID),
		slog.Int64("contest_id", job.Args.ContestID),
		slog.Int("attempt", job.Attempt),
	)

	err := w.warmer.WarmRankLists(ctx, job.Args.ContestID)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "Rank lists warmed")
		return nil
	case errors.Is(err, standingsdomain.ErrInvalidArgument), errors.Is(err, standingsdomain.ErrNotFound):
		// Retrying cannot fix a bad or deleted contest.
		logger.WarnContext(ctx, "Dropping warm job", observability.Error(err))
		return river.JobCancel(err)
	default:
		logger.ErrorContext(ctx, "Failed to warm rank lists", observability.Error(err))
		return fmt.Errorf("warm contest %d: %w", job.Args.ContestID, err)
	}
}
