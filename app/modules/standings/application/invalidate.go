package standingsservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/judge-standings/app/observability"
	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
)

type invalidationSourceKey struct{}

// WithInvalidationSource labels invalidations made with ctx, e.g. "nats" or "notify".
func WithInvalidationSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, invalidationSourceKey{}, source)
}

// InvalidationSourceFrom returns the label set by WithInvalidationSource, or "direct".
func InvalidationSourceFrom(ctx context.Context) string {
	if source, ok := ctx.Value(invalidationSourceKey{}).(string); ok && source != "" {
		return source
	}
	return "direct"
}

// Invalidate drops every cached view of a contest.
func (s *StandingsService) Invalidate(ctx context.Context, contestID int64) error {
	if contestID <= 0 {
		return fmt.Errorf("%w: contest id must be positive, got %d", standingsdomain.ErrInvalidArgument, contestID)
	}
	s.cache.Invalidate(contestID)

	source := InvalidationSourceFrom(ctx)
	s.metrics.RecordInvalidation(ctx, source)
	s.logger.InfoContext(ctx, "Contest standings invalidated",
		observability.ExtractCorrelationID(ctx),
		slog.Int64("contest_id", contestID),
		slog.String("source", source),
	)
	return nil
}

// InvalidateAll drops the cached views of every contest. Used when notifications
// may have been missed, e.g. after the notification connection was re-established.
func (s *StandingsService) InvalidateAll(ctx context.Context) error {
	n := s.cache.InvalidateAll()

	source := InvalidationSourceFrom(ctx)
	s.metrics.RecordInvalidation(ctx, source)
	s.logger.InfoContext(ctx, "All contest standings invalidated",
		observability.ExtractCorrelationID(ctx),
		slog.Int("contests", n),
		slog.String("source", source),
	)
	return nil
}

// WarmRankLists rebuilds the public and judge rank lists of a contest into the cache.
func (s *StandingsService) WarmRankLists(ctx context.Context, contestID int64) error {
	_, err := withTelemetry(s, ctx, "WarmRankLists", contestID, func(ctx context.Context) (struct{}, error) {
		for _, view := range []standingsdomain.View{standingsdomain.ViewPublic, standingsdomain.ViewJudge} {
			if _, err := s.rankList(ctx, RankListRequest{ContestID: contestID, View: view}); err != nil {
				return struct{}{}, fmt.Errorf("failed to warm %s rank list: %w", view, err)
			}
		}
		return struct{}{}, nil
	})
	return err
}
