package standingsservice

import (
	"context"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

// GetContestStatistics summarizes every submission of a contest, unaffected by the freeze.
func (s *StandingsService) GetContestStatistics(ctx context.Context, contestID int64) (*standingsdomain.ContestStatistics, error) {
	return withTelemetry(s, ctx, "GetContestStatistics", contestID, func(ctx context.Context) (*standingsdomain.ContestStatistics, error) {
		return s.contestStatistics(ctx, contestID)
	})
}

func (s *StandingsService) contestStatistics(ctx context.Context, contestID int64) (*standingsdomain.ContestStatistics, error) {
	if contestID <= 0 {
		return nil, fmt.Errorf("%w: contest id must be positive, got %d", standingsdomain.ErrInvalidArgument, contestID)
	}

	key := CacheKey{ContestID: contestID, Kind: CacheKindStatistics, View: standingsdomain.ViewJudge}
	stats, hit, err := cached(ctx, s.cache, key, func(ctx context.Context) (*standingsdomain.ContestStatistics, error) {
		return s.buildContestStatistics(ctx, contestID)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		s.metrics.RecordCacheHit(ctx, string(key.Kind))
	} else {
		s.metrics.RecordCacheMiss(ctx, string(key.Kind))
	}
	return stats, nil
}

func (s *StandingsService) buildContestStatistics(ctx context.Context, contestID int64) (*standingsdomain.ContestStatistics, error) {
	var (
		contest   standingsdomain.Contest
		languages []standingsdomain.Language
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contest, err = s.catalog.GetContest(gctx, contestID)
		if err != nil {
			return fmt.Errorf("failed to load contest %d: %w", contestID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		languages, err = s.catalog.GetAllLanguages(gctx)
		if err != nil {
			return fmt.Errorf("failed to load languages: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	known := mapset.NewThreadUnsafeSet[int64]()
	for _, l := range languages {
		known.Add(l.ID)
	}

	agg := standingsdomain.NewContestStatisticsAggregator(contest)
	if criteria, ok := contestCriteria(contest); ok {
		err := s.scan(ctx, string(CacheKindStatistics), criteria, func(sub standingsdomain.Submission) error {
			if !known.Contains(sub.LanguageID) {
				return fmt.Errorf("%w: submission %d uses unknown language %d", standingsdomain.ErrInconsistent, sub.ID, sub.LanguageID)
			}
			return agg.Add(sub)
		})
		if err != nil {
			return nil, err
		}
	}

	stats := agg.Result()
	return &stats, nil
}

// GetProblemStatistics ranks the best accepted submission of each contestant on one problem.
func (s *StandingsService) GetProblemStatistics(ctx context.Context, problemID int64, orderBy string, count int) (*standingsdomain.ProblemStatistics, error) {
	return withTelemetry(s, ctx, "GetProblemStatistics", 0, func(ctx context.Context) (*standingsdomain.ProblemStatistics, error) {
		key, err := standingsdomain.ParseOrderKey(orderBy)
		if err != nil {
			return nil, err
		}
		agg, err := standingsdomain.NewProblemStatisticsAggregator(problemID, key, count)
		if err != nil {
			return nil, err
		}

		problem, err := s.catalog.GetProblem(ctx, problemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load problem %d: %w", problemID, err)
		}

		criteria := standingsdb.SubmissionCriteria{ContestID: problem.ContestID, ProblemIDs: []int64{problemID}}
		if err := s.scan(ctx, "problem", criteria, agg.Add); err != nil {
			return nil, err
		}

		stats := agg.Result()
		return &stats, nil
	})
}

// GetUserStatistics summarizes one contestant's true state within a contest.
func (s *StandingsService) GetUserStatistics(ctx context.Context, contestID, userID int64) (*standingsdomain.UserStatistics, error) {
	return withTelemetry(s, ctx, "GetUserStatistics", contestID, func(ctx context.Context) (*standingsdomain.UserStatistics, error) {
		var contest standingsdomain.Contest

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			contest, err = s.catalog.GetContest(gctx, contestID)
			if err != nil {
				return fmt.Errorf("failed to load contest %d: %w", contestID, err)
			}
			return nil
		})
		g.Go(func() error {
			if _, err := s.directory.GetUser(gctx, userID); err != nil {
				return fmt.Errorf("failed to load user %d: %w", userID, err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		agg, err := standingsdomain.NewUserStatisticsAggregator(contest, contest.PolicyFor(s.opts.Policy), userID)
		if err != nil {
			return nil, err
		}

		if criteria, ok := contestCriteria(contest); ok {
			criteria.UserID = userID
			if err := s.scan(ctx, "user", criteria, agg.Add); err != nil {
				return nil, err
			}
		}

		stats := agg.Result()
		return &stats, nil
	})
}
