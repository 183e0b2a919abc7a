package standingsservice

import (
	"context"
	"fmt"
	"slices"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"
)

func (s *StandingsService) rankListKey(req RankListRequest) CacheKey {
	key := CacheKey{
		ContestID:    req.ContestID,
		Kind:         CacheKindRankList,
		View:         req.View,
		FreezeWindow: s.opts.Policy.FreezeWindow,
	}
	if req.RoleID != nil {
		key.RoleID = *req.RoleID
		key.RoleFiltered = true
	}
	return key
}

// GetRankList returns the standings of a contest or problemset.
func (s *StandingsService) GetRankList(ctx context.Context, req RankListRequest) (*RankList, error) {
	return withTelemetry(s, ctx, "GetRankList", req.ContestID, func(ctx context.Context) (*RankList, error) {
		return s.rankList(ctx, req)
	})
}

func (s *StandingsService) rankList(ctx context.Context, req RankListRequest) (*RankList, error) {
	if req.ContestID <= 0 {
		return nil, fmt.Errorf("%w: contest id must be positive, got %d", standingsdomain.ErrInvalidArgument, req.ContestID)
	}
	if req.View != standingsdomain.ViewPublic && req.View != standingsdomain.ViewJudge {
		return nil, fmt.Errorf("%w: unknown view %d", standingsdomain.ErrInvalidArgument, int(req.View))
	}

	if !req.AsOf.IsZero() {
		return s.buildRankList(ctx, req)
	}

	key := s.rankListKey(req)
	list, hit, err := cached(ctx, s.cache, key, func(ctx context.Context) (*RankList, error) {
		return s.buildRankList(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		s.metrics.RecordCacheHit(ctx, string(key.Kind))
	} else {
		s.metrics.RecordCacheMiss(ctx, string(key.Kind))
	}
	return list, nil
}

// buildRankList loads metadata, scans the contest once and builds the table.
func (s *StandingsService) buildRankList(ctx context.Context, req RankListRequest) (*RankList, error) {
	var (
		contest standingsdomain.Contest
		members mapset.Set[int64]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contest, err = s.catalog.GetContest(gctx, req.ContestID)
		if err != nil {
			return fmt.Errorf("failed to load contest %d: %w", req.ContestID, err)
		}
		return nil
	})
	if req.RoleID != nil {
		roleID := *req.RoleID
		g.Go(func() error {
			var err error
			members, err = s.directory.GetRoleMembers(gctx, roleID)
			if err != nil {
				return fmt.Errorf("failed to load members of role %d: %w", roleID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mode := standingsdomain.ModeContest
	if contest.Kind == standingsdomain.KindProblemset {
		mode = standingsdomain.ModeProblemset
	}

	builder, err := standingsdomain.NewRankListBuilder(contest, contest.PolicyFor(s.opts.Policy), standingsdomain.BuildOptions{
		Mode:        mode,
		View:        req.View,
		RoleMembers: members,
		AsOf:        req.AsOf,
	})
	if err != nil {
		return nil, err
	}

	if criteria, ok := contestCriteria(contest); ok {
		criteria.SubmittedBefore = req.AsOf
		if err := s.scan(ctx, string(CacheKindRankList), criteria, builder.Add); err != nil {
			return nil, err
		}
	}

	return &RankList{
		Contest:  contest,
		Mode:     mode,
		View:     req.View.String(),
		FreezeAt: builder.FreezeAt(),
		AsOf:     req.AsOf,
		BuiltAt:  s.opts.Now(),
		Entries:  builder.Build(),
	}, nil
}

// GetProblemsetRankList returns one window of a problemset's cumulative standings.
func (s *StandingsService) GetProblemsetRankList(ctx context.Context, problemsetID int64, offset, count int) (*RankListPage, error) {
	return withTelemetry(s, ctx, "GetProblemsetRankList", problemsetID, func(ctx context.Context) (*RankListPage, error) {
		if offset < 0 {
			return nil, fmt.Errorf("%w: offset must not be negative, got %d", standingsdomain.ErrInvalidArgument, offset)
		}
		if count <= 0 {
			return nil, fmt.Errorf("%w: count must be positive, got %d", standingsdomain.ErrInvalidArgument, count)
		}

		if problemsetID <= 0 {
			return nil, fmt.Errorf("%w: problemset id must be positive, got %d", standingsdomain.ErrInvalidArgument, problemsetID)
		}
		set, err := s.catalog.GetContest(ctx, problemsetID)
		if err != nil {
			return nil, fmt.Errorf("failed to load problemset %d: %w", problemsetID, err)
		}
		if set.Kind != standingsdomain.KindProblemset {
			return nil, fmt.Errorf("%w: %d is a timed contest, not a problemset", standingsdomain.ErrInvalidArgument, problemsetID)
		}

		list, err := s.rankList(ctx, RankListRequest{ContestID: problemsetID, View: standingsdomain.ViewPublic})
		if err != nil {
			return nil, err
		}

		page := &RankListPage{
			ProblemsetID: problemsetID,
			Offset:       offset,
			Total:        len(list.Entries),
			Entries:      []standingsdomain.RankEntry{},
		}
		if offset < len(list.Entries) {
			end := min(offset+count, len(list.Entries))
			page.Entries = slices.Clone(list.Entries[offset:end])
		}
		return page, nil
	})
}

// GetRankListEntry returns one contestant's row of the requested rank list.
func (s *StandingsService) GetRankListEntry(ctx context.Context, req RankListRequest, userID int64) (standingsdomain.RankEntry, error) {
	return withTelemetry(s, ctx, "GetRankListEntry", req.ContestID, func(ctx context.Context) (standingsdomain.RankEntry, error) {
		list, err := s.rankList(ctx, req)
		if err != nil {
			return standingsdomain.RankEntry{}, err
		}
		entry, ok := standingsdomain.FindEntry(list.Entries, userID)
		if !ok {
			return standingsdomain.RankEntry{}, fmt.Errorf("%w: user %d has no entry in contest %d", standingsdomain.ErrNotFound, userID, req.ContestID)
		}
		return entry, nil
	})
}
