package standingsservice

import (
	"context"
	"fmt"
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
)

// scan pages through the feed in ascending id order and hands every submission to
// visit exactly once. The context is checked between pages. Any failure aborts the
// scan and the caller must discard what visit accumulated.
func (s *StandingsService) scan(ctx context.Context, kind string, criteria standingsdb.SubmissionCriteria, visit func(standingsdomain.Submission) error) error {
	start := time.Now()
	var (
		afterID int64
		scanned int
	)
	defer func() {
		s.metrics.RecordSubmissionsScanned(ctx, kind, scanned)
		s.metrics.RecordBuildDuration(ctx, kind, time.Since(start))
	}()

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan aborted after submission %d: %w", afterID, err)
		}

		page, err := s.feed.SearchSubmissions(ctx, criteria, afterID, 0, s.opts.PageSize, false)
		if err != nil {
			return fmt.Errorf("failed to read submissions after %d: %w", afterID, err)
		}

		for _, sub := range page {
			if sub.ID <= afterID {
				return fmt.Errorf("%w: feed returned submission %d after %d", standingsdomain.ErrInconsistent, sub.ID, afterID)
			}
			if err := visit(sub); err != nil {
				return err
			}
			afterID = sub.ID
		}
		scanned += len(page)

		if len(page) < s.opts.PageSize {
			return nil
		}
	}
}

// contestCriteria limits a scan to the problems the catalog lists for contest.
// Submissions to deactivated problems are left out. ok is false when the contest
// lists no problems, in which case there is nothing to scan.
func contestCriteria(contest standingsdomain.Contest) (criteria standingsdb.SubmissionCriteria, ok bool) {
	ids := make([]int64, 0, len(contest.Problems))
	for _, p := range contest.Problems {
		ids = append(ids, p.ID)
	}
	return standingsdb.SubmissionCriteria{ContestID: contest.ID, ProblemIDs: ids}, len(ids) > 0
}
