package standingsdb

import (
	"context"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/uptrace/bun"
)

// FeedImpl implements SubmissionFeed using Bun ORM.
type FeedImpl struct {
	db bun.IDB
}

// NewSubmissionFeed creates a new submission feed.
func NewSubmissionFeed(db bun.IDB) SubmissionFeed {
	return &FeedImpl{db: db}
}

// SearchSubmissions pages through submissions in ascending id order.
func (r *FeedImpl) SearchSubmissions(ctx context.Context, criteria SubmissionCriteria, afterID, beforeID int64, limit int, withContent bool) ([]standingsdomain.Submission, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: search limit must be positive, got %d", standingsdomain.ErrInvalidArgument, limit)
	}

	var rows []*Submission
	q := r.db.NewSelect().
		Model(&rows).
		Relation("JudgeReply").
		Where("s.id > ?", afterID).
		OrderExpr("s.id ASC").
		Limit(limit)

	if !withContent {
		q = q.ExcludeColumn("content")
	}
	if beforeID > 0 {
		q = q.Where("s.id < ?", beforeID)
	}
	if criteria.ContestID != 0 {
		q = q.Where("s.contest_id = ?", criteria.ContestID)
	}
	if len(criteria.ProblemIDs) > 0 {
		q = q.Where("s.problem_id IN (?)", bun.In(criteria.ProblemIDs))
	}
	if criteria.UserID != 0 {
		q = q.Where("s.user_profile_id = ?", criteria.UserID)
	}
	if !criteria.SubmittedBefore.IsZero() {
		q = q.Where("s.submission_date < ?", criteria.SubmittedBefore)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, storeError("failed to search submissions", err)
	}

	out := make([]standingsdomain.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// GetSubmission retrieves one submission without its source.
func (r *FeedImpl) GetSubmission(ctx context.Context, id int64) (standingsdomain.Submission, error) {
	row := new(Submission)
	err := r.db.NewSelect().
		Model(row).
		Relation("JudgeReply").
		ExcludeColumn("content").
		Where("s.id = ?", id).
		Scan(ctx)
	if err != nil {
		return standingsdomain.Submission{}, storeError(fmt.Sprintf("failed to get submission %d", id), err)
	}
	return row.toDomain()
}

// GetSubmissionSource retrieves the source text of one submission.
func (r *FeedImpl) GetSubmissionSource(ctx context.Context, id int64) (string, error) {
	var content string
	err := r.db.NewSelect().
		Model((*Submission)(nil)).
		Column("content").
		Where("id = ?", id).
		Scan(ctx, &content)
	if err != nil {
		return "", storeError(fmt.Sprintf("failed to get source of submission %d", id), err)
	}
	return content, nil
}
