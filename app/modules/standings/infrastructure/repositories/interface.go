package standingsdb

import (
	"context"
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	mapset "github.com/deckarep/golang-set/v2"
)

// SubmissionCriteria narrows a submission search. Zero fields do not filter.
type SubmissionCriteria struct {
	ContestID       int64
	ProblemIDs      []int64
	UserID          int64
	SubmittedBefore time.Time
}

// SubmissionFeed is the read-only, id-paginated view over stored submissions.
type SubmissionFeed interface {
	// SearchSubmissions returns at most limit submissions with afterID < id < beforeID
	// in ascending id order. beforeID <= 0 leaves the upper bound open. Source content
	// is only loaded when withContent is set.
	SearchSubmissions(ctx context.Context, criteria SubmissionCriteria, afterID, beforeID int64, limit int, withContent bool) ([]standingsdomain.Submission, error)

	// GetSubmission loads one submission without its source.
	GetSubmission(ctx context.Context, id int64) (standingsdomain.Submission, error)

	// GetSubmissionSource loads only the source of one submission.
	GetSubmissionSource(ctx context.Context, id int64) (string, error)
}

// Catalog serves the static metadata needed before scoring.
type Catalog interface {
	GetContest(ctx context.Context, id int64) (standingsdomain.Contest, error)
	GetAllContests(ctx context.Context) ([]standingsdomain.Contest, error)
	GetAllProblemsets(ctx context.Context) ([]standingsdomain.Contest, error)
	GetProblem(ctx context.Context, id int64) (standingsdomain.Problem, error)
	GetAllLanguages(ctx context.Context) ([]standingsdomain.Language, error)
	GetLanguage(ctx context.Context, id int64) (standingsdomain.Language, error)
	GetAllJudgeReplies(ctx context.Context) ([]standingsdomain.JudgeReply, error)
	GetJudgeReply(ctx context.Context, id int64) (standingsdomain.JudgeReply, error)
}

// Directory resolves contestants and role membership.
type Directory interface {
	GetUser(ctx context.Context, id int64) (standingsdomain.User, error)

	// GetRoleMembers returns the user ids holding roleID. An unknown role is
	// ErrInvalidArgument, a known role with no members is an empty set.
	GetRoleMembers(ctx context.Context, roleID int64) (mapset.Set[int64], error)
}
