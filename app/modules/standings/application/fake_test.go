package standingsservice

import (
	"context"
	"fmt"
	"slices"
	"sync"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
	mapset "github.com/deckarep/golang-set/v2"
)

// ------------------------
// Fake Submission Feed
// ------------------------

type FakeSubmissionFeed struct {
	mu    sync.Mutex
	trace []string

	Submissions []standingsdomain.Submission

	SearchSubmissionsFunc   func(ctx context.Context, criteria standingsdb.SubmissionCriteria, afterID, beforeID int64, limit int, withContent bool) ([]standingsdomain.Submission, error)
	GetSubmissionFunc       func(ctx context.Context, id int64) (standingsdomain.Submission, error)
	GetSubmissionSourceFunc func(ctx context.Context, id int64) (string, error)
}

func NewFakeSubmissionFeed(subs ...standingsdomain.Submission) *FakeSubmissionFeed {
	return &FakeSubmissionFeed{trace: []string{}, Submissions: subs}
}

func (f *FakeSubmissionFeed) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSubmissionFeed) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

func matches(criteria standingsdb.SubmissionCriteria, s standingsdomain.Submission) bool {
	if criteria.ContestID != 0 && s.ContestID != criteria.ContestID {
		return false
	}
	if len(criteria.ProblemIDs) > 0 && !slices.Contains(criteria.ProblemIDs, s.ProblemID) {
		return false
	}
	if criteria.UserID != 0 && s.UserID != criteria.UserID {
		return false
	}
	if !criteria.SubmittedBefore.IsZero() && !s.SubmittedAt.Before(criteria.SubmittedBefore) {
		return false
	}
	return true
}

func (f *FakeSubmissionFeed) SearchSubmissions(ctx context.Context, criteria standingsdb.SubmissionCriteria, afterID, beforeID int64, limit int, withContent bool) ([]standingsdomain.Submission, error) {
	f.record(fmt.Sprintf("SearchSubmissions(after=%d)", afterID))
	if f.SearchSubmissionsFunc != nil {
		return f.SearchSubmissionsFunc(ctx, criteria, afterID, beforeID, limit, withContent)
	}

	f.mu.Lock()
	sorted := slices.Clone(f.Submissions)
	f.mu.Unlock()
	slices.SortFunc(sorted, func(a, b standingsdomain.Submission) int { return int(a.ID - b.ID) })

	var out []standingsdomain.Submission
	for _, s := range sorted {
		if s.ID <= afterID || (beforeID > 0 && s.ID >= beforeID) || !matches(criteria, s) {
			continue
		}
		if !withContent {
			s.Content = ""
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *FakeSubmissionFeed) GetSubmission(ctx context.Context, id int64) (standingsdomain.Submission, error) {
	f.record("GetSubmission")
	if f.GetSubmissionFunc != nil {
		return f.GetSubmissionFunc(ctx, id)
	}
	return standingsdomain.Submission{}, standingsdomain.ErrNotFound
}

func (f *FakeSubmissionFeed) GetSubmissionSource(ctx context.Context, id int64) (string, error) {
	f.record("GetSubmissionSource")
	if f.GetSubmissionSourceFunc != nil {
		return f.GetSubmissionSourceFunc(ctx, id)
	}
	return "", standingsdomain.ErrNotFound
}

var _ standingsdb.SubmissionFeed = (*FakeSubmissionFeed)(nil)

// ------------------------
// Fake Catalog
// ------------------------

type FakeCatalog struct {
	mu    sync.Mutex
	trace []string

	Contests  map[int64]standingsdomain.Contest
	Languages []standingsdomain.Language

	GetContestFunc         func(ctx context.Context, id int64) (standingsdomain.Contest, error)
	GetAllContestsFunc     func(ctx context.Context) ([]standingsdomain.Contest, error)
	GetAllProblemsetsFunc  func(ctx context.Context) ([]standingsdomain.Contest, error)
	GetProblemFunc         func(ctx context.Context, id int64) (standingsdomain.Problem, error)
	GetAllLanguagesFunc    func(ctx context.Context) ([]standingsdomain.Language, error)
	GetLanguageFunc        func(ctx context.Context, id int64) (standingsdomain.Language, error)
	GetAllJudgeRepliesFunc func(ctx context.Context) ([]standingsdomain.JudgeReply, error)
	GetJudgeReplyFunc      func(ctx context.Context, id int64) (standingsdomain.JudgeReply, error)
}

func NewFakeCatalog(contests ...standingsdomain.Contest) *FakeCatalog {
	f := &FakeCatalog{
		trace:     []string{},
		Contests:  make(map[int64]standingsdomain.Contest),
		Languages: []standingsdomain.Language{{ID: 1, Name: "C++"}, {ID: 2, Name: "Go"}},
	}
	for _, c := range contests {
		f.Contests[c.ID] = c
	}
	return f
}

func (f *FakeCatalog) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeCatalog) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

func (f *FakeCatalog) GetContest(ctx context.Context, id int64) (standingsdomain.Contest, error) {
	f.record("GetContest")
	if f.GetContestFunc != nil {
		return f.GetContestFunc(ctx, id)
	}
	c, ok := f.Contests[id]
	if !ok {
		return standingsdomain.Contest{}, fmt.Errorf("contest %d: %w", id, standingsdomain.ErrNotFound)
	}
	return c, nil
}

func (f *FakeCatalog) list(problemset bool) []standingsdomain.Contest {
	var out []standingsdomain.Contest
	for _, c := range f.Contests {
		if (c.Kind == standingsdomain.KindProblemset) == problemset {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b standingsdomain.Contest) int { return int(a.ID - b.ID) })
	return out
}

func (f *FakeCatalog) GetAllContests(ctx context.Context) ([]standingsdomain.Contest, error) {
	f.record("GetAllContests")
	if f.GetAllContestsFunc != nil {
		return f.GetAllContestsFunc(ctx)
	}
	return f.list(false), nil
}

func (f *FakeCatalog) GetAllProblemsets(ctx context.Context) ([]standingsdomain.Contest, error) {
	f.record("GetAllProblemsets")
	if f.GetAllProblemsetsFunc != nil {
		return f.GetAllProblemsetsFunc(ctx)
	}
	return f.list(true), nil
}

func (f *FakeCatalog) GetProblem(ctx context.Context, id int64) (standingsdomain.Problem, error) {
	f.record("GetProblem")
	if f.GetProblemFunc != nil {
		return f.GetProblemFunc(ctx, id)
	}
	for _, c := range f.Contests {
		for _, p := range c.Problems {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return standingsdomain.Problem{}, fmt.Errorf("problem %d: %w", id, standingsdomain.ErrNotFound)
}

func (f *FakeCatalog) GetAllLanguages(ctx context.Context) ([]standingsdomain.Language, error) {
	f.record("GetAllLanguages")
	if f.GetAllLanguagesFunc != nil {
		return f.GetAllLanguagesFunc(ctx)
	}
	return f.Languages, nil
}

func (f *FakeCatalog) GetLanguage(ctx context.Context, id int64) (standingsdomain.Language, error) {
	f.record("GetLanguage")
	if f.GetLanguageFunc != nil {
		return f.GetLanguageFunc(ctx, id)
	}
	for _, l := range f.Languages {
		if l.ID == id {
			return l, nil
		}
	}
	return standingsdomain.Language{}, standingsdomain.ErrNotFound
}

func (f *FakeCatalog) GetAllJudgeReplies(ctx context.Context) ([]standingsdomain.JudgeReply, error) {
	f.record("GetAllJudgeReplies")
	if f.GetAllJudgeRepliesFunc != nil {
		return f.GetAllJudgeRepliesFunc(ctx)
	}
	var out []standingsdomain.JudgeReply
	for i, v := range standingsdomain.Verdicts() {
		out = append(out, standingsdomain.JudgeReply{ID: int64(i + 1), Name: v.String(), Verdict: v})
	}
	return out, nil
}

func (f *FakeCatalog) GetJudgeReply(ctx context.Context, id int64) (standingsdomain.JudgeReply, error) {
	f.record("GetJudgeReply")
	if f.GetJudgeReplyFunc != nil {
		return f.GetJudgeReplyFunc(ctx, id)
	}
	return standingsdomain.JudgeReply{}, standingsdomain.ErrNotFound
}

var _ standingsdb.Catalog = (*FakeCatalog)(nil)

// ------------------------
// Fake Directory
// ------------------------

type FakeDirectory struct {
	mu    sync.Mutex
	trace []string

	Roles map[int64][]int64
	Users map[int64]standingsdomain.User

	GetUserFunc        func(ctx context.Context, id int64) (standingsdomain.User, error)
	GetRoleMembersFunc func(ctx context.Context, roleID int64) (mapset.Set[int64], error)
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		trace: []string{},
		Roles: make(map[int64][]int64),
		Users: make(map[int64]standingsdomain.User),
	}
}

func (f *FakeDirectory) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeDirectory) GetUser(ctx context.Context, id int64) (standingsdomain.User, error) {
	f.record("GetUser")
	if f.GetUserFunc != nil {
		return f.GetUserFunc(ctx, id)
	}
	u, ok := f.Users[id]
	if !ok {
		return standingsdomain.User{}, fmt.Errorf("user %d: %w", id, standingsdomain.ErrNotFound)
	}
	return u, nil
}

func (f *FakeDirectory) GetRoleMembers(ctx context.Context, roleID int64) (mapset.Set[int64], error) {
	f.record("GetRoleMembers")
	if f.GetRoleMembersFunc != nil {
		return f.GetRoleMembersFunc(ctx, roleID)
	}
	members, ok := f.Roles[roleID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %d", standingsdomain.ErrInvalidArgument, roleID)
	}
	return mapset.NewSet(members...), nil
}

var _ standingsdb.Directory = (*FakeDirectory)(nil)
