package standingsdomain

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// ProblemSummary aggregates every submission made to one contest problem.
type ProblemSummary struct {
	ProblemID int64           `json:"problem_id"`
	Total     int             `json:"total"`
	Accepted  int             `json:"accepted"`
	Solvers   int             `json:"solvers"`
	Triers    int             `json:"triers"`
	ByVerdict map[Verdict]int `json:"by_verdict"`
}

// ContestStatistics is the contest-wide summary.
type ContestStatistics struct {
	ContestID  int64            `json:"contest_id"`
	Total      int              `json:"total"`
	Problems   []ProblemSummary `json:"problems"`
	ByVerdict  map[Verdict]int  `json:"by_verdict"`
	ByLanguage map[int64]int    `json:"by_language"`
}

// ContestStatisticsAggregator accumulates ContestStatistics one submission at a time.
type ContestStatisticsAggregator struct {
	contest      Contest
	problemIndex map[int64]int
	stats        ContestStatistics
	solvers      []mapset.Set[int64]
	triers       []mapset.Set[int64]
}

func NewContestStatisticsAggregator(contest Contest) *ContestStatisticsAggregator {
	a := &ContestStatisticsAggregator{
		contest:      contest,
		problemIndex: make(map[int64]int, len(contest.Problems)),
		stats: ContestStatistics{
			ContestID:  contest.ID,
			Problems:   make([]ProblemSummary, len(contest.Problems)),
			ByVerdict:  make(map[Verdict]int),
			ByLanguage: make(map[int64]int),
		},
		solvers: make([]mapset.Set[int64], len(contest.Problems)),
		triers:  make([]mapset.Set[int64], len(contest.Problems)),
	}
	for i, p := range contest.Problems {
		a.problemIndex[p.ID] = i
		a.stats.Problems[i] = ProblemSummary{ProblemID: p.ID, ByVerdict: make(map[Verdict]int)}
		a.solvers[i] = mapset.NewThreadUnsafeSet[int64]()
		a.triers[i] = mapset.NewThreadUnsafeSet[int64]()
	}
	return a
}

// Add counts one submission, including compile errors, system errors and pending ones.
func (a *ContestStatisticsAggregator) Add(sub Submission) error {
	idx, ok := a.problemIndex[sub.ProblemID]
	if !ok {
		return fmt.Errorf("%w: submission %d references problem %d outside contest %d", ErrInconsistent, sub.ID, sub.ProblemID, a.contest.ID)
	}
	if !sub.Verdict.Valid() {
		return fmt.Errorf("%w: submission %d has unknown verdict %d", ErrInconsistent, sub.ID, int(sub.Verdict))
	}

	summary := &a.stats.Problems[idx]
	summary.Total++
	summary.ByVerdict[sub.Verdict]++
	a.triers[idx].Add(sub.UserID)
	if sub.Verdict.IsSolved() {
		summary.Accepted++
		a.solvers[idx].Add(sub.UserID)
	}

	a.stats.Total++
	a.stats.ByVerdict[sub.Verdict]++
	a.stats.ByLanguage[sub.LanguageID]++
	return nil
}

func (a *ContestStatisticsAggregator) Result() ContestStatistics {
	out := a.stats
	out.Problems = slices.Clone(a.stats.Problems)
	for i := range out.Problems {
		out.Problems[i].Solvers = a.solvers[i].Cardinality()
		out.Problems[i].Triers = a.triers[i].Cardinality()
	}
	return out
}

// OrderKey is a validated sort key for problem statistics.
type OrderKey string

const (
	OrderByTime     OrderKey = "time"
	OrderByMemory   OrderKey = "memory"
	OrderByDate     OrderKey = "date"
	OrderBySize     OrderKey = "size"
	OrderByAttempts OrderKey = "attempts"
)

// ParseOrderKey validates a caller supplied key. There is no default.
func ParseOrderKey(s string) (OrderKey, error) {
	switch k := OrderKey(s); k {
	case OrderByTime, OrderByMemory, OrderByDate, OrderBySize, OrderByAttempts:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown order key %q", ErrInvalidArgument, s)
	}
}

// ProblemStatEntry is one contestant's best accepted submission to a problem.
type ProblemStatEntry struct {
	UserID       int64         `json:"user_id"`
	SubmissionID int64         `json:"submission_id"`
	LanguageID   int64         `json:"language_id"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	RunTime      time.Duration `json:"run_time"`
	MemoryKB     int64         `json:"memory_kb"`
	CodeLength   int64         `json:"code_length"`
	Attempts     int           `json:"attempts"`
}

// ProblemStatistics summarizes one problem and lists its top contestants.
type ProblemStatistics struct {
	ProblemID int64              `json:"problem_id"`
	OrderBy   OrderKey           `json:"order_by"`
	Total     int                `json:"total"`
	Accepted  int                `json:"accepted"`
	ByVerdict map[Verdict]int    `json:"by_verdict"`
	Top       []ProblemStatEntry `json:"top"`
}

type problemUserState struct {
	attempts []Attempt
	accepted []Submission
}

// ProblemStatisticsAggregator accumulates ProblemStatistics one submission at a time.
type ProblemStatisticsAggregator struct {
	problemID int64
	orderBy   OrderKey
	count     int
	total     int
	accepted  int
	byVerdict map[Verdict]int
	users     map[int64]*problemUserState
}

func NewProblemStatisticsAggregator(problemID int64, orderBy OrderKey, count int) (*ProblemStatisticsAggregator, error) {
	if _, err := ParseOrderKey(string(orderBy)); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidArgument, count)
	}
	return &ProblemStatisticsAggregator{
		problemID: problemID,
		orderBy:   orderBy,
		count:     count,
		byVerdict: make(map[Verdict]int),
		users:     make(map[int64]*problemUserState),
	}, nil
}

func (a *ProblemStatisticsAggregator) Add(sub Submission) error {
	if sub.ProblemID != a.problemID {
		return fmt.Errorf("%w: submission %d is for problem %d, not %d", ErrInconsistent, sub.ID, sub.ProblemID, a.problemID)
	}
	if !sub.Verdict.Valid() {
		return fmt.Errorf("%w: submission %d has unknown verdict %d", ErrInconsistent, sub.ID, int(sub.Verdict))
	}

	a.total++
	a.byVerdict[sub.Verdict]++

	st, ok := a.users[sub.UserID]
	if !ok {
		st = &problemUserState{}
		a.users[sub.UserID] = st
	}
	st.attempts = append(st.attempts, Attempt{SubmissionID: sub.ID, SubmittedAt: sub.SubmittedAt, Verdict: sub.Verdict})
	if sub.Verdict.IsSolved() {
		a.accepted++
		sub.Content = ""
		st.accepted = append(st.accepted, sub)
	}
	return nil
}

func (a *ProblemStatisticsAggregator) Result() ProblemStatistics {
	entries := make([]ProblemStatEntry, 0, len(a.users))
	for userID, st := range a.users {
		if len(st.accepted) == 0 {
			continue
		}
		SortAttempts(st.attempts)
		cell := ScoreUntimed(a.problemID, st.attempts)

		best := st.accepted[0]
		for _, s := range st.accepted[1:] {
			if a.better(s, best) {
				best = s
			}
		}
		if a.orderBy == OrderByAttempts {
			best = findSubmission(st.accepted, cell.AcceptedID, best)
		}

		entries = append(entries, ProblemStatEntry{
			UserID:       userID,
			SubmissionID: best.ID,
			LanguageID:   best.LanguageID,
			SubmittedAt:  best.SubmittedAt,
			RunTime:      best.RunTime,
			MemoryKB:     best.MemoryKB,
			CodeLength:   best.CodeLength,
			Attempts:     cell.Attempts,
		})
	}

	slices.SortFunc(entries, a.compareEntries)
	if len(entries) > a.count {
		entries = entries[:a.count]
	}

	return ProblemStatistics{
		ProblemID: a.problemID,
		OrderBy:   a.orderBy,
		Total:     a.total,
		Accepted:  a.accepted,
		ByVerdict: a.byVerdict,
		Top:       entries,
	}
}

func findSubmission(subs []Submission, id int64, fallback Submission) Submission {
	for _, s := range subs {
		if s.ID == id {
			return s
		}
	}
	return fallback
}

// better reports whether s beats cur as a user's representative submission.
func (a *ProblemStatisticsAggregator) better(s, cur Submission) bool {
	var c int
	switch a.orderBy {
	case OrderByTime:
		c = cmp.Compare(s.RunTime, cur.RunTime)
	case OrderByMemory:
		c = cmp.Compare(s.MemoryKB, cur.MemoryKB)
	case OrderBySize:
		c = cmp.Compare(s.CodeLength, cur.CodeLength)
	}
	if c != 0 {
		return c < 0
	}
	if c := s.SubmittedAt.Compare(cur.SubmittedAt); c != 0 {
		return c < 0
	}
	return s.ID < cur.ID
}

func (a *ProblemStatisticsAggregator) compareEntries(x, y ProblemStatEntry) int {
	var c int
	switch a.orderBy {
	case OrderByTime:
		c = cmp.Compare(x.RunTime, y.RunTime)
	case OrderByMemory:
		c = cmp.Compare(x.MemoryKB, y.MemoryKB)
	case OrderBySize:
		c = cmp.Compare(x.CodeLength, y.CodeLength)
	case OrderByAttempts:
		c = cmp.Compare(x.Attempts, y.Attempts)
	}
	if c != 0 {
		return c
	}
	if c := x.SubmittedAt.Compare(y.SubmittedAt); c != 0 {
		return c
	}
	return cmp.Compare(x.SubmissionID, y.SubmissionID)
}

// UserStatistics is one contestant's summary within a contest.
type UserStatistics struct {
	ContestID         int64           `json:"contest_id"`
	UserID            int64           `json:"user_id"`
	Solved            int             `json:"solved"`
	SolvedProblems    []int64         `json:"solved_problems"`
	AttemptedProblems []int64         `json:"attempted_problems"`
	Submissions       int             `json:"submissions"`
	Penalty           time.Duration   `json:"penalty"`
	ByVerdict         map[Verdict]int `json:"by_verdict"`
}

// UserStatisticsAggregator accumulates one contestant's true (judge view) state.
type UserStatisticsAggregator struct {
	contest      Contest
	policy       Policy
	userID       int64
	problemIndex map[int64]int
	attempts     [][]Attempt
	byVerdict    map[Verdict]int
	submissions  int
}

func NewUserStatisticsAggregator(contest Contest, policy Policy, userID int64) (*UserStatisticsAggregator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	a := &UserStatisticsAggregator{
		contest:      contest,
		policy:       policy,
		userID:       userID,
		problemIndex: make(map[int64]int, len(contest.Problems)),
		attempts:     make([][]Attempt, len(contest.Problems)),
		byVerdict:    make(map[Verdict]int),
	}
	for i, p := range contest.Problems {
		a.problemIndex[p.ID] = i
	}
	return a, nil
}

func (a *UserStatisticsAggregator) Add(sub Submission) error {
	if sub.UserID != a.userID {
		return nil
	}
	idx, ok := a.problemIndex[sub.ProblemID]
	if !ok {
		return fmt.Errorf("%w: submission %d references problem %d outside contest %d", ErrInconsistent, sub.ID, sub.ProblemID, a.contest.ID)
	}
	if !sub.Verdict.Valid() {
		return fmt.Errorf("%w: submission %d has unknown verdict %d", ErrInconsistent, sub.ID, int(sub.Verdict))
	}

	a.submissions++
	a.byVerdict[sub.Verdict]++
	a.attempts[idx] = append(a.attempts[idx], Attempt{SubmissionID: sub.ID, SubmittedAt: sub.SubmittedAt, Verdict: sub.Verdict})
	return nil
}

func (a *UserStatisticsAggregator) Result() UserStatistics {
	out := UserStatistics{
		ContestID:         a.contest.ID,
		UserID:            a.userID,
		SolvedProblems:    []int64{},
		AttemptedProblems: []int64{},
		Submissions:       a.submissions,
		ByVerdict:         a.byVerdict,
	}

	for i, p := range a.contest.Problems {
		attempts := a.attempts[i]
		if len(attempts) == 0 {
			continue
		}
		SortAttempts(attempts)

		var cell ProblemCell
		if a.contest.Kind == KindProblemset {
			cell = ScoreUntimed(p.ID, attempts)
		} else {
			cell = Score(p.ID, a.contest.StartTime, attempts, a.policy)
		}

		if cell.Solved {
			out.Solved++
			out.Penalty += cell.Penalty
			out.SolvedProblems = append(out.SolvedProblems, p.ID)
		} else {
			out.AttemptedProblems = append(out.AttemptedProblems, p.ID)
		}
	}
	return out
}
