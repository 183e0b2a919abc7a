package standingsdomain

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// ContestKind separates timed contests from untimed problem archives.
type ContestKind int

const (
	KindContest ContestKind = iota
	KindProblemset
)

func (k ContestKind) String() string {
	if k == KindProblemset {
		return "problemset"
	}
	return "contest"
}

func (k ContestKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Problem is one problem of a contest, in display order.
type Problem struct {
	ID        int64  `json:"id"`
	ContestID int64  `json:"contest_id"`
	Code      string `json:"code"`
	Title     string `json:"title"`
}

// Contest is the static metadata the engine needs before scoring.
type Contest struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Kind      ContestKind `json:"kind"`
	StartTime time.Time   `json:"start_time,omitzero"`
	EndTime   time.Time   `json:"end_time,omitzero"`
	Problems  []Problem   `json:"problems"`

	// Optional per-contest overrides of the configured policy.
	PenaltyPerWrong *time.Duration `json:"penalty_per_wrong,omitempty"`
	FreezeWindow    *time.Duration `json:"freeze_window,omitempty"`
}

// FreezeAt returns the public freeze cutoff for the window, or the zero time when
// no freeze applies.
func (c Contest) FreezeAt(window time.Duration) time.Time {
	if window <= 0 || c.EndTime.IsZero() {
		return time.Time{}
	}
	return c.EndTime.Add(-window)
}

// PolicyFor applies the contest overrides to a base policy.
func (c Contest) PolicyFor(base Policy) Policy {
	p := base
	if c.PenaltyPerWrong != nil {
		p.PenaltyPerWrong = *c.PenaltyPerWrong
	}
	if c.FreezeWindow != nil {
		p.FreezeWindow = *c.FreezeWindow
	}
	return p
}

// Language is a catalog entry for a submission language.
type Language struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Compiler  string `json:"compiler"`
	Extension string `json:"extension"`
}

// JudgeReply maps a store reply id to a verdict.
type JudgeReply struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Verdict Verdict `json:"verdict"`
}

// User is the minimal contestant record the engine looks up.
type User struct {
	ID     int64  `json:"id"`
	Handle string `json:"handle"`
}

// Submission is the read-only projection of a stored submission.
type Submission struct {
	ID          int64
	ContestID   int64
	ProblemID   int64
	UserID      int64
	LanguageID  int64
	SubmittedAt time.Time
	JudgedAt    time.Time
	Verdict     Verdict
	RunTime     time.Duration
	MemoryKB    int64
	CodeLength  int64
	Content     string
}

// Attempt is one entry of a contestant's attempt sequence on a problem.
type Attempt struct {
	SubmissionID int64
	SubmittedAt  time.Time
	Verdict      Verdict
}

// ProblemCell is one contestant's result on one problem.
type ProblemCell struct {
	ProblemID         int64         `json:"problem_id"`
	Attempts          int           `json:"attempts"`
	PenalizedAttempts int           `json:"penalized_attempts"`
	Solved            bool          `json:"solved"`
	SolveTime         time.Duration `json:"solve_time"`
	Penalty           time.Duration `json:"penalty"`
	AcceptedAt        time.Time     `json:"accepted_at,omitzero"`
	AcceptedID        int64         `json:"accepted_submission_id,omitempty"`
	FirstSolve        bool          `json:"first_solve"`
	FrozenAttempts    int           `json:"frozen_attempts"`
}

// RankEntry is one contestant's row in a standings table.
type RankEntry struct {
	UserID         int64         `json:"user_id"`
	Rank           int           `json:"rank"`
	Solved         int           `json:"solved"`
	Penalty        time.Duration `json:"penalty"`
	LastAcceptedAt time.Time     `json:"last_accepted_at,omitzero"`
	Submissions    int           `json:"submissions"`
	// SolvedAttempts counts judged attempts up to and including the acceptance,
	// over solved problems only. Resubmitting a solved problem leaves it unchanged.
	SolvedAttempts int           `json:"solved_attempts"`
	Cells          []ProblemCell `json:"cells"`
}

// Mode selects the ranking rules.
type Mode int

const (
	// ModeContest ranks by solved count, penalty and last acceptance time.
	ModeContest Mode = iota
	// ModeProblemset ranks by solved count and attempts on solved problems; time has
	// no meaning.
	ModeProblemset
)

func (m Mode) String() string {
	if m == ModeProblemset {
		return "problemset"
	}
	return "contest"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// View selects which results are visible.
type View int

const (
	// ViewPublic applies the scoreboard freeze.
	ViewPublic View = iota
	// ViewJudge shows the true state.
	ViewJudge
)

func (v View) String() string {
	if v == ViewJudge {
		return "judge"
	}
	return "public"
}

// BuildOptions are the orthogonal knobs of a single rank list build.
type BuildOptions struct {
	Mode Mode
	View View
	// RoleMembers restricts the contestant universe. Nil means everyone.
	RoleMembers mapset.Set[int64]
	// AsOf ignores submissions made at or after this instant. Zero means no cutoff.
	AsOf time.Time
}
