package standingsdb

import (
	"fmt"
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/uptrace/bun"
)

// Contest is a timed contest or, when Problemset is set, an untimed problem archive.
type Contest struct {
	bun.BaseModel `bun:"table:contest,alias:c"`

	ID             int64      `bun:"id,pk,autoincrement"`
	Title          string     `bun:"title,notnull"`
	Problemset     bool       `bun:"problemset,notnull,default:false"`
	StartTime      time.Time  `bun:"start_time,nullzero"`
	EndTime        time.Time  `bun:"end_time,nullzero"`
	PenaltyMinutes *int64     `bun:"penalty_minutes"`
	FreezeMinutes  *int64     `bun:"freeze_minutes"`
	Active         bool       `bun:"active,notnull,default:true"`
	Problems       []*Problem `bun:"rel:has-many,join:id=contest_id"`
}

type Problem struct {
	bun.BaseModel `bun:"table:problem,alias:p"`

	ID        int64  `bun:"id,pk,autoincrement"`
	ContestID int64  `bun:"contest_id,notnull"`
	Code      string `bun:"code,notnull"`
	Title     string `bun:"title,notnull"`
	Sequence  int    `bun:"sequence,notnull,default:0"`
	Active    bool   `bun:"active,notnull,default:true"`
}

type Language struct {
	bun.BaseModel `bun:"table:language,alias:l"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Name      string `bun:"name,notnull"`
	Compiler  string `bun:"compiler"`
	Extension string `bun:"extension"`
}

// JudgeReply is a catalog entry; Code holds the verdict code ("AC", "WA", ...).
type JudgeReply struct {
	bun.BaseModel `bun:"table:judge_reply,alias:jr"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
	Code string `bun:"code,notnull"`
}

type Submission struct {
	bun.BaseModel `bun:"table:submission,alias:s"`

	ID                int64     `bun:"id,pk,autoincrement"`
	ProblemID         int64     `bun:"problem_id,notnull"`
	UserProfileID     int64     `bun:"user_profile_id,notnull"`
	ContestID         int64     `bun:"contest_id,notnull"`
	LanguageID        int64     `bun:"language_id,notnull"`
	JudgeReplyID      int64     `bun:"judge_reply_id,notnull"`
	SubmissionDate    time.Time `bun:"submission_date,notnull"`
	JudgeDate         time.Time `bun:"judge_date,nullzero"`
	TimeConsumption   int64     `bun:"time_consumption,notnull,default:0"`
	MemoryConsumption int64     `bun:"memory_consumption,notnull,default:0"`
	CodeLength        int64     `bun:"code_length,notnull,default:0"`
	Content           string    `bun:"content,nullzero"`

	JudgeReply *JudgeReply `bun:"rel:belongs-to,join:judge_reply_id=id"`
}

type UserProfile struct {
	bun.BaseModel `bun:"table:user_profile,alias:u"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Handle string `bun:"handle,notnull,unique"`
	Active bool   `bun:"active,notnull,default:true"`
}

type Role struct {
	bun.BaseModel `bun:"table:role,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type UserRole struct {
	bun.BaseModel `bun:"table:user_role,alias:ur"`

	UserProfileID int64 `bun:"user_profile_id,pk"`
	RoleID        int64 `bun:"role_id,pk"`
}

func minutesPtr(m *int64) *time.Duration {
	if m == nil {
		return nil
	}
	d := time.Duration(*m) * time.Minute
	return &d
}

func (c *Contest) toDomain() standingsdomain.Contest {
	out := standingsdomain.Contest{
		ID:              c.ID,
		Title:           c.Title,
		Kind:            standingsdomain.KindContest,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		PenaltyPerWrong: minutesPtr(c.PenaltyMinutes),
		FreezeWindow:    minutesPtr(c.FreezeMinutes),
		Problems:        make([]standingsdomain.Problem, 0, len(c.Problems)),
	}
	if c.Problemset {
		out.Kind = standingsdomain.KindProblemset
	}
	for _, p := range c.Problems {
		out.Problems = append(out.Problems, p.toDomain())
	}
	return out
}

func (p *Problem) toDomain() standingsdomain.Problem {
	return standingsdomain.Problem{ID: p.ID, ContestID: p.ContestID, Code: p.Code, Title: p.Title}
}

func (l *Language) toDomain() standingsdomain.Language {
	return standingsdomain.Language{ID: l.ID, Name: l.Name, Compiler: l.Compiler, Extension: l.Extension}
}

func (r *JudgeReply) toDomain() (standingsdomain.JudgeReply, error) {
	v, err := standingsdomain.ParseVerdict(r.Code)
	if err != nil {
		return standingsdomain.JudgeReply{}, fmt.Errorf("judge reply %d: %w", r.ID, err)
	}
	return standingsdomain.JudgeReply{ID: r.ID, Name: r.Name, Verdict: v}, nil
}

func (s *Submission) toDomain() (standingsdomain.Submission, error) {
	if s.JudgeReply == nil {
		return standingsdomain.Submission{}, fmt.Errorf("%w: submission %d has no judge reply %d", standingsdomain.ErrInconsistent, s.ID, s.JudgeReplyID)
	}
	v, err := standingsdomain.ParseVerdict(s.JudgeReply.Code)
	if err != nil {
		return standingsdomain.Submission{}, fmt.Errorf("submission %d: %w", s.ID, err)
	}
	return standingsdomain.Submission{
		ID:          s.ID,
		ContestID:   s.ContestID,
		ProblemID:   s.ProblemID,
		UserID:      s.UserProfileID,
		LanguageID:  s.LanguageID,
		SubmittedAt: s.SubmissionDate,
		JudgedAt:    s.JudgeDate,
		Verdict:     v,
		RunTime:     time.Duration(s.TimeConsumption) * time.Millisecond,
		MemoryKB:    s.MemoryConsumption,
		CodeLength:  s.CodeLength,
		Content:     s.Content,
	}, nil
}
