package standingsevents

import "time"

// Stream holds every standings subject.
const (
	StreamName     = "standings"
	StreamSubjects = "standings.>"
)

// Inbound write-side notifications.
const (
	SubmissionCreatedV1  = "standings.submission.created.v1"
	SubmissionJudgedV1   = "standings.submission.judged.v1"
	SubmissionRejudgedV1 = "standings.submission.rejudged.v1"
)

// ContestInvalidatedV1 is published after a contest's cached views were dropped.
const ContestInvalidatedV1 = "standings.contest.invalidated.v1"

// SubmissionTopics lists the topics that invalidate standings.
func SubmissionTopics() []string {
	return []string{SubmissionCreatedV1, SubmissionJudgedV1, SubmissionRejudgedV1}
}

// SubmissionEventPayloadV1 describes a submission that was stored or (re)judged.
type SubmissionEventPayloadV1 struct {
	ContestID    int64     `json:"contest_id"`
	SubmissionID int64     `json:"submission_id"`
	ProblemID    int64     `json:"problem_id"`
	UserID       int64     `json:"user_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ContestInvalidatedPayloadV1 announces that fresh standings are being built.
type ContestInvalidatedPayloadV1 struct {
	ContestID int64     `json:"contest_id"`
	Source    string    `json:"source"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}
