package standingsdomain

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// RankListBuilder turns a contest's submissions into an ordered standings table.
//
// Submissions are fed one at a time with Add, in any order, so a caller can page
// through a large contest without holding the full submission set. Build scores every
// (contestant, problem) pair, aggregates per contestant, sorts and assigns ranks.
// The public and judge views, role filtering and the as-of cutoff are options of the
// same build, not separate code paths.
type RankListBuilder struct {
	contest      Contest
	policy       Policy
	opts         BuildOptions
	freezeAt     time.Time
	problemIndex map[int64]int

	attempts    map[int64][][]Attempt
	frozen      map[int64][]int
	submissions map[int64]int
	seen        map[int64]struct{}
}

// NewRankListBuilder prepares a build for one contest.
func NewRankListBuilder(contest Contest, policy Policy, opts BuildOptions) (*RankListBuilder, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if opts.Mode == ModeContest && contest.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: contest %d has no start time", ErrInvalidArgument, contest.ID)
	}

	index := make(map[int64]int, len(contest.Problems))
	for i, p := range contest.Problems {
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("%w: problem %d listed twice in contest %d", ErrInconsistent, p.ID, contest.ID)
		}
		index[p.ID] = i
	}

	b := &RankListBuilder{
		contest:      contest,
		policy:       policy,
		opts:         opts,
		problemIndex: index,
		attempts:     make(map[int64][][]Attempt),
		frozen:       make(map[int64][]int),
		submissions:  make(map[int64]int),
		seen:         make(map[int64]struct{}),
	}
	if opts.Mode == ModeContest && opts.View == ViewPublic {
		b.freezeAt = contest.FreezeAt(policy.FreezeWindow)
	}
	return b, nil
}

// FreezeAt is the public cutoff this build applies, zero when unfrozen.
func (b *RankListBuilder) FreezeAt() time.Time {
	return b.freezeAt
}

// Add records one submission. Each submission must be added at most once per build.
func (b *RankListBuilder) Add(sub Submission) error {
	if sub.ContestID != b.contest.ID {
		return fmt.Errorf("%w: submission %d belongs to contest %d, not %d", ErrInconsistent, sub.ID, sub.ContestID, b.contest.ID)
	}
	idx, ok := b.problemIndex[sub.ProblemID]
	if !ok {
		return fmt.Errorf("%w: submission %d references problem %d outside contest %d", ErrInconsistent, sub.ID, sub.ProblemID, b.contest.ID)
	}
	if !sub.Verdict.Valid() {
		return fmt.Errorf("%w: submission %d has unknown verdict %d", ErrInconsistent, sub.ID, int(sub.Verdict))
	}
	if _, dup := b.seen[sub.ID]; dup {
		return fmt.Errorf("%w: submission %d read twice in one build", ErrInconsistent, sub.ID)
	}
	b.seen[sub.ID] = struct{}{}

	if b.opts.RoleMembers != nil && !b.opts.RoleMembers.Contains(sub.UserID) {
		return nil
	}
	if !b.opts.AsOf.IsZero() && !sub.SubmittedAt.Before(b.opts.AsOf) {
		return nil
	}

	rows, ok := b.attempts[sub.UserID]
	if !ok {
		rows = make([][]Attempt, len(b.contest.Problems))
		b.attempts[sub.UserID] = rows
		b.frozen[sub.UserID] = make([]int, len(b.contest.Problems))
	}

	if !b.freezeAt.IsZero() && !sub.SubmittedAt.Before(b.freezeAt) {
		b.frozen[sub.UserID][idx]++
		return nil
	}

	if sub.Verdict.IsFinal() {
		b.submissions[sub.UserID]++
	}
	rows[idx] = append(rows[idx], Attempt{
		SubmissionID: sub.ID,
		SubmittedAt:  sub.SubmittedAt,
		Verdict:      sub.Verdict,
	})
	return nil
}

// Build scores, sorts and ranks everything added so far.
func (b *RankListBuilder) Build() []RankEntry {
	entries := make([]RankEntry, 0, len(b.attempts))

	for userID, rows := range b.attempts {
		entry := RankEntry{
			UserID:      userID,
			Submissions: b.submissions[userID],
			Cells:       make([]ProblemCell, len(b.contest.Problems)),
		}

		for i, p := range b.contest.Problems {
			attempts := rows[i]
			SortAttempts(attempts)

			var cell ProblemCell
			if b.opts.Mode == ModeProblemset {
				cell = ScoreUntimed(p.ID, attempts)
			} else {
				cell = Score(p.ID, b.contest.StartTime, attempts, b.policy)
			}
			cell.FrozenAttempts = b.frozen[userID][i]

			if cell.Solved {
				entry.Solved++
				entry.SolvedAttempts += cell.Attempts
				if b.opts.Mode == ModeContest {
					entry.Penalty += cell.Penalty
				}
				if cell.AcceptedAt.After(entry.LastAcceptedAt) {
					entry.LastAcceptedAt = cell.AcceptedAt
				}
			}
			entry.Cells[i] = cell
		}

		if b.opts.Mode == ModeProblemset {
			entry.LastAcceptedAt = time.Time{}
		}
		entries = append(entries, entry)
	}

	markFirstSolves(entries, len(b.contest.Problems))
	SortRankEntries(entries, b.opts.Mode)
	AssignRanks(entries, b.opts.Mode)
	return entries
}

func markFirstSolves(entries []RankEntry, problems int) {
	for i := 0; i < problems; i++ {
		best := -1
		for e := range entries {
			cell := entries[e].Cells[i]
			if !cell.Solved {
				continue
			}
			if best < 0 {
				best = e
				continue
			}
			cur := entries[best].Cells[i]
			if c := cell.AcceptedAt.Compare(cur.AcceptedAt); c < 0 || (c == 0 && cell.AcceptedID < cur.AcceptedID) {
				best = e
			}
		}
		if best >= 0 {
			entries[best].Cells[i].FirstSolve = true
		}
	}
}

// compareStanding orders entries by the ranking key only, ignoring the user id.
func compareStanding(a, b RankEntry, mode Mode) int {
	if c := cmp.Compare(b.Solved, a.Solved); c != 0 {
		return c
	}
	if mode == ModeProblemset {
		return cmp.Compare(a.SolvedAttempts, b.SolvedAttempts)
	}
	if c := cmp.Compare(a.Penalty, b.Penalty); c != 0 {
		return c
	}
	return a.LastAcceptedAt.Compare(b.LastAcceptedAt)
}

// SortRankEntries orders entries best first, breaking remaining ties by user id.
func SortRankEntries(entries []RankEntry, mode Mode) {
	slices.SortFunc(entries, func(a, b RankEntry) int {
		if c := compareStanding(a, b, mode); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
}

// AssignRanks applies competition ranking to sorted entries: tied entries share a
// rank and the next group starts at its 1-based position (1, 1, 3).
func AssignRanks(entries []RankEntry, mode Mode) {
	for i := range entries {
		if i > 0 && compareStanding(entries[i-1], entries[i], mode) == 0 {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// FindEntry returns the row of userID in a built rank list.
func FindEntry(entries []RankEntry, userID int64) (RankEntry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return RankEntry{}, false
}
