package standingsdomain

import (
	"cmp"
	"slices"
	"time"
)

// SortAttempts orders attempts by submission time, then submission id.
func SortAttempts(attempts []Attempt) {
	slices.SortStableFunc(attempts, func(a, b Attempt) int {
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SubmissionID, b.SubmissionID)
	})
}

// Score computes a contestant's cell for one problem of a timed contest.
//
// Attempts must already be in submission order. Pending attempts are skipped.
// Scanning stops at the first acceptance: later submissions never change the cell.
// A solved cell's penalty is its solve time plus PenaltyPerWrong for every penalized
// attempt before the acceptance; an unsolved cell carries no penalty.
func Score(problemID int64, start time.Time, attempts []Attempt, policy Policy) ProblemCell {
	cell := ProblemCell{ProblemID: problemID}

	for _, a := range attempts {
		if !a.Verdict.IsFinal() {
			continue
		}
		cell.Attempts++

		if a.Verdict.IsSolved() {
			cell.Solved = true
			cell.AcceptedAt = a.SubmittedAt
			cell.AcceptedID = a.SubmissionID
			cell.SolveTime = max(a.SubmittedAt.Sub(start), 0)
			cell.Penalty = cell.SolveTime + time.Duration(cell.PenalizedAttempts)*policy.PenaltyPerWrong
			return cell
		}

		if policy.IsPenalized(a.Verdict) {
			cell.PenalizedAttempts++
		}
	}

	return cell
}

// ScoreUntimed computes a problemset cell: solved or not, with attempt counts only.
func ScoreUntimed(problemID int64, attempts []Attempt) ProblemCell {
	cell := ProblemCell{ProblemID: problemID}

	for _, a := range attempts {
		if !a.Verdict.IsFinal() {
			continue
		}
		cell.Attempts++
		if a.Verdict.IsSolved() {
			cell.Solved = true
			cell.AcceptedAt = a.SubmittedAt
			cell.AcceptedID = a.SubmissionID
			return cell
		}
	}

	return cell
}
