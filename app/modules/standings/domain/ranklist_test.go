package standingsdomain

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContest(problems ...int64) Contest {
	c := Contest{
		ID:        1,
		Title:     "Spring Warmup",
		StartTime: contestStart,
		EndTime:   contestStart.Add(5 * time.Hour),
	}
	for i, id := range problems {
		c.Problems = append(c.Problems, Problem{ID: id, ContestID: 1, Code: string(rune('A' + i))})
	}
	return c
}

func sub(id, user, problem int64, minutes int, v Verdict) Submission {
	return Submission{
		ID:          id,
		ContestID:   1,
		ProblemID:   problem,
		UserID:      user,
		SubmittedAt: at(minutes),
		Verdict:     v,
	}
}

func build(t *testing.T, contest Contest, policy Policy, opts BuildOptions, subs ...Submission) []RankEntry {
	t.Helper()
	b, err := NewRankListBuilder(contest, policy, opts)
	require.NoError(t, err)
	for _, s := range subs {
		require.NoError(t, b.Add(s))
	}
	return b.Build()
}

func ranksByUser(entries []RankEntry) map[int64]int {
	out := make(map[int64]int, len(entries))
	for _, e := range entries {
		out[e.UserID] = e.Rank
	}
	return out
}

func TestRankListBuilder_ContestOrdering(t *testing.T) {
	contest := testContest(100, 200)

	entries := build(t, contest, DefaultPolicy(), BuildOptions{},
		// user 1: A at 35 after one WA -> 55m; B at 50 -> 50m; total 105m
		sub(1, 1, 100, 10, VerdictWrongAnswer),
		sub(2, 1, 100, 35, VerdictAccepted),
		sub(3, 1, 200, 50, VerdictAccepted),
		// user 2: A at 40, B at 65 -> 105m, last accept later than user 1
		sub(4, 2, 100, 40, VerdictAccepted),
		sub(5, 2, 200, 65, VerdictAccepted),
		// user 3: one problem only
		sub(6, 3, 100, 1, VerdictAccepted),
		// user 4: attempted, solved nothing
		sub(7, 4, 200, 3, VerdictWrongAnswer),
	)

	require.Len(t, entries, 4)
	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{entries[0].UserID, entries[1].UserID, entries[2].UserID, entries[3].UserID})
	assert.Equal(t, []int{1, 2, 3, 4}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank, entries[3].Rank})
	assert.Equal(t, 105*time.Minute, entries[0].Penalty)
	assert.Equal(t, 105*time.Minute, entries[1].Penalty)
	assert.Equal(t, at(50), entries[0].LastAcceptedAt)
	assert.Zero(t, entries[3].Penalty)
	assert.Equal(t, 1, entries[3].Submissions)
}

func TestRankListBuilder_TiesShareRank(t *testing.T) {
	contest := testContest(100)

	entries := build(t, contest, DefaultPolicy(), BuildOptions{},
		sub(1, 10, 100, 30, VerdictAccepted),
		sub(2, 11, 100, 30, VerdictAccepted),
		sub(3, 12, 100, 45, VerdictAccepted),
	)

	assert.Equal(t, map[int64]int{10: 1, 11: 1, 12: 3}, ranksByUser(entries))
	assert.Equal(t, int64(10), entries[0].UserID, "ties are listed by user id")
}

func TestRankListBuilder_FirstSolve(t *testing.T) {
	contest := testContest(100)

	entries := build(t, contest, DefaultPolicy(), BuildOptions{},
		sub(9, 2, 100, 12, VerdictAccepted),
		sub(4, 1, 100, 12, VerdictAccepted),
		sub(5, 3, 100, 20, VerdictAccepted),
	)

	first := map[int64]bool{}
	for _, e := range entries {
		first[e.UserID] = e.Cells[0].FirstSolve
	}
	assert.Equal(t, map[int64]bool{1: true, 2: false, 3: false}, first)
}

func TestRankListBuilder_Freeze(t *testing.T) {
	contest := testContest(100, 200)
	policy := DefaultPolicy()
	policy.FreezeWindow = time.Hour // freeze at minute 240

	subs := []Submission{
		sub(1, 1, 100, 30, VerdictAccepted),
		sub(2, 2, 100, 60, VerdictAccepted),
		sub(3, 2, 200, 250, VerdictWrongAnswer),
		sub(4, 2, 200, 260, VerdictAccepted),
	}

	public := build(t, contest, policy, BuildOptions{View: ViewPublic}, subs...)
	judge := build(t, contest, policy, BuildOptions{View: ViewJudge}, subs...)

	publicUser2, ok := FindEntry(public, 2)
	require.True(t, ok)
	assert.Equal(t, 1, publicUser2.Solved)
	assert.Equal(t, 2, publicUser2.Cells[1].FrozenAttempts)
	assert.Zero(t, publicUser2.Cells[1].Attempts)
	assert.Equal(t, 1, publicUser2.Submissions)
	assert.Equal(t, 2, publicUser2.Rank)

	judgeUser2, ok := FindEntry(judge, 2)
	require.True(t, ok)
	assert.Equal(t, 2, judgeUser2.Solved)
	assert.Equal(t, 1, judgeUser2.Rank)
	assert.Zero(t, judgeUser2.Cells[1].FrozenAttempts)
}

func TestRankListBuilder_FreezeIgnoredWithoutWindow(t *testing.T) {
	contest := testContest(100)

	entries := build(t, contest, DefaultPolicy(), BuildOptions{View: ViewPublic},
		sub(1, 1, 100, 299, VerdictAccepted),
	)
	assert.Equal(t, 1, entries[0].Solved)
}

func TestRankListBuilder_RoleFilter(t *testing.T) {
	contest := testContest(100)
	subs := []Submission{
		sub(1, 1, 100, 50, VerdictAccepted),
		sub(2, 2, 100, 10, VerdictAccepted),
		sub(3, 3, 100, 60, VerdictAccepted),
	}

	all := build(t, contest, DefaultPolicy(), BuildOptions{}, subs...)
	filtered := build(t, contest, DefaultPolicy(), BuildOptions{RoleMembers: mapset.NewSet[int64](1, 3)}, subs...)

	assert.Equal(t, map[int64]int{2: 1, 1: 2, 3: 3}, ranksByUser(all))
	assert.Equal(t, map[int64]int{1: 1, 3: 2}, ranksByUser(filtered))
}

func TestRankListBuilder_EmptyRoleGivesEmptyList(t *testing.T) {
	entries := build(t, testContest(100), DefaultPolicy(), BuildOptions{RoleMembers: mapset.NewSet[int64]()},
		sub(1, 1, 100, 1, VerdictAccepted),
	)
	assert.Empty(t, entries)
}

func TestRankListBuilder_AsOf(t *testing.T) {
	contest := testContest(100)

	entries := build(t, contest, DefaultPolicy(), BuildOptions{View: ViewJudge, AsOf: at(40)},
		sub(1, 1, 100, 39, VerdictWrongAnswer),
		sub(2, 1, 100, 40, VerdictAccepted),
		sub(3, 2, 100, 45, VerdictAccepted),
	)

	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].UserID)
	assert.Zero(t, entries[0].Solved)
}

func TestRankListBuilder_ProblemsetMode(t *testing.T) {
	contest := testContest(100, 200)
	contest.Kind = KindProblemset
	contest.StartTime = time.Time{}

	entries := build(t, contest, DefaultPolicy(), BuildOptions{Mode: ModeProblemset},
		sub(1, 1, 100, 1, VerdictWrongAnswer),
		sub(2, 1, 100, 2, VerdictAccepted),
		sub(3, 1, 200, 3, VerdictAccepted),
		sub(4, 2, 100, 10000, VerdictAccepted),
		sub(5, 2, 200, 10001, VerdictAccepted),
		sub(6, 3, 100, 5, VerdictAccepted),
		sub(7, 3, 200, 6, VerdictPending),
	)

	require.Len(t, entries, 3)
	assert.Equal(t, int64(2), entries[0].UserID, "fewer attempts wins regardless of time")
	assert.Equal(t, 2, entries[0].SolvedAttempts)
	assert.Equal(t, 3, entries[1].SolvedAttempts)
	assert.Equal(t, int64(1), entries[1].UserID)
	assert.Equal(t, int64(3), entries[2].UserID)
	for _, e := range entries {
		assert.Zero(t, e.Penalty)
		assert.True(t, e.LastAcceptedAt.IsZero())
	}
	assert.Equal(t, 1, entries[2].Submissions, "pending submissions are not counted")
}

func TestRankListBuilder_Errors(t *testing.T) {
	contest := testContest(100)

	t.Run("negative penalty", func(t *testing.T) {
		_, err := NewRankListBuilder(contest, Policy{PenaltyPerWrong: -1}, BuildOptions{})
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})

	t.Run("contest without start", func(t *testing.T) {
		c := contest
		c.StartTime = time.Time{}
		_, err := NewRankListBuilder(c, DefaultPolicy(), BuildOptions{})
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})

	t.Run("duplicate problem", func(t *testing.T) {
		_, err := NewRankListBuilder(testContest(100, 100), DefaultPolicy(), BuildOptions{})
		assert.True(t, errors.Is(err, ErrInconsistent))
	})

	tests := []struct {
		name string
		sub  Submission
	}{
		{"foreign contest", Submission{ID: 1, ContestID: 2, ProblemID: 100, Verdict: VerdictAccepted}},
		{"unknown problem", Submission{ID: 1, ContestID: 1, ProblemID: 999, Verdict: VerdictAccepted}},
		{"unknown verdict", Submission{ID: 1, ContestID: 1, ProblemID: 100, Verdict: Verdict(42)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewRankListBuilder(contest, DefaultPolicy(), BuildOptions{})
			require.NoError(t, err)
			assert.True(t, errors.Is(b.Add(tt.sub), ErrInconsistent))
		})
	}

	t.Run("duplicate submission", func(t *testing.T) {
		b, err := NewRankListBuilder(contest, DefaultPolicy(), BuildOptions{})
		require.NoError(t, err)
		require.NoError(t, b.Add(sub(1, 1, 100, 1, VerdictAccepted)))
		assert.True(t, errors.Is(b.Add(sub(1, 1, 100, 1, VerdictAccepted)), ErrInconsistent))
	})
}

func randomSubmissions(seed int64, users, count int, problems []int64) []Submission {
	faker := gofakeit.New(uint64(seed))
	verdicts := Verdicts()

	subs := make([]Submission, 0, count)
	for i := 0; i < count; i++ {
		subs = append(subs, sub(
			int64(i+1),
			int64(faker.Number(1, users)),
			problems[faker.Number(0, len(problems)-1)],
			faker.Number(0, 299),
			verdicts[faker.Number(0, len(verdicts)-1)],
		))
	}
	return subs
}

func TestRankListBuilder_OrderIndependent(t *testing.T) {
	contest := testContest(100, 200, 300)
	policy := DefaultPolicy()
	policy.FreezeWindow = 30 * time.Minute

	for seed := int64(1); seed <= 20; seed++ {
		subs := randomSubmissions(seed, 12, 150, []int64{100, 200, 300})
		want := build(t, contest, policy, BuildOptions{}, subs...)

		shuffled := append([]Submission(nil), subs...)
		gofakeit.New(uint64(seed+1000)).ShuffleAnySlice(shuffled)
		got := build(t, contest, policy, BuildOptions{}, shuffled...)

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("seed %d: rank list depends on input order (-want +got):\n%s", seed, diff)
		}
	}
}

func TestRankListBuilder_Properties(t *testing.T) {
	contest := testContest(100, 200, 300, 400)

	for seed := int64(1); seed <= 20; seed++ {
		subs := randomSubmissions(seed, 15, 200, []int64{100, 200, 300, 400})
		entries := build(t, contest, DefaultPolicy(), BuildOptions{View: ViewJudge}, subs...)

		for i, e := range entries {
			assert.GreaterOrEqual(t, e.Penalty, time.Duration(0))
			assert.GreaterOrEqual(t, e.Rank, 1)
			assert.LessOrEqual(t, e.Rank, i+1)
			if i == 0 {
				assert.Equal(t, 1, e.Rank)
				continue
			}
			prev := entries[i-1]
			assert.GreaterOrEqual(t, prev.Solved, e.Solved, "seed %d", seed)
			assert.LessOrEqual(t, prev.Rank, e.Rank, "seed %d", seed)
			if prev.Solved == e.Solved {
				assert.LessOrEqual(t, prev.Penalty, e.Penalty, "seed %d", seed)
			}
		}
	}
}

func TestRankListBuilder_AcceptanceNeverLowersRank(t *testing.T) {
	problems := []int64{100, 200, 300}
	timed := testContest(problems...)
	untimed := testContest(problems...)
	untimed.Kind = KindProblemset
	untimed.StartTime = time.Time{}

	modes := []struct {
		name    string
		contest Contest
		opts    BuildOptions
	}{
		{"contest", timed, BuildOptions{}},
		{"problemset", untimed, BuildOptions{Mode: ModeProblemset}},
	}
	// extra picks the problem and minute of one more acceptance for entry.
	extras := []struct {
		name  string
		extra func(entry RankEntry) (problem int64, minute int, ok bool)
	}{
		{
			name: "early acceptance of an unsolved problem",
			extra: func(entry RankEntry) (int64, int, bool) {
				for i, cell := range entry.Cells {
					if !cell.Solved {
						return problems[i], 0, true
					}
				}
				return 0, 0, false
			},
		},
		{
			name: "late acceptance of a solved problem",
			extra: func(entry RankEntry) (int64, int, bool) {
				for i, cell := range entry.Cells {
					if cell.Solved {
						return problems[i], 10000, true
					}
				}
				return 0, 0, false
			},
		},
	}

	for _, mode := range modes {
		for _, ex := range extras {
			t.Run(mode.name+"/"+ex.name, func(t *testing.T) {
				for seed := int64(1); seed <= 10; seed++ {
					subs := randomSubmissions(seed, 8, 60, problems)
					before := build(t, mode.contest, DefaultPolicy(), mode.opts, subs...)

					for _, entry := range before {
						problem, minute, ok := ex.extra(entry)
						if !ok {
							continue
						}
						more := append(slices.Clone(subs), sub(5000, entry.UserID, problem, minute, VerdictAccepted))
						after := build(t, mode.contest, DefaultPolicy(), mode.opts, more...)

						updated, found := FindEntry(after, entry.UserID)
						require.True(t, found)
						assert.GreaterOrEqual(t, updated.Solved, entry.Solved, "seed %d user %d", seed, entry.UserID)
						assert.LessOrEqual(t, updated.Rank, entry.Rank, "seed %d user %d", seed, entry.UserID)
					}
				}
			})
		}
	}
}

func TestRankListBuilder_ProblemsetResubmissionKeepsRank(t *testing.T) {
	contest := testContest(100)
	contest.Kind = KindProblemset
	contest.StartTime = time.Time{}
	opts := BuildOptions{Mode: ModeProblemset}

	subs := []Submission{
		sub(1, 10, 100, 1, VerdictAccepted),
		sub(2, 20, 100, 2, VerdictAccepted),
	}
	before := build(t, contest, DefaultPolicy(), opts, subs...)
	after := build(t, contest, DefaultPolicy(), opts, append(subs, sub(3, 10, 100, 3, VerdictAccepted))...)

	assert.Equal(t, map[int64]int{10: 1, 20: 1}, ranksByUser(before))
	assert.Equal(t, ranksByUser(before), ranksByUser(after))

	entry, ok := FindEntry(after, 10)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Submissions)
	assert.Equal(t, 1, entry.SolvedAttempts)
}
