package standingsservice

import (
	"bytes"
	"context"
	"testing"
	"time"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGetContestStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{},
		submission(1, testContestID, 10, 101, 10, standingsdomain.VerdictWrongAnswer),
		submission(2, testContestID, 10, 101, 20, standingsdomain.VerdictAccepted),
		submission(3, testContestID, 20, 101, 30, standingsdomain.VerdictAccepted),
		submission(4, testContestID, 20, 102, 40, standingsdomain.VerdictTimeLimitExceeded),
	)

	stats, err := f.service.GetContestStatistics(ctx, testContestID)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByVerdict[standingsdomain.VerdictAccepted])
	assert.Equal(t, 4, stats.ByLanguage[1])
	require.Len(t, stats.Problems, 2)
	assert.Equal(t, 3, stats.Problems[0].Total)
	assert.Equal(t, 2, stats.Problems[0].Solvers)
	assert.Equal(t, 1, stats.Problems[1].Triers)
	assert.Zero(t, stats.Problems[1].Solvers)

	again, err := f.service.GetContestStatistics(ctx, testContestID)
	require.NoError(t, err)
	assert.Same(t, stats, again)
	assert.Equal(t, 1, searchCalls(f.feed.Trace()))
}

func TestGetContestStatistics_UnknownLanguage(t *testing.T) {
	s := submission(1, testContestID, 10, 101, 10, standingsdomain.VerdictAccepted)
	s.LanguageID = 42
	f := newFixture(t, Options{}, s)

	_, err := f.service.GetContestStatistics(context.Background(), testContestID)
	assert.ErrorIs(t, err, standingsdomain.ErrInconsistent)
}

func TestGetProblemStatistics(t *testing.T) {
	ctx := context.Background()
	fast := submission(1, testContestID, 10, 101, 10, standingsdomain.VerdictAccepted)
	fast.RunTime = 15
	slow := submission(2, testContestID, 20, 101, 12, standingsdomain.VerdictAccepted)
	slow.RunTime = 90
	other := submission(3, testContestID, 30, 102, 5, standingsdomain.VerdictAccepted)
	f := newFixture(t, Options{}, fast, slow, other)

	stats, err := f.service.GetProblemStatistics(ctx, 101, "time", 10)
	require.NoError(t, err)
	require.Len(t, stats.Top, 2)
	assert.Equal(t, int64(10), stats.Top[0].UserID)
	assert.Equal(t, int64(20), stats.Top[1].UserID)

	top, err := f.service.GetProblemStatistics(ctx, 101, "time", 1)
	require.NoError(t, err)
	assert.Len(t, top.Top, 1)
}

func TestGetProblemStatistics_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.service.GetProblemStatistics(ctx, 101, "elegance", 10)
	assert.ErrorIs(t, err, standingsdomain.ErrInvalidArgument)

	_, err = f.service.GetProblemStatistics(ctx, 101, "time", 0)
	assert.ErrorIs(t, err, standingsdomain.ErrInvalidArgument)

	_, err = f.service.GetProblemStatistics(ctx, 999, "time", 10)
	assert.ErrorIs(t, err, standingsdomain.ErrNotFound)

	assert.Zero(t, searchCalls(f.feed.Trace()))
}

func TestGetUserStatistics_MissingUser(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.service.GetUserStatistics(context.Background(), testContestID, 55)
	assert.ErrorIs(t, err, standingsdomain.ErrNotFound)
}

func TestListCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	contests, err := f.service.ListContests(ctx)
	require.NoError(t, err)
	require.Len(t, contests, 1)
	assert.Equal(t, testContestID, contests[0].ID)

	sets, err := f.service.ListProblemsets(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, testProblemsetID, sets[0].ID)

	languages, err := f.service.ListLanguages(ctx)
	require.NoError(t, err)
	assert.Len(t, languages, 2)

	replies, err := f.service.ListJudgeReplies(ctx)
	require.NoError(t, err)
	assert.Len(t, replies, len(standingsdomain.Verdicts()))
}

func TestExportRankListXLSX(t *testing.T) {
	f := newFixture(t, Options{},
		submission(1, testContestID, 10, 101, 10, standingsdomain.VerdictWrongAnswer),
		submission(2, testContestID, 10, 101, 25, standingsdomain.VerdictAccepted),
		submission(3, testContestID, 10, 102, 30, standingsdomain.VerdictRuntimeError),
	)

	data, err := f.service.ExportRankListXLSX(context.Background(), RankListRequest{ContestID: testContestID})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(rankListSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Rank", "User", "Solved", "Penalty", "A", "B"}, rows[0])
	assert.Equal(t, []string{"1", "10", "1", "45", "+1 (25)", "-1"}, rows[1])
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		cell standingsdomain.ProblemCell
		mode standingsdomain.Mode
		want string
	}{
		{"untouched", standingsdomain.ProblemCell{}, standingsdomain.ModeContest, ""},
		{"clean solve", standingsdomain.ProblemCell{Solved: true, Attempts: 1, SolveTime: 35 * time.Minute}, standingsdomain.ModeContest, "+ (35)"},
		{"solve after rejections", standingsdomain.ProblemCell{Solved: true, Attempts: 3}, standingsdomain.ModeProblemset, "+2"},
		{"rejected", standingsdomain.ProblemCell{Attempts: 3}, standingsdomain.ModeContest, "-3"},
		{"frozen only", standingsdomain.ProblemCell{FrozenAttempts: 2}, standingsdomain.ModeContest, "?2"},
		{"rejected then frozen", standingsdomain.ProblemCell{Attempts: 1, FrozenAttempts: 1}, standingsdomain.ModeContest, "-1 ?1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.cell, tt.mode))
		})
	}
}

func TestRenderContestStatisticsChart(t *testing.T) {
	pngMagic := []byte("\x89PNG\r\n\x1a\n")

	f := newFixture(t, Options{},
		submission(1, testContestID, 10, 101, 10, standingsdomain.VerdictWrongAnswer),
		submission(2, testContestID, 10, 101, 25, standingsdomain.VerdictAccepted),
	)
	img, err := f.service.RenderContestStatisticsChart(context.Background(), testContestID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	empty, err := GenerateContestStatisticsChart(&standingsdomain.ContestStatistics{}, nil, DefaultChartPalette)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, pngMagic))
}
