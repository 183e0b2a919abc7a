package standingsservice

import (
	"context"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
)

// Service defines the read-side contract of the standings engine.
type Service interface {
	// --- RANK LISTS ---

	GetRankList(ctx context.Context, req RankListRequest) (*RankList, error)
	GetProblemsetRankList(ctx context.Context, problemsetID int64, offset, count int) (*RankListPage, error)
	// GetRankListEntry selects one row of the same build GetRankList returns.
	GetRankListEntry(ctx context.Context, req RankListRequest, userID int64) (standingsdomain.RankEntry, error)

	// --- STATISTICS ---

	GetContestStatistics(ctx context.Context, contestID int64) (*standingsdomain.ContestStatistics, error)
	GetProblemStatistics(ctx context.Context, problemID int64, orderBy string, count int) (*standingsdomain.ProblemStatistics, error)
	GetUserStatistics(ctx context.Context, contestID, userID int64) (*standingsdomain.UserStatistics, error)

	// --- CATALOG ---

	ListContests(ctx context.Context) ([]standingsdomain.Contest, error)
	ListProblemsets(ctx context.Context) ([]standingsdomain.Contest, error)
	ListLanguages(ctx context.Context) ([]standingsdomain.Language, error)
	ListJudgeReplies(ctx context.Context) ([]standingsdomain.JudgeReply, error)

	// --- EXPORTS ---

	ExportRankListXLSX(ctx context.Context, req RankListRequest) ([]byte, error)
	RenderContestStatisticsChart(ctx context.Context, contestID int64) ([]byte, error)

	// --- CACHE ---

	// Invalidate drops every cached view of a contest. Write-side notifications call it.
	Invalidate(ctx context.Context, contestID int64) error
	// InvalidateAll drops every cached view.
	InvalidateAll(ctx context.Context) error
	// WarmRankLists rebuilds the cached public and judge rank lists of a contest.
	WarmRankLists(ctx context.Context, contestID int64) error
}
