package standingshttp

import (
	"context"

	standingsservice "github.com/Black-And-White-Club/judge-standings/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
)

// FakeService implements standingsservice.Service for handler tests.
type FakeService struct {
	trace []string

	GetRankListFunc                  func(ctx context.Context, req standingsservice.RankListRequest) (*standingsservice.RankList, error)
	GetProblemsetRankListFunc        func(ctx context.Context, problemsetID int64, offset, count int) (*standingsservice.RankListPage, error)
	GetRankListEntryFunc             func(ctx context.Context, req standingsservice.RankListRequest, userID int64) (standingsdomain.RankEntry, error)
	GetContestStatisticsFunc         func(ctx context.Context, contestID int64) (*standingsdomain.ContestStatistics, error)
	GetProblemStatisticsFunc         func(ctx context.Context, problemID int64, orderBy string, count int) (*standingsdomain.ProblemStatistics, error)
	GetUserStatisticsFunc            func(ctx context.Context, contestID, userID int64) (*standingsdomain.UserStatistics, error)
	ListContestsFunc                 func(ctx context.Context) ([]standingsdomain.Contest, error)
	ListProblemsetsFunc              func(ctx context.Context) ([]standingsdomain.Contest, error)
	ListLanguagesFunc                func(ctx context.Context) ([]standingsdomain.Language, error)
	ListJudgeRepliesFunc             func(ctx context.Context) ([]standingsdomain.JudgeReply, error)
	ExportRankListXLSXFunc           func(ctx context.Context, req standingsservice.RankListRequest) ([]byte, error)
	RenderContestStatisticsChartFunc func(ctx context.Context, contestID int64) ([]byte, error)
	InvalidateFunc                   func(ctx context.Context, contestID int64) error
	InvalidateAllFunc                func(ctx context.Context) error
	WarmRankListsFunc                func(ctx context.Context, contestID int64) error
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	return f.trace
}

func (f *FakeService) GetRankList(ctx context.Context, req standingsservice.RankListRequest) (*standingsservice.RankList, error) {
	f.record("GetRankList")
	if f.GetRankListFunc != nil {
		return f.GetRankListFunc(ctx, req)
	}
	return &standingsservice.RankList{Entries: []standingsdomain.RankEntry{}}, nil
}

func (f *FakeService) GetProblemsetRankList(ctx context.Context, problemsetID int64, offset, count int) (*standingsservice.RankListPage, error) {
	f.record("GetProblemsetRankList")
	if f.GetProblemsetRankListFunc != nil {
		return f.GetProblemsetRankListFunc(ctx, problemsetID, offset, count)
	}
	return &standingsservice.RankListPage{ProblemsetID: problemsetID, Offset: offset}, nil
}

func (f *FakeService) GetRankListEntry(ctx context.Context, req standingsservice.RankListRequest, userID int64) (standingsdomain.RankEntry, error) {
	f.record("GetRankListEntry")
	if f.GetRankListEntryFunc != nil {
		return f.GetRankListEntryFunc(ctx, req, userID)
	}
	return standingsdomain.RankEntry{UserID: userID}, nil
}

func (f *FakeService) GetContestStatistics(ctx context.Context, contestID int64) (*standingsdomain.ContestStatistics, error) {
	f.record("GetContestStatistics")
	if f.GetContestStatisticsFunc != nil {
		return f.GetContestStatisticsFunc(ctx, contestID)
	}
	return &standingsdomain.ContestStatistics{ContestID: contestID}, nil
}

func (f *FakeService) GetProblemStatistics(ctx context.Context, problemID int64, orderBy string, count int) (*standingsdomain.ProblemStatistics, error) {
	f.record("GetProblemStatistics")
	if f.GetProblemStatisticsFunc != nil {
		return f.GetProblemStatisticsFunc(ctx, problemID, orderBy, count)
	}
	return &standingsdomain.ProblemStatistics{ProblemID: problemID}, nil
}

func (f *FakeService) GetUserStatistics(ctx context.Context, contestID, userID int64) (*standingsdomain.UserStatistics, error) {
	f.record("GetUserStatistics")
	if f.GetUserStatisticsFunc != nil {
		return f.GetUserStatisticsFunc(ctx, contestID, userID)
	}
	return &standingsdomain.UserStatistics{ContestID: contestID, UserID: userID}, nil
}

func (f *FakeService) ListContests(ctx context.Context) ([]standingsdomain.Contest, error) {
	f.record("ListContests")
	if f.ListContestsFunc != nil {
		return f.ListContestsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) ListProblemsets(ctx context.Context) ([]standingsdomain.Contest, error) {
	f.record("ListProblemsets")
	if f.ListProblemsetsFunc != nil {
		return f.ListProblemsetsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) ListLanguages(ctx context.Context) ([]standingsdomain.Language, error) {
	f.record("ListLanguages")
	if f.ListLanguagesFunc != nil {
		return f.ListLanguagesFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) ListJudgeReplies(ctx context.Context) ([]standingsdomain.JudgeReply, error) {
	f.record("ListJudgeReplies")
	if f.ListJudgeRepliesFunc != nil {
		return f.ListJudgeRepliesFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) ExportRankListXLSX(ctx context.Context, req standingsservice.RankListRequest) ([]byte, error) {
	f.record("ExportRankListXLSX")
	if f.ExportRankListXLSXFunc != nil {
		return f.ExportRankListXLSXFunc(ctx, req)
	}
	return []byte("xlsx"), nil
}

func (f *FakeService) RenderContestStatisticsChart(ctx context.Context, contestID int64) ([]byte, error) {
	f.record("RenderContestStatisticsChart")
	if f.RenderContestStatisticsChartFunc != nil {
		return f.RenderContestStatisticsChartFunc(ctx, contestID)
	}
	return []byte("png"), nil
}

func (f *FakeService) Invalidate(ctx context.Context, contestID int64) error {
	f.record("Invalidate")
	if f.InvalidateFunc != nil {
		return f.InvalidateFunc(ctx, contestID)
	}
	return nil
}

func (f *FakeService) InvalidateAll(ctx context.Context) error {
	f.record("InvalidateAll")
	if f.InvalidateAllFunc != nil {
		return f.InvalidateAllFunc(ctx)
	}
	return nil
}

func (f *FakeService) WarmRankLists(ctx context.Context, contestID int64) error {
	f.record("WarmRankLists")
	if f.WarmRankListsFunc != nil {
		return f.WarmRankListsFunc(ctx, contestID)
	}
	return nil
}

var _ standingsservice.Service = (*FakeService)(nil)
