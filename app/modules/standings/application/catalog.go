package standingsservice

import (
	"context"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
)

func (s *StandingsService) ListContests(ctx context.Context) ([]standingsdomain.Contest, error) {
	return withTelemetry(s, ctx, "ListContests", 0, s.catalog.GetAllContests)
}

func (s *StandingsService) ListProblemsets(ctx context.Context) ([]standingsdomain.Contest, error) {
	return withTelemetry(s, ctx, "ListProblemsets", 0, s.catalog.GetAllProblemsets)
}

func (s *StandingsService) ListLanguages(ctx context.Context) ([]standingsdomain.Language, error) {
	return withTelemetry(s, ctx, "ListLanguages", 0, s.catalog.GetAllLanguages)
}

func (s *StandingsService) ListJudgeReplies(ctx context.Context) ([]standingsdomain.JudgeReply, error) {
	return withTelemetry(s, ctx, "ListJudgeReplies", 0, s.catalog.GetAllJudgeReplies)
}
