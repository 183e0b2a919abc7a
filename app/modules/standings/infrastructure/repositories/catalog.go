package standingsdb

import (
	"context"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	"github.com/uptrace/bun"
)

// CatalogImpl implements Catalog using Bun ORM.
type CatalogImpl struct {
	db bun.IDB
}

// NewCatalog creates a new contest/problem/language catalog.
func NewCatalog(db bun.IDB) Catalog {
	return &CatalogImpl{db: db}
}

func orderedProblems(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("p.active = TRUE").Order("p.sequence ASC", "p.id ASC")
}

// GetContest loads a contest or problemset with its problems in display order.
func (r *CatalogImpl) GetContest(ctx context.Context, id int64) (standingsdomain.Contest, error) {
	contest := new(Contest)
	err := r.db.NewSelect().
		Model(contest).
		Relation("Problems", orderedProblems).
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		return standingsdomain.Contest{}, storeError(fmt.Sprintf("failed to get contest %d", id), err)
	}
	return contest.toDomain(), nil
}

func (r *CatalogImpl) listContests(ctx context.Context, problemset bool) ([]standingsdomain.Contest, error) {
	var contests []*Contest
	err := r.db.NewSelect().
		Model(&contests).
		Relation("Problems", orderedProblems).
		Where("c.problemset = ?", problemset).
		Where("c.active = TRUE").
		OrderExpr("c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError("failed to list contests", err)
	}

	out := make([]standingsdomain.Contest, 0, len(contests))
	for _, c := range contests {
		out = append(out, c.toDomain())
	}
	return out, nil
}

// GetAllContests lists active timed contests.
func (r *CatalogImpl) GetAllContests(ctx context.Context) ([]standingsdomain.Contest, error) {
	return r.listContests(ctx, false)
}

// GetAllProblemsets lists active problem archives.
func (r *CatalogImpl) GetAllProblemsets(ctx context.Context) ([]standingsdomain.Contest, error) {
	return r.listContests(ctx, true)
}

func (r *CatalogImpl) GetProblem(ctx context.Context, id int64) (standingsdomain.Problem, error) {
	problem := new(Problem)
	if err := r.db.NewSelect().Model(problem).Where("p.id = ?", id).Scan(ctx); err != nil {
		return standingsdomain.Problem{}, storeError(fmt.Sprintf("failed to get problem %d", id), err)
	}
	return problem.toDomain(), nil
}

func (r *CatalogImpl) GetAllLanguages(ctx context.Context) ([]standingsdomain.Language, error) {
	var languages []*Language
	if err := r.db.NewSelect().Model(&languages).OrderExpr("l.id ASC").Scan(ctx); err != nil {
		return nil, storeError("failed to list languages", err)
	}
	out := make([]standingsdomain.Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, l.toDomain())
	}
	return out, nil
}

func (r *CatalogImpl) GetLanguage(ctx context.Context, id int64) (standingsdomain.Language, error) {
	language := new(Language)
	if err := r.db.NewSelect().Model(language).Where("l.id = ?", id).Scan(ctx); err != nil {
		return standingsdomain.Language{}, storeError(fmt.Sprintf("failed to get language %d", id), err)
	}
	return language.toDomain(), nil
}

// GetAllJudgeReplies returns the verdict catalog. A reply with an unknown code is ErrInconsistent.
func (r *CatalogImpl) GetAllJudgeReplies(ctx context.Context) ([]standingsdomain.JudgeReply, error) {
	var replies []*JudgeReply
	if err := r.db.NewSelect().Model(&replies).OrderExpr("jr.id ASC").Scan(ctx); err != nil {
		return nil, storeError("failed to list judge replies", err)
	}
	out := make([]standingsdomain.JudgeReply, 0, len(replies))
	for _, jr := range replies {
		reply, err := jr.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, reply)
	}
	return out, nil
}

func (r *CatalogImpl) GetJudgeReply(ctx context.Context, id int64) (standingsdomain.JudgeReply, error) {
	reply := new(JudgeReply)
	if err := r.db.NewSelect().Model(reply).Where("jr.id = ?", id).Scan(ctx); err != nil {
		return standingsdomain.JudgeReply{}, storeError(fmt.Sprintf("failed to get judge reply %d", id), err)
	}
	return reply.toDomain()
}
