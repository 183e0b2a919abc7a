package standingsmigrations

import (
	"context"
	"fmt"

	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
	"github.com/uptrace/bun"
)

var judgeReplies = []standingsdb.JudgeReply{
	{ID: 1, Name: "Queuing", Code: "PD"},
	{ID: 2, Name: "Accepted", Code: "AC"},
	{ID: 3, Name: "Presentation Error", Code: "PE"},
	{ID: 4, Name: "Wrong Answer", Code: "WA"},
	{ID: 5, Name: "Time Limit Exceeded", Code: "TLE"},
	{ID: 6, Name: "Memory Limit Exceeded", Code: "MLE"},
	{ID: 7, Name: "Output Limit Exceeded", Code: "OLE"},
	{ID: 8, Name: "Runtime Error", Code: "RE"},
	{ID: 9, Name: "Segmentation Fault", Code: "SF"},
	{ID: 10, Name: "Floating Point Error", Code: "FPE"},
	{ID: 11, Name: "Restricted Function", Code: "RF"},
	{ID: 12, Name: "Compilation Error", Code: "CE"},
	{ID: 13, Name: "Skipped", Code: "SK"},
	{ID: 14, Name: "System Error", Code: "SE"},
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating judge tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			models := []interface{}{
				(*standingsdb.Contest)(nil),
				(*standingsdb.Problem)(nil),
				(*standingsdb.Language)(nil),
				(*standingsdb.JudgeReply)(nil),
				(*standingsdb.UserProfile)(nil),
				(*standingsdb.Role)(nil),
				(*standingsdb.UserRole)(nil),
				(*standingsdb.Submission)(nil),
			}
			for _, model := range models {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table for %T: %w", model, err)
				}
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_submission_contest_id ON submission(contest_id, id);
				CREATE INDEX IF NOT EXISTS idx_submission_problem_id ON submission(problem_id, id);
				CREATE INDEX IF NOT EXISTS idx_submission_user_contest ON submission(user_profile_id, contest_id, id);
				CREATE INDEX IF NOT EXISTS idx_problem_contest_id ON problem(contest_id, sequence);
				CREATE INDEX IF NOT EXISTS idx_user_role_role_id ON user_role(role_id);
			`); err != nil {
				return fmt.Errorf("failed to create submission indexes: %w", err)
			}

			if _, err := tx.NewInsert().Model(&judgeReplies).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("failed to seed judge replies: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping judge tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, table := range []string{"submission", "user_role", "role", "user_profile", "judge_reply", "language", "problem", "contest"} {
				if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
					return fmt.Errorf("failed to drop %s: %w", table, err)
				}
			}
			return nil
		})
	})
}
