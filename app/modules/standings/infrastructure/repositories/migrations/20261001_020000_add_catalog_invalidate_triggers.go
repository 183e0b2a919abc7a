package standingsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Contest policy and problem list edits change standings as much as submissions do.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding catalog invalidation triggers...")

		_, err := db.ExecContext(ctx, `
			CREATE OR REPLACE FUNCTION standings_notify_contest_invalidate() RETURNS trigger AS $$
			BEGIN
				IF TG_OP = 'DELETE' THEN
					PERFORM pg_notify('standings_invalidate', OLD.id::text);
					RETURN OLD;
				END IF;
				PERFORM pg_notify('standings_invalidate', NEW.id::text);
				RETURN NEW;
			END;
			$$ LANGUAGE plpgsql;

			DROP TRIGGER IF EXISTS contest_standings_invalidate ON contest;
			CREATE TRIGGER contest_standings_invalidate
				AFTER UPDATE OR DELETE ON contest
				FOR EACH ROW EXECUTE FUNCTION standings_notify_contest_invalidate();

			DROP TRIGGER IF EXISTS problem_standings_invalidate ON problem;
			CREATE TRIGGER problem_standings_invalidate
				AFTER INSERT OR UPDATE OR DELETE ON problem
				FOR EACH ROW EXECUTE FUNCTION standings_notify_invalidate();
		`)
		if err != nil {
			return fmt.Errorf("failed to create catalog invalidation triggers: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Removing catalog invalidation triggers...")

		_, err := db.ExecContext(ctx, `
			DROP TRIGGER IF EXISTS problem_standings_invalidate ON problem;
			DROP TRIGGER IF EXISTS contest_standings_invalidate ON contest;
			DROP FUNCTION IF EXISTS standings_notify_contest_invalidate();
		`)
		if err != nil {
			return fmt.Errorf("failed to drop catalog invalidation triggers: %w", err)
		}
		return nil
	})
}
