package standingsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding standings invalidation trigger...")

		_, err := db.ExecContext(ctx, `
			CREATE OR REPLACE FUNCTION standings_notify_invalidate() RETURNS trigger AS $$
			BEGIN
				IF TG_OP = 'DELETE' THEN
					PERFORM pg_notify('standings_invalidate', OLD.contest_id::text);
					RETURN OLD;
				END IF;
				IF TG_OP = 'UPDATE' AND OLD.contest_id <> NEW.contest_id THEN
					PERFORM pg_notify('standings_invalidate', OLD.contest_id::text);
				END IF;
				PERFORM pg_notify('standings_invalidate', NEW.contest_id::text);
				RETURN NEW;
			END;
			$$ LANGUAGE plpgsql;

			DROP TRIGGER IF EXISTS submission_standings_invalidate ON submission;
			CREATE TRIGGER submission_standings_invalidate
				AFTER INSERT OR UPDATE OR DELETE ON submission
				FOR EACH ROW EXECUTE FUNCTION standings_notify_invalidate();
		`)
		if err != nil {
			return fmt.Errorf("failed to create invalidation trigger: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Removing standings invalidation trigger...")

		_, err := db.ExecContext(ctx, `
			DROP TRIGGER IF EXISTS submission_standings_invalidate ON submission;
			DROP FUNCTION IF EXISTS standings_notify_invalidate();
		`)
		if err != nil {
			return fmt.Errorf("failed to drop invalidation trigger: %w", err)
		}
		return nil
	})
}
