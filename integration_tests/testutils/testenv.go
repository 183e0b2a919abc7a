//go:build integration

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
	standingsmigrations "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/judge-standings/db/bundb"
	"github.com/Black-And-White-Club/judge-standings/integration_tests/containers"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// TestEnvironment holds the resources shared by the integration tests.
type TestEnvironment struct {
	Ctx         context.Context
	PgContainer *postgres.PostgresContainer
	DSN         string
	DB          *bun.DB
	DBService   *bundb.DBService
	Logger      *slog.Logger
}

var (
	sharedEnv     *TestEnvironment
	sharedEnvErr  error
	sharedEnvOnce sync.Once
)

// GetOrCreateTestEnv starts Postgres once per test binary and migrates it.
func GetOrCreateTestEnv(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	sharedEnvOnce.Do(func() {
		sharedEnv, sharedEnvErr = newTestEnvironment(context.Background())
	})
	if sharedEnvErr != nil {
		t.Fatalf("failed to set up test environment: %v", sharedEnvErr)
	}
	if err := CleanupDatabase(sharedEnv.Ctx, sharedEnv.DB); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
	return sharedEnv
}

func newTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	db := bundb.BunDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))))
	if err := runMigrations(ctx, db, dsn); err != nil {
		db.Close()
		_ = testcontainers.TerminateContainer(pgContainer)
		return nil, err
	}

	return &TestEnvironment{
		Ctx:         ctx,
		PgContainer: pgContainer,
		DSN:         dsn,
		DB:          db,
		DBService:   bundb.NewDBService(db),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Shutdown terminates the shared container, if one was started.
func Shutdown() {
	if sharedEnv == nil {
		return
	}
	sharedEnv.DB.Close()
	_ = testcontainers.TerminateContainer(sharedEnv.PgContainer)
}

func runMigrations(ctx context.Context, db *bun.DB, dsn string) error {
	migrator := migrate.NewMigrator(db, standingsmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run standings migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	riverMigrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := riverMigrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}

// CleanupDatabase removes everything but the seeded judge reply catalog.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE TABLE submission, user_role, role, user_profile, problem, contest, language RESTART IDENTITY CASCADE;
		DELETE FROM river_job;
	`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Judge reply ids seeded by the migrations.
const (
	ReplyPending     int64 = 1
	ReplyAccepted    int64 = 2
	ReplyWrongAnswer int64 = 4
	ReplyCompile     int64 = 12
)

// Fixture inserts rows for one test.
type Fixture struct {
	t   *testing.T
	ctx context.Context
	db  bun.IDB
}

func (env *TestEnvironment) Fixture(t *testing.T) *Fixture {
	return &Fixture{t: t, ctx: env.Ctx, db: env.DB}
}

func (f *Fixture) insert(model any) {
	f.t.Helper()
	if _, err := f.db.NewInsert().Model(model).Exec(f.ctx); err != nil {
		f.t.Fatalf("failed to insert %T: %v", model, err)
	}
}

// Contest creates a contest with one problem per code, in order.
func (f *Fixture) Contest(title string, start time.Time, length time.Duration, codes ...string) (*standingsdb.Contest, []*standingsdb.Problem) {
	f.t.Helper()
	contest := &standingsdb.Contest{Title: title, StartTime: start, EndTime: start.Add(length), Active: true}
	f.insert(contest)
	return contest, f.problems(contest.ID, codes)
}

// Problemset creates an untimed problem archive.
func (f *Fixture) Problemset(title string, codes ...string) (*standingsdb.Contest, []*standingsdb.Problem) {
	f.t.Helper()
	set := &standingsdb.Contest{Title: title, Problemset: true, Active: true}
	f.insert(set)
	return set, f.problems(set.ID, codes)
}

func (f *Fixture) problems(contestID int64, codes []string) []*standingsdb.Problem {
	problems := make([]*standingsdb.Problem, 0, len(codes))
	for i, code := range codes {
		p := &standingsdb.Problem{ContestID: contestID, Code: code, Title: "Problem " + code, Sequence: i, Active: true}
		f.insert(p)
		problems = append(problems, p)
	}
	return problems
}

func (f *Fixture) Language(name string) *standingsdb.Language {
	f.t.Helper()
	l := &standingsdb.Language{Name: name, Compiler: name, Extension: "txt"}
	f.insert(l)
	return l
}

func (f *Fixture) User(handle string) *standingsdb.UserProfile {
	f.t.Helper()
	u := &standingsdb.UserProfile{Handle: handle, Active: true}
	f.insert(u)
	return u
}

// Role creates a role holding members.
func (f *Fixture) Role(name string, members ...int64) *standingsdb.Role {
	f.t.Helper()
	r := &standingsdb.Role{Name: name}
	f.insert(r)
	for _, m := range members {
		f.insert(&standingsdb.UserRole{UserProfileID: m, RoleID: r.ID})
	}
	return r
}

// Submit stores one judged submission made at the given instant.
func (f *Fixture) Submit(problem *standingsdb.Problem, userID, languageID, replyID int64, at time.Time) *standingsdb.Submission {
	f.t.Helper()
	s := &standingsdb.Submission{
		ProblemID:      problem.ID,
		UserProfileID:  userID,
		ContestID:      problem.ContestID,
		LanguageID:     languageID,
		JudgeReplyID:   replyID,
		SubmissionDate: at,
		JudgeDate:      at.Add(time.Second),
		CodeLength:     42,
		Content:        "int main() {}",
	}
	f.insert(s)
	return s
}
