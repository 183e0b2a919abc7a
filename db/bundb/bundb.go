package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	standingsdb "github.com/Black-And-White-Club/judge-standings/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/judge-standings/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DBService bundles the read-side repositories over one connection pool.
type DBService struct {
	Feed      standingsdb.SubmissionFeed
	Catalog   standingsdb.Catalog
	Directory standingsdb.Directory
	db        *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// Ping checks the pool; the HTTP health endpoint uses it.
func (s *DBService) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DBService) Close() error {
	return s.db.Close()
}

// NewBunDBService connects to Postgres and builds the repositories.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	service := NewDBService(BunDB(sqldb))
	logger.InfoContext(ctx, "Database service initialized")
	return service, nil
}

// NewDBService wraps an existing bun.DB, as the integration tests do.
func NewDBService(db *bun.DB) *DBService {
	db.RegisterModel((*standingsdb.UserRole)(nil))
	return &DBService{
		Feed:      standingsdb.NewSubmissionFeed(db),
		Catalog:   standingsdb.NewCatalog(db),
		Directory: standingsdb.NewDirectory(db),
		db:        db,
	}
}

// BunDB returns a new bun.DB for given sql.DB connection pool.
func BunDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
