package standingslistener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	standingsservice "github.com/Black-And-White-Club/judge-standings/app/modules/standings/application"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/jackc/pgx/v5"
)

// Channel is the Postgres notification channel written by the submission trigger.
const Channel = "standings_invalidate"

// InvalidationSource labels invalidations triggered by Postgres notifications.
const InvalidationSource = "notify"

// Invalidator drops cached standings.
type Invalidator interface {
	Invalidate(ctx context.Context, contestID int64) error
	InvalidateAll(ctx context.Context) error
}

// Listener turns Postgres NOTIFY messages into cache invalidations.
type Listener struct {
	dsn         string
	invalidator Invalidator
	logger      *slog.Logger

	// MinBackoff and MaxBackoff bound the reconnect delay.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewListener(dsn string, invalidator Invalidator, logger *slog.Logger) *Listener {
	return &Listener{
		dsn:         dsn,
		invalidator: invalidator,
		logger:      logger.With(slog.String("component", "pg_listener"), slog.String("channel", Channel)),
		MinBackoff:  500 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
	}
}

// Run listens until ctx is done, reconnecting with exponential backoff. Every
// (re)connect invalidates all contests, since notifications sent while
// disconnected are lost.
func (l *Listener) Run(ctx context.Context) error {
	ctx = standingsservice.WithInvalidationSource(ctx, InvalidationSource)
	backoff := l.MinBackoff

	for {
		err := l.listen(ctx, func() { backoff = l.MinBackoff })
		if ctx.Err() != nil {
			return nil
		}
		l.logger.WarnContext(ctx, "Notification listener disconnected",
			observability.Error(err),
			slog.Duration("retry_in", backoff),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, l.MaxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context, connected func()) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	connected()
	l.logger.InfoContext(ctx, "Listening for standings notifications")

	if err := l.invalidator.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("resync: %w", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		l.Handle(ctx, n.Payload)
	}
}

// Handle applies one notification payload. Bad payloads are logged and skipped.
func (l *Listener) Handle(ctx context.Context, payload string) {
	contestID, err := ParsePayload(payload)
	if err != nil {
		l.logger.WarnContext(ctx, "Ignoring notification", slog.String("payload", payload), observability.Error(err))
		return
	}
	if err := l.invalidator.Invalidate(ctx, contestID); err != nil {
		l.logger.ErrorContext(ctx, "Failed to invalidate contest", slog.Int64("contest_id", contestID), observability.Error(err))
	}
}

var errEmptyPayload = errors.New("empty payload")

// ParsePayload reads the contest id the trigger sends.
func ParsePayload(payload string) (int64, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return 0, errEmptyPayload
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("contest id %q: %w", payload, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("contest id %d is not positive", id)
	}
	return id, nil
}
