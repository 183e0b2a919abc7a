package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	standingsevents "github.com/Black-And-White-Club/judge-standings/app/modules/standings/events"
)

// InitializeStreams creates the JetStream streams the service publishes to and consumes from.
func InitializeStreams(ctx context.Context, bus EventBus, logger *slog.Logger) error {
	streams := map[string][]string{
		standingsevents.StreamName: {standingsevents.StreamSubjects},
	}

	for name, subjects := range streams {
		if err := bus.CreateStream(ctx, name, subjects...); err != nil {
			logger.ErrorContext(ctx, "Failed to create JetStream stream", slog.String("stream", name), slog.Any("error", err))
			return fmt.Errorf("stream %s: %w", name, err)
		}
	}
	return nil
}
