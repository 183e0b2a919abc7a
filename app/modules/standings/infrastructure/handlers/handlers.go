package standingshandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	standingsservice "github.com/Black-And-White-Club/judge-standings/app/modules/standings/application"
	standingsevents "github.com/Black-And-White-Club/judge-standings/app/modules/standings/events"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

// InvalidationSource labels invalidations triggered by NATS notifications.
const InvalidationSource = "nats"

// StandingsHandlers handles submission notifications.
type StandingsHandlers struct {
	service Invalidator
	warmer  WarmScheduler
	logger  *slog.Logger
	now     func() time.Time
}

// NewStandingsHandlers creates the handlers. warmer may be nil, in which case rank
// lists are rebuilt lazily by the next read.
func NewStandingsHandlers(service Invalidator, warmer WarmScheduler, logger *slog.Logger) *StandingsHandlers {
	return &StandingsHandlers{
		service: service,
		warmer:  warmer,
		logger:  logger,
		now:     time.Now,
	}
}

var _ Handlers = (*StandingsHandlers)(nil)

func (h *StandingsHandlers) HandleSubmissionCreated(ctx context.Context, payload *standingsevents.SubmissionEventPayloadV1) ([]*message.Message, error) {
	return h.invalidate(ctx, payload, standingsevents.SubmissionCreatedV1)
}

func (h *StandingsHandlers) HandleSubmissionJudged(ctx context.Context, payload *standingsevents.SubmissionEventPayloadV1) ([]*message.Message, error) {
	return h.invalidate(ctx, payload, standingsevents.SubmissionJudgedV1)
}

func (h *StandingsHandlers) HandleSubmissionRejudged(ctx context.Context, payload *standingsevents.SubmissionEventPayloadV1) ([]*message.Message, error) {
	return h.invalidate(ctx, payload, standingsevents.SubmissionRejudgedV1)
}

func (h *StandingsHandlers) invalidate(ctx context.Context, payload *standingsevents.SubmissionEventPayloadV1, reason string) ([]*message.Message, error) {
	logger := h.logger.With(
		observability.ExtractCorrelationID(ctx),
		slog.String("reason", reason),
		slog.Int64("contest_id", payload.ContestID),
		slog.Int64("submission_id", payload.SubmissionID),
	)

	// Malformed notifications are acked, not redelivered.
	if payload.ContestID <= 0 {
		logger.WarnContext(ctx, "Ignoring notification without contest id")
		return nil, nil
	}

	ctx = standingsservice.WithInvalidationSource(ctx, InvalidationSource)
	if err := h.service.Invalidate(ctx, payload.ContestID); err != nil {
		return nil, fmt.Errorf("failed to invalidate contest %d: %w", payload.ContestID, err)
	}

	if h.warmer != nil {
		if err := h.warmer.EnqueueWarm(ctx, payload.ContestID); err != nil {
			logger.WarnContext(ctx, "Failed to schedule rank list warm-up", observability.Error(err))
		}
	}

	out, err := h.newMessage(ctx, standingsevents.ContestInvalidatedPayloadV1{
		ContestID: payload.ContestID,
		Source:    InvalidationSource,
		Reason:    reason,
		At:        h.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return []*message.Message{out}, nil
}

func (h *StandingsHandlers) newMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), body)
	msg.SetContext(ctx)
	if id := observability.CorrelationID(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	return msg, nil
}
