package standingsrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// wrapTyped decodes the JSON payload into T, carries the correlation id into the
// context and traces the handler call. Undecodable payloads are logged and acked.
func wrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	handler func(context.Context, *T) ([]*message.Message, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := msg.Context()
		if id := middleware.MessageCorrelationID(msg); id != "" {
			ctx = observability.ContextWithCorrelationID(ctx, id)
		}

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("messaging.message.id", msg.UUID),
			attribute.String("handler", handlerName),
		))
		defer span.End()

		start := time.Now()
		logger := logger.With(
			observability.ExtractCorrelationID(ctx),
			slog.String("handler", handlerName),
			slog.String("message_id", msg.UUID),
		)

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Dropping undecodable message", observability.Error(err))
			span.RecordError(err)
			return nil, nil
		}

		out, err := handler(ctx, payload)
		if err != nil {
			err = fmt.Errorf("%s: %w", handlerName, err)
			logger.ErrorContext(ctx, "Handler failed", observability.Error(err), slog.Duration("duration", time.Since(start)))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		logger.DebugContext(ctx, "Handler completed", slog.Int("published", len(out)), slog.Duration("duration", time.Since(start)))
		return out, nil
	}
}
