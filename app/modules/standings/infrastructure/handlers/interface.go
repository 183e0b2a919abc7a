package standingshandlers

import (
	"context"

	standingsevents "github.com/Black-And-White-Club/judge-standings/app/modules/standings/events"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Handlers reacts to write-side notifications.
type Handlers interface {
	HandleSubmissionCreated(ctx context.Context, payload *standingsevents.SubmissionEventPayloadV1) ([]*message.Message, error)
	HandleSubmissionJudged(ctx context.Context, payload *standingsevents.SubmissionEventPayloadV1) ([]*message.Message, error)
	HandleSubmissionRejudged(ctx context.Context, payload *standingsevents.SubmissionEventPayloadV1) ([]*message.Message, error)
}

// Invalidator drops cached standings.
type Invalidator interface {
	Invalidate(ctx context.Context, contestID int64) error
}

// WarmScheduler queues a rebuild of a contest's rank lists.
type WarmScheduler interface {
	EnqueueWarm(ctx context.Context, contestID int64) error
}
