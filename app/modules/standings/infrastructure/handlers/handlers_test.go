package standingshandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	standingsservice "github.com/Black-And-White-Club/judge-standings/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
	standingsevents "github.com/Black-And-White-Club/judge-standings/app/modules/standings/events"
	"github.com/Black-And-White-Club/judge-standings/app/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestHandlers(svc *FakeInvalidator, warmer WarmScheduler) *StandingsHandlers {
	h := NewStandingsHandlers(svc, warmer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestStandingsHandlers_Invalidate(t *testing.T) {
	payload := &standingsevents.SubmissionEventPayloadV1{
		ContestID:    12,
		SubmissionID: 3401,
		ProblemID:    88,
		UserID:       5,
		OccurredAt:   fixedNow.Add(-time.Second),
	}

	tests := []struct {
		name       string
		handle     func(h *StandingsHandlers, ctx context.Context) ([]*message.Message, error)
		wantReason string
	}{
		{
			name: "created",
			handle: func(h *StandingsHandlers, ctx context.Context) ([]*message.Message, error) {
				return h.HandleSubmissionCreated(ctx, payload)
			},
			wantReason: standingsevents.SubmissionCreatedV1,
		},
		{
			name: "judged",
			handle: func(h *StandingsHandlers, ctx context.Context) ([]*message.Message, error) {
				return h.HandleSubmissionJudged(ctx, payload)
			},
			wantReason: standingsevents.SubmissionJudgedV1,
		},
		{
			name: "rejudged",
			handle: func(h *StandingsHandlers, ctx context.Context) ([]*message.Message, error) {
				return h.HandleSubmissionRejudged(ctx, payload)
			},
			wantReason: standingsevents.SubmissionRejudgedV1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotContest int64
			svc := &FakeInvalidator{
				InvalidateFunc: func(ctx context.Context, contestID int64) error {
					gotContest = contestID
					return nil
				},
			}
			warmer := &FakeWarmScheduler{}
			h := newTestHandlers(svc, warmer)

			ctx := observability.ContextWithCorrelationID(context.Background(), "corr-1")
			msgs, err := tt.handle(h, ctx)
			require.NoError(t, err)

			assert.Equal(t, int64(12), gotContest)
			assert.Equal(t, []string{"Invalidate"}, svc.Trace())
			assert.Equal(t, []string{"EnqueueWarm"}, warmer.Trace())

			require.Len(t, msgs, 1)
			assert.Equal(t, "corr-1", middleware.MessageCorrelationID(msgs[0]))

			var out standingsevents.ContestInvalidatedPayloadV1
			require.NoError(t, json.Unmarshal(msgs[0].Payload, &out))
			assert.Equal(t, standingsevents.ContestInvalidatedPayloadV1{
				ContestID: 12,
				Source:    InvalidationSource,
				Reason:    tt.wantReason,
				At:        fixedNow,
			}, out)
		})
	}
}

func TestStandingsHandlers_LabelsInvalidationSource(t *testing.T) {
	var source string
	svc := &FakeInvalidator{
		InvalidateFunc: func(ctx context.Context, contestID int64) error {
			source = standingsservice.InvalidationSourceFrom(ctx)
			return nil
		},
	}
	h := newTestHandlers(svc, nil)

	_, err := h.HandleSubmissionJudged(context.Background(), &standingsevents.SubmissionEventPayloadV1{ContestID: 1})
	require.NoError(t, err)
	assert.Equal(t, InvalidationSource, source)
}

func TestStandingsHandlers_IgnoresMissingContest(t *testing.T) {
	svc := &FakeInvalidator{}
	warmer := &FakeWarmScheduler{}
	h := newTestHandlers(svc, warmer)

	msgs, err := h.HandleSubmissionCreated(context.Background(), &standingsevents.SubmissionEventPayloadV1{SubmissionID: 9})
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, svc.Trace())
	assert.Empty(t, warmer.Trace())
}

func TestStandingsHandlers_InvalidateFailure(t *testing.T) {
	svc := &FakeInvalidator{
		InvalidateFunc: func(ctx context.Context, contestID int64) error {
			return standingsdomain.ErrInvalidArgument
		},
	}
	warmer := &FakeWarmScheduler{}
	h := newTestHandlers(svc, warmer)

	_, err := h.HandleSubmissionJudged(context.Background(), &standingsevents.SubmissionEventPayloadV1{ContestID: 4})
	assert.ErrorIs(t, err, standingsdomain.ErrInvalidArgument)
	assert.Empty(t, warmer.Trace())
}

func TestStandingsHandlers_WarmFailureIsNotFatal(t *testing.T) {
	svc := &FakeInvalidator{}
	warmer := &FakeWarmScheduler{
		EnqueueWarmFunc: func(ctx context.Context, contestID int64) error {
			return errors.New("queue unavailable")
		},
	}
	h := newTestHandlers(svc, warmer)

	msgs, err := h.HandleSubmissionJudged(context.Background(), &standingsevents.SubmissionEventPayloadV1{ContestID: 4})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
