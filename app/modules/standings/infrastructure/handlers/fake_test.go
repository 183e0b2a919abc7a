package standingshandlers

import "context"

type FakeInvalidator struct {
	trace []string

	InvalidateFunc func(ctx context.Context, contestID int64) error
}

func (f *FakeInvalidator) Invalidate(ctx context.Context, contestID int64) error {
	f.trace = append(f.trace, "Invalidate")
	if f.InvalidateFunc != nil {
		return f.InvalidateFunc(ctx, contestID)
	}
	return nil
}

func (f *FakeInvalidator) Trace() []string {
	return f.trace
}

type FakeWarmScheduler struct {
	trace []string

	EnqueueWarmFunc func(ctx context.Context, contestID int64) error
}

func (f *FakeWarmScheduler) EnqueueWarm(ctx context.Context, contestID int64) error {
	f.trace = append(f.trace, "EnqueueWarm")
	if f.EnqueueWarmFunc != nil {
		return f.EnqueueWarmFunc(ctx, contestID)
	}
	return nil
}

func (f *FakeWarmScheduler) Trace() []string {
	return f.trace
}

var (
	_ Invalidator   = (*FakeInvalidator)(nil)
	_ WarmScheduler = (*FakeWarmScheduler)(nil)
)
