package standingsmetrics

import (
	"context"
	"time"
)

// NoOpMetrics discards every measurement.
type NoOpMetrics struct{}

var _ StandingsMetrics = (*NoOpMetrics)(nil)

func (*NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                {}
func (*NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                {}
func (*NoOpMetrics) RecordOperationFailure(context.Context, string, string)                {}
func (*NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (*NoOpMetrics) RecordCacheHit(context.Context, string)                                {}
func (*NoOpMetrics) RecordCacheMiss(context.Context, string)                               {}
func (*NoOpMetrics) RecordInvalidation(context.Context, string)                            {}
func (*NoOpMetrics) RecordSubmissionsScanned(context.Context, string, int)                 {}
func (*NoOpMetrics) RecordBuildDuration(context.Context, string, time.Duration)            {}
