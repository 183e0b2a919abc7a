package standingsdomain

import "errors"

// Sentinel errors for the standings engine.
// Callers match them with errors.Is; every error returned by the engine wraps one of them
// or a context error.
var (
	// ErrStoreUnavailable indicates the external submission store could not be reached.
	// The engine never retries.
	ErrStoreUnavailable = errors.New("submission store unavailable")

	// ErrInvalidArgument indicates a malformed request (unknown order key, bad range, unknown role).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates an unknown contest, problem or user in a point query.
	ErrNotFound = errors.New("not found")

	// ErrInconsistent indicates store data that contradicts the supplied metadata,
	// such as a submission for a problem outside its contest.
	ErrInconsistent = errors.New("inconsistent standings data")
)
