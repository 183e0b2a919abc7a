package standingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/judge-standings/app/modules/standings/domain"
)

// storeError maps a driver error onto the standings error taxonomy.
// Missing rows become ErrNotFound, cancellation is passed through untouched and
// everything else is reported as ErrStoreUnavailable.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, standingsdomain.ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, standingsdomain.ErrStoreUnavailable, err)
	}
}
