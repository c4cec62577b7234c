// Package quota enforces the per-user, per-article question limit over a
// rolling 24-hour window. The check-and-increment is atomic relative to
// concurrent requests for the same key: two simultaneous requests can
// never both claim the last remaining slot.
package quota

import (
	"context"
	"errors"
	"time"
)

// DefaultLimit is the number of questions allowed per window.
const DefaultLimit = 3

// Window is the rolling accounting period, measured from the first
// accepted question in the window.
const Window = 24 * time.Hour

// ErrLimitExhausted is returned when the caller has no questions left in
// the current window.
var ErrLimitExhausted = errors.New("question limit exhausted")

// Ledger tracks usage records keyed by (user, article).
type Ledger interface {
	// CheckAndIncrement consumes one slot atomically and returns how many
	// remain after this request. Returns ErrLimitExhausted without
	// consuming anything when the window is full.
	CheckAndIncrement(ctx context.Context, userID, articleID string) (remaining int, err error)

	// Remaining reports the slots left without consuming one.
	Remaining(ctx context.Context, userID, articleID string) (int, error)
}
