package quota

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type usageRecord struct {
	windowStart time.Time
	count       int
}

// MemoryLedger is an in-process ledger for dev mode and tests. The clock
// is injected so window expiry is testable without sleeping.
type MemoryLedger struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	limit   int
	records map[[2]string]usageRecord
}

// NewMemoryLedger creates a ledger with the given limit per window.
func NewMemoryLedger(limit int, clock clockwork.Clock) *MemoryLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryLedger{
		clock:   clock,
		limit:   limit,
		records: make(map[[2]string]usageRecord),
	}
}

// CheckAndIncrement consumes one slot under the ledger mutex.
func (l *MemoryLedger) CheckAndIncrement(_ context.Context, userID, articleID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	key := [2]string{userID, articleID}

	rec, ok := l.records[key]
	if !ok || now.Sub(rec.windowStart) >= Window {
		l.records[key] = usageRecord{windowStart: now, count: 1}
		return l.limit - 1, nil
	}
	if rec.count >= l.limit {
		return 0, ErrLimitExhausted
	}
	rec.count++
	l.records[key] = rec
	return l.limit - rec.count, nil
}

// Remaining reports slots left without consuming one.
func (l *MemoryLedger) Remaining(_ context.Context, userID, articleID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[[2]string{userID, articleID}]
	if !ok || l.clock.Now().Sub(rec.windowStart) >= Window {
		return l.limit, nil
	}
	remaining := l.limit - rec.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
