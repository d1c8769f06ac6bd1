package freshdesk

import (
	"context"
	"sync"
	"time"

	"vip-relay/internal/common/clock"
)

// BudgetClass names a category of outbound call that shares a rate ceiling.
type BudgetClass string

const (
	// ClassContactSearch covers GET /contacts?email=, which Freshdesk limits
	// far more tightly than other endpoints.
	ClassContactSearch BudgetClass = "contact-search"
	// ClassDefault is unbounded locally; only the remote 429 applies.
	ClassDefault BudgetClass = "default"
)

// Budget admits one call. Acquire blocks until the call fits under the ceiling
// or ctx is done.
type Budget interface {
	Acquire(ctx context.Context) error
}

// RateBudget is an in-process fixed-window budget: at most limit calls start
// within any window that begins at the first call after the previous window
// elapsed. Safe for concurrent use; waiting happens outside the lock.
type RateBudget struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	clock       clock.Clock
	count       int
	windowStart time.Time
}

// NewRateBudget returns a budget of limit calls per window. A limit of zero or
// less admits every call.
func NewRateBudget(limit int, window time.Duration, clk clock.Clock) *RateBudget {
	if clk == nil {
		clk = clock.Real()
	}
	return &RateBudget{limit: limit, window: window, clock: clk}
}

func (b *RateBudget) Acquire(ctx context.Context) error {
	for {
		wait, ok := b.reserve()
		if ok {
			return nil
		}
		select {
		case <-b.clock.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reserve takes a slot if one is free, otherwise reports how long until the
// current window resets.
func (b *RateBudget) reserve() (time.Duration, bool) {
	if b.limit <= 0 {
		return 0, true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	if b.windowStart.IsZero() || !now.Before(b.windowStart.Add(b.window)) {
		b.windowStart = now
		b.count = 0
	}

	if b.count < b.limit {
		b.count++
		return 0, true
	}
	return b.windowStart.Add(b.window).Sub(now), false
}

// Remaining reports how many calls the current window still admits.
func (b *RateBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit <= 0 {
		return -1
	}
	if b.windowStart.IsZero() || !b.clock.Now().Before(b.windowStart.Add(b.window)) {
		return b.limit
	}
	return b.limit - b.count
}

type unlimited struct{}

func (unlimited) Acquire(context.Context) error { return nil }
