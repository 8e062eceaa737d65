package uptime

import (
	"sync"
	"sync/atomic"
	"time"
)

// Budget raises a restart request once the process has been up for longer
// than its limit. The request is one-way: once raised it stays raised.
type Budget struct {
	start     time.Time
	limit     time.Duration
	now       func() time.Time
	requested atomic.Bool
	once      sync.Once
	ch        chan struct{}
}

// NewBudget starts the clock now. A zero limit never expires on its own.
func NewBudget(limit time.Duration) *Budget {
	return newBudget(limit, time.Now)
}

func newBudget(limit time.Duration, now func() time.Time) *Budget {
	return &Budget{
		start: now(),
		limit: limit,
		now:   now,
		ch:    make(chan struct{}),
	}
}

// Check raises the request if the limit has elapsed and reports whether a
// restart is requested.
func (b *Budget) Check() bool {
	if b.limit > 0 && b.Uptime() >= b.limit {
		b.Trigger()
	}
	return b.Triggered()
}

func (b *Budget) Trigger() {
	b.once.Do(func() {
		b.requested.Store(true)
		close(b.ch)
	})
}

func (b *Budget) Triggered() bool {
	return b.requested.Load()
}

// Requested is closed when a restart has been requested.
func (b *Budget) Requested() <-chan struct{} {
	return b.ch
}

func (b *Budget) Uptime() time.Duration {
	return b.now().Sub(b.start)
}

func (b *Budget) Limit() time.Duration {
	return b.limit
}
