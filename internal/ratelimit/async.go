package ratelimit

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const defaultStatsWriteTimeout = 250 * time.Millisecond

// ErrStatsDropped is returned by AsyncStats.Record when the event could not
// be queued.
var ErrStatsDropped = errors.New("rate limit stats event dropped")

// AsyncStats queues events for a background writer so a slow or silent
// backing store never holds up the request that produced them.
type AsyncStats struct {
	store        StatsStore
	writeTimeout time.Duration
	dropped      atomic.Int64

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewAsyncStats starts the writer. When queueSize events are pending, new
// ones are dropped. writeTimeout bounds each store call; zero picks a
// default.
func NewAsyncStats(store StatsStore, queueSize int, writeTimeout time.Duration) *AsyncStats {
	if queueSize <= 0 {
		queueSize = 1
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultStatsWriteTimeout
	}
	a := &AsyncStats{
		store:        store,
		writeTimeout: writeTimeout,
		queue:        make(chan Event, queueSize),
		done:         make(chan struct{}),
	}
	go a.run()
	return a
}

// Record enqueues ev without blocking.
func (a *AsyncStats) Record(_ context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return ErrStatsDropped
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		a.dropped.Add(1)
		return ErrStatsDropped
	}
}

// Dropped reports how many events were never queued.
func (a *AsyncStats) Dropped() int64 { return a.dropped.Load() }

func (a *AsyncStats) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
		if err := a.store.Record(ctx, ev); err != nil {
			log.Printf("[RateLimit] ⚠️ stats write failed: %v", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queue to drain or for ctx
// to expire.
func (a *AsyncStats) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
