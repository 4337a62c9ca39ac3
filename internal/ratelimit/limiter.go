// Package ratelimit implements per-client sliding-window admission.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// Limit is the configured maximum per window.
	Limit int
	// Remaining is how many more requests the client may make right now.
	Remaining int
	// RetryAfter is set on denial: the time until the oldest retained
	// request leaves the window.
	RetryAfter time.Duration
}

// Limiter admits at most limit requests per client within a trailing window.
//
// Each client has its own timestamp list guarded by its own mutex, so the
// read-prune-append sequence is atomic per client while different clients
// never wait on each other. The map lock is held only to find or create an
// entry.
type Limiter struct {
	limit      int
	window     time.Duration
	maxClients int
	now        func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	mu       sync.Mutex
	hits     []time.Time
	lastSeen time.Time
	evicted  bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMaxClients caps how many client identifiers are tracked. Zero means no cap.
func WithMaxClients(n int) Option {
	return func(l *Limiter) { l.maxClients = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter admitting limit requests per window per client.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	l := &Limiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Limit() int            { return l.limit }
func (l *Limiter) Window() time.Duration { return l.window }

// Allow checks and records a request from key at the current time.
func (l *Limiter) Allow(key string) Decision {
	return l.AllowAt(key, l.now())
}

// AllowAt checks and records a request from key at now. Timestamps exactly
// one window old are already expired.
func (l *Limiter) AllowAt(key string, now time.Time) Decision {
	for {
		cw := l.entry(key, now)

		cw.mu.Lock()
		if cw.evicted {
			// Swept between lookup and lock; take the fresh entry.
			cw.mu.Unlock()
			continue
		}
		d := l.admit(cw, now)
		cw.mu.Unlock()
		return d
	}
}

func (l *Limiter) admit(cw *clientWindow, now time.Time) Decision {
	cw.lastSeen = now
	cw.hits = prune(cw.hits, now, l.window)

	if len(cw.hits) >= l.limit {
		retry := time.Duration(0)
		if len(cw.hits) > 0 {
			retry = l.window - now.Sub(cw.hits[0])
		}
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, RetryAfter: retry}
	}

	cw.hits = append(cw.hits, now)
	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - len(cw.hits)}
}

// prune drops timestamps with now-ts >= window. hits is in arrival order,
// so the expired ones form a prefix.
func prune(hits []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(hits) && now.Sub(hits[i]) >= window {
		i++
	}
	if i == 0 {
		return hits
	}
	n := copy(hits, hits[i:])
	return hits[:n]
}

func (l *Limiter) entry(key string, now time.Time) *clientWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cw, ok := l.clients[key]; ok {
		return cw
	}
	if l.maxClients > 0 && len(l.clients) >= l.maxClients {
		l.sweepLocked(now)
		if len(l.clients) >= l.maxClients {
			l.evictOldestLocked()
		}
	}
	cw := &clientWindow{lastSeen: now}
	l.clients[key] = cw
	return cw
}

// Sweep removes clients with no request inside the window and returns how
// many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(l.now())
}

func (l *Limiter) sweepLocked(now time.Time) int {
	removed := 0
	for key, cw := range l.clients {
		cw.mu.Lock()
		cw.hits = prune(cw.hits, now, l.window)
		if len(cw.hits) == 0 {
			cw.evicted = true
			delete(l.clients, key)
			removed++
		}
		cw.mu.Unlock()
	}
	return removed
}

func (l *Limiter) evictOldestLocked() {
	var (
		oldestKey  string
		oldest     *clientWindow
		oldestSeen time.Time
	)
	for key, cw := range l.clients {
		cw.mu.Lock()
		seen := cw.lastSeen
		cw.mu.Unlock()
		if oldest == nil || seen.Before(oldestSeen) {
			oldestKey, oldest, oldestSeen = key, cw, seen
		}
	}
	if oldest == nil {
		return
	}
	oldest.mu.Lock()
	oldest.evicted = true
	oldest.mu.Unlock()
	delete(l.clients, oldestKey)
}

// Clients returns how many client identifiers are currently tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// StartJanitor sweeps idle clients every interval until ctx is done.
func (l *Limiter) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep()
			}
		}
	}()
}
