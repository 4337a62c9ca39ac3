package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingStats struct {
	mu      sync.Mutex
	events  []Event
	block   chan struct{}
	started chan struct{}
}

func (s *recordingStats) Record(ctx context.Context, ev Event) error {
	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingStats) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestAsyncStats_DrainsOnClose(t *testing.T) {
	store := &recordingStats{}
	a := NewAsyncStats(store, 16, time.Second)

	for i := 0; i < 5; i++ {
		if err := a.Record(context.Background(), Event{Key: "k", Allowed: i%2 == 0}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if store.len() != 5 {
		t.Fatalf("recorded %d events, want 5", store.len())
	}
	if err := a.Record(context.Background(), Event{Key: "k"}); !errors.Is(err, ErrStatsDropped) {
		t.Fatalf("Record() after Close error = %v, want ErrStatsDropped", err)
	}
}

func TestAsyncStats_RecordNeverBlocksOnSlowStore(t *testing.T) {
	store := &recordingStats{block: make(chan struct{}), started: make(chan struct{}, 1)}
	a := NewAsyncStats(store, 1, time.Minute)
	t.Cleanup(func() {
		close(store.block)
		_ = a.Close(context.Background())
	})

	if err := a.Record(context.Background(), Event{Key: "first"}); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}
	<-store.started

	start := time.Now()
	if err := a.Record(context.Background(), Event{Key: "queued"}); err != nil {
		t.Fatalf("second Record() error = %v", err)
	}
	err := a.Record(context.Background(), Event{Key: "overflow"})
	if !errors.Is(err, ErrStatsDropped) {
		t.Fatalf("overflow Record() error = %v, want ErrStatsDropped", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Record() blocked for %v", elapsed)
	}
	if a.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", a.Dropped())
	}
}

func TestAsyncStats_WriteTimeoutBoundsEachStoreCall(t *testing.T) {
	store := &recordingStats{block: make(chan struct{})}
	defer close(store.block)
	a := NewAsyncStats(store, 4, 20*time.Millisecond)

	_ = a.Record(context.Background(), Event{Key: "a"})
	_ = a.Record(context.Background(), Event{Key: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v, want drained after per-write timeouts", err)
	}
	if store.len() != 0 {
		t.Fatalf("recorded %d events, want 0 (all writes timed out)", store.len())
	}
}
