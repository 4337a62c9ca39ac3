package history

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pysugar/code-converter/internal/db/models"
	"github.com/pysugar/code-converter/internal/observability"
)

const defaultWriteTimeout = 5 * time.Second

// Recorder performs write-behind persistence of conversions. Failures are
// logged and counted but never returned to the request path.
type Recorder struct {
	store        Store
	metrics      *observability.Metrics
	sync         bool
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan *models.Conversion
	done   chan struct{}
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSync makes Persist write inline instead of queueing. Errors are still
// swallowed; the caller only learns the assigned id.
func WithSync(sync bool) RecorderOption {
	return func(r *Recorder) { r.sync = sync }
}

// WithMetrics counts write outcomes.
func WithMetrics(m *observability.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

// WithWriteTimeout bounds each individual store write.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.writeTimeout = d }
}

// NewRecorder starts the background writer. queueSize bounds how many
// writes may be pending; when the queue is full new records are dropped.
func NewRecorder(store Store, queueSize int, opts ...RecorderOption) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &Recorder{
		store:        store,
		writeTimeout: defaultWriteTimeout,
		queue:        make(chan *models.Conversion, queueSize),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Sync reports whether Persist writes inline.
func (r *Recorder) Sync() bool { return r.sync }

// Persist hands c to the store. In detached mode it enqueues and returns
// (0, queued). In sync mode it writes inline and returns the new id and
// whether the write succeeded.
func (r *Recorder) Persist(ctx context.Context, c *models.Conversion) (uint, bool) {
	if r.sync {
		if err := r.write(context.WithoutCancel(ctx), c); err != nil {
			return 0, false
		}
		return c.ID, true
	}
	return 0, r.enqueue(c)
}

func (r *Recorder) enqueue(c *models.Conversion) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		log.Printf("[History] ⚠️ Recorder closed, dropping conversion")
		r.metrics.ObserveHistoryWrite("dropped")
		return false
	}
	select {
	case r.queue <- c:
		return true
	default:
		log.Printf("[History] ⚠️ Write queue full (%d), dropping conversion", cap(r.queue))
		r.metrics.ObserveHistoryWrite("dropped")
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for c := range r.queue {
		_ = r.write(context.Background(), c)
	}
}

func (r *Recorder) write(ctx context.Context, c *models.Conversion) error {
	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if err := r.store.Create(ctx, c); err != nil {
		log.Printf("[History] ⚠️ Failed to save conversion: %v", err)
		r.metrics.ObserveHistoryWrite("error")
		return err
	}
	log.Printf("[History] ✅ Conversion %d saved", c.ID)
	r.metrics.ObserveHistoryWrite("ok")
	return nil
}

// Close stops accepting records and waits for queued writes to finish or
// for ctx to expire.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
