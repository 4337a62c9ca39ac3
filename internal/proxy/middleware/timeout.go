package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pysugar/code-converter/internal/logging"
	"github.com/pysugar/code-converter/internal/observability"
	"github.com/pysugar/code-converter/internal/proxy/response"
)

const timeoutMessage = "Request timeout - operation took too long to complete"

const (
	gatePending int32 = iota
	gateCompleted
	gateExpired
)

// gate decides once whether the handler or the deadline owns the response.
type gate struct {
	state atomic.Int32
}

func (g *gate) complete() bool { return g.state.CompareAndSwap(gatePending, gateCompleted) }
func (g *gate) expire() bool   { return g.state.CompareAndSwap(gatePending, gateExpired) }
func (g *gate) expired() bool  { return g.state.Load() == gateExpired }

// Timeout bounds how long downstream handlers may take. The handler runs in
// its own goroutine against a buffered writer; when d elapses first the
// client receives 408, the request context is cancelled and anything the
// handler writes afterwards fails with http.ErrHandlerTimeout.
func Timeout(d time.Duration, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithCancel(r.Context())
			defer cancel()

			tw := &timeoutWriter{header: make(http.Header)}
			done := make(chan struct{})
			var panicVal any

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicVal = p
					}
					tw.gate.complete()
					close(done)
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-done:
			case <-timer.C:
				if tw.gate.expire() {
					cancel()
					metrics.ObserveTimeout()
					logging.Warnf(r.Context(), "[Timeout] ⏱️ %s %s exceeded %v", r.Method, r.URL.Path, d)
					response.Error(w, http.StatusRequestTimeout, timeoutMessage)
					return
				}
				// The handler finished first; its response stands.
				<-done
			}

			if panicVal != nil {
				panic(panicVal)
			}
			tw.flushTo(w)
		})
	}
}

type timeoutWriter struct {
	gate gate

	mu          sync.Mutex
	header      http.Header
	buf         bytes.Buffer
	code        int
	wroteHeader bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.gate.expired() || tw.wroteHeader {
		return
	}
	tw.wroteHeader = true
	tw.code = code
}

func (tw *timeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.gate.expired() {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.wroteHeader {
		tw.wroteHeader = true
		tw.code = http.StatusOK
	}
	return tw.buf.Write(p)
}

func (tw *timeoutWriter) flushTo(w http.ResponseWriter) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	dst := w.Header()
	for k, vv := range tw.header {
		dst[k] = vv
	}
	code := tw.code
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	_, _ = w.Write(tw.buf.Bytes())
}
