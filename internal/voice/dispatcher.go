package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/flemzord/voxscribe/internal/metrics"
	"github.com/flemzord/voxscribe/pkg/message"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("voice: dispatcher closed")

// EventHandler processes one event. *Handler implements it.
type EventHandler interface {
	Handle(ctx context.Context, ev message.VoiceEvent) Outcome
}

// Dispatcher runs each submitted event in its own goroutine, with at most
// `concurrency` handlers active and a deadline per event. Events are not
// ordered relative to each other.
type Dispatcher struct {
	handler EventHandler
	timeout time.Duration
	sem     chan struct{}
	metrics *metrics.Metrics
	logger  *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Non-positive concurrency or timeout
// fall back to the defaults.
func NewDispatcher(h EventHandler, concurrency int, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler: h,
		timeout: timeout,
		sem:     make(chan struct{}, concurrency),
		metrics: m,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Submit schedules ev and returns immediately.
func (d *Dispatcher) Submit(ev message.VoiceEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.wg.Add(1)
	go d.run(ev)
	return nil
}

func (d *Dispatcher) run(ev message.VoiceEvent) {
	defer d.wg.Done()

	select {
	case d.sem <- struct{}{}:
	case <-d.baseCtx.Done():
		return
	}
	defer func() { <-d.sem }()

	done := d.metrics.TrackInFlight()
	defer done()

	ctx, cancel := context.WithTimeout(d.baseCtx, d.timeout)
	defer cancel()

	// Handler recovers its own panics; this guards custom EventHandlers.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("voice handler panicked", "panic", r, "message_id", ev.MessageID)
		}
	}()
	d.handler.Handle(ctx, ev)
}

// Close stops accepting events and waits for in-flight ones. When ctx
// expires first, pending handlers are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
