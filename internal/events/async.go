package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Errors returned by AsyncEventEmitter.EmitEvent.
var (
	ErrEmitterClosed = errors.New("event emitter is closed")
	ErrQueueFull     = errors.New("event queue is full")
)

// AsyncConfig sizes the worker pool of an AsyncEventEmitter.
type AsyncConfig struct {
	// WorkerCount is the number of delivery goroutines. Values below one mean one.
	WorkerCount int

	// QueueSize is the number of events buffered ahead of the workers.
	QueueSize int
}

// DefaultAsyncConfig returns an AsyncConfig with reasonable defaults
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		WorkerCount: 2,
		QueueSize:   256,
	}
}

type queuedEvent struct {
	ctx   context.Context
	event *Event
}

// AsyncEventEmitter hands events to an inner emitter on a fixed pool of
// worker goroutines, so slow handlers never delay the caller.
//
// EmitEvent only enqueues. Handler errors are logged by the workers and never
// reach the caller. Close stops intake and waits for queued events to drain.
type AsyncEventEmitter struct {
	inner  EventEmitter
	queue  chan queuedEvent
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

var _ EventEmitter = (*AsyncEventEmitter)(nil)

// NewAsyncEventEmitter starts config.WorkerCount workers delivering to inner.
func NewAsyncEventEmitter(inner EventEmitter, config AsyncConfig, logger *slog.Logger) *AsyncEventEmitter {
	if inner == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("inner emitter cannot be nil for AsyncEventEmitter")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "async_event_emitter"))

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		log.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
		workerCount = 1
	}
	queueSize := config.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	e := &AsyncEventEmitter{
		inner:  inner,
		queue:  make(chan queuedEvent, queueSize),
		logger: log,
	}

	e.wg.Add(workerCount)
	for i := range workerCount {
		go e.worker(i)
	}
	log.Info("event workers started",
		slog.Int("worker_count", workerCount),
		slog.Int("queue_size", queueSize))

	return e
}

// EmitEvent enqueues event for delivery. The event keeps the values of ctx
// but not its cancellation, since delivery outlives the request.
func (e *AsyncEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return ErrEmitterClosed
	}

	select {
	case e.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(e.queue))
	}
}

// Close stops accepting events and waits until the workers have delivered
// everything already queued, or until ctx is done.
func (e *AsyncEventEmitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("event workers stopped")
		return nil
	case <-ctx.Done():
		e.logger.Warn("timed out waiting for event workers", slog.Int("pending", len(e.queue)))
		return ctx.Err()
	}
}

func (e *AsyncEventEmitter) worker(id int) {
	defer e.wg.Done()
	log := e.logger.With(slog.Int("worker_id", id))

	for qe := range e.queue {
		if err := e.inner.EmitEvent(qe.ctx, qe.event); err != nil {
			log.Error("event delivery failed",
				slog.String("event_id", qe.event.ID.String()),
				slog.String("event_type", qe.event.Type),
				slog.String("error", err.Error()))
		}
	}
}
