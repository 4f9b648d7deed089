package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// DefaultAuditQueueSize bounds the number of events waiting to be written.
const DefaultAuditQueueSize = 256

// Enqueue failures, surfaced to the publisher.
var (
	ErrAuditQueueFull     = errors.New("worker: audit queue full")
	ErrAuditWorkerStopped = errors.New("worker: audit worker stopped")
)

// AuditWorker writes audit entries off the request path. Publishers enqueue
// and return; a single goroutine drains the queue into the audit service.
type AuditWorker struct {
	audit  *service.AuditService
	logger *zap.Logger
	queue  chan events.Event
	done   chan struct{}

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewAuditWorker builds a worker with a queue of size events.
func NewAuditWorker(audit *service.AuditService, logger *zap.Logger, size int) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultAuditQueueSize
	}
	return &AuditWorker{
		audit:  audit,
		logger: logger,
		queue:  make(chan events.Event, size),
		done:   make(chan struct{}),
	}
}

// Subscribe routes account events published on dispatcher into the queue.
func (w *AuditWorker) Subscribe(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventUserRegistered, w.enqueue)
	dispatcher.Subscribe(events.EventUserRoleChanged, w.enqueue)
}

// Start launches the drain goroutine. Calling it again is a no-op.
func (w *AuditWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true

	go func() {
		defer close(w.done)
		for event := range w.queue {
			if err := w.audit.Record(context.Background(), event); err != nil {
				w.logger.Warn("audit record failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

// Stop refuses new events and waits until queued ones are written or ctx ends.
func (w *AuditWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.started
	close(w.queue)
	w.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *AuditWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrAuditWorkerStopped
	}

	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("audit queue full, event dropped",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return ErrAuditQueueFull
	}
}
