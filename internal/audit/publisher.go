package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher queues audit events and persists them in a background goroutine.
// Emit never blocks the caller: when the buffer is full the event is dropped
// and counted, because session handling must not stall on the audit path.
type Publisher struct {
	store   Store
	events  chan Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	dropped func()

	mu     sync.Mutex
	closed bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithBufferSize overrides the event buffer size (default 256).
func WithBufferSize(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDropCounter registers a callback invoked once per dropped event,
// typically a metrics counter increment.
func WithDropCounter(fn func()) PublisherOption {
	return func(p *Publisher) {
		if fn != nil {
			p.dropped = fn
		}
	}
}

// NewPublisher constructs a Publisher and starts its background worker.
func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:   store,
		logger:  slog.Default(),
		dropped: func() {},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.events == nil {
		p.events = make(chan Event, 256)
	}
	p.wg.Add(1)
	go p.processEvents()
	return p
}

// Emit queues one event. Missing timestamps are filled in here so callers
// can leave the field zero.
func (p *Publisher) Emit(_ context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.events <- event:
	default:
		p.dropped()
		p.logger.Warn("audit event dropped, buffer full",
			"action", event.Action,
			"session_id", event.SessionID,
		)
	}
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"session_id", event.SessionID,
			)
		}
	}
}

// Close shuts down the publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	p.wg.Wait()
}
