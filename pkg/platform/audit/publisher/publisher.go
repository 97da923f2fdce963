// Package publisher emits audit events to an audit.Store, either inline or
// through a bounded buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"idledger/pkg/domain"
	audit "idledger/pkg/platform/audit"
	"idledger/pkg/platform/audit/worker"
)

var (
	ErrBufferFull = errors.New("audit buffer full")
	ErrClosed     = errors.New("audit publisher closed")
	ErrNotReader  = errors.New("audit store does not support queries")
)

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

type Publisher struct {
	store      audit.Store
	logger     *slog.Logger
	bufferSize int

	mu     sync.RWMutex
	closed bool
	inbox  chan audit.Event
	done   chan struct{}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit fills in the event id, category and timestamp when absent, then
// appends it. In async mode a full buffer drops the event with ErrBufferFull.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"event_id", event.ID.String(),
		)
		return ErrBufferFull
	}
}

// List returns events recorded for caller when the store supports queries.
func (p *Publisher) List(ctx context.Context, caller domain.Address) ([]audit.Event, error) {
	reader, ok := p.store.(audit.Reader)
	if !ok {
		return nil, ErrNotReader
	}
	return reader.ListByCaller(ctx, caller)
}

// Close stops accepting events and, in async mode, waits until every
// buffered event has been appended.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()
	if p.done != nil {
		<-p.done
	}
}
