package events

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
)

// Invalidation announces that a committed permission mutation may have
// changed resolutions for an entity. AffectedUserIDs is best-effort: empty
// means "unknown, assume anyone".
type Invalidation struct {
	Entity          entity.Ref  `json:"entity"`
	ProjectID       uuid.UUID   `json:"project_id"`
	AffectedUserIDs []uuid.UUID `json:"affected_user_ids,omitempty"`
}

// Subscriber receives invalidation events from a Bus.
type Subscriber struct {
	ch     chan Invalidation
	closed bool
	mu     sync.Mutex
}

// C returns the receive channel. It is closed when the subscriber or the
// bus closes.
func (s *Subscriber) C() <-chan Invalidation {
	return s.ch
}

// Close closes the subscriber. Idempotent.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

func (s *Subscriber) send(ev Invalidation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// Bus fans invalidation events out to in-process subscribers. Publishing
// never blocks: a subscriber with a full buffer misses the event and is
// dropped. The signal is advisory; cache coherence never depends on it.
type Bus struct {
	mu        sync.RWMutex
	subs      map[*Subscriber]struct{}
	buffer    int
	closed    bool
	cleanupWg sync.WaitGroup
}

// NewBus creates a bus with the given per-subscriber buffer size
// (minimum 1).
func NewBus(buffer int) *Bus {
	return &Bus{
		subs:   make(map[*Subscriber]struct{}),
		buffer: max(buffer, 1),
	}
}

// Subscribe registers a new subscriber. The subscription is removed when
// ctx is cancelled. A closed bus returns an already-closed subscriber.
func (b *Bus) Subscribe(ctx context.Context) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber{ch: make(chan Invalidation, b.buffer)}
	if b.closed {
		sub.Close()
		return sub
	}
	b.subs[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			<-ctx.Done()
			b.unsubscribe(sub)
		}()
	}
	return sub
}

// Publish delivers the event to every subscriber that can take it.
func (b *Bus) Publish(ctx context.Context, ev Invalidation) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for sub := range b.subs {
		if !sub.send(ev) {
			go b.unsubscribe(sub)
		}
	}
}

// Close shuts the bus down and closes all subscribers. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscriber, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	clear(b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	b.cleanupWg.Wait()
}

func (b *Bus) unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	_, present := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()

	if present {
		sub.Close()
	}
}
