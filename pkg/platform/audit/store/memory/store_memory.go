package memory

import (
	"context"
	"sync"

	"idledger/pkg/domain"
	audit "idledger/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByCaller returns the caller's events in emission order.
func (s *InMemoryStore) ListByCaller(_ context.Context, caller domain.Address) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []audit.Event{}
	for _, event := range s.events {
		if event.Caller == caller {
			out = append(out, event)
		}
	}
	return out, nil
}

// ListAll returns every event in emission order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListRecent returns the most recent limit events, oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.events)-limit, 0)
	return append([]audit.Event{}, s.events[start:]...), nil
}
