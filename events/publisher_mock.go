package events

import (
	"context"
	"sync"
)

// MemoryPublisher records published events in memory for tests
type MemoryPublisher struct {
	mu        sync.Mutex
	Published []Envelope

	// PublishError, when set, is returned from every Publish call
	PublishError error
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (m *MemoryPublisher) Publish(_ context.Context, routingKey string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return m.PublishError
	}
	m.Published = append(m.Published, Envelope{Event: routingKey, Data: data})
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns the routing keys published so far, in order
func (m *MemoryPublisher) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Published))
	for _, e := range m.Published {
		keys = append(keys, e.Event)
	}
	return keys
}

// Count returns how many events with the given routing key were published
func (m *MemoryPublisher) Count(routingKey string) int {
	n := 0
	for _, key := range m.Events() {
		if key == routingKey {
			n++
		}
	}
	return n
}
