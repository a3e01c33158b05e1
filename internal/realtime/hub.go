package realtime

import (
	"context"
	"sync"

	"homecook-backend/internal/domain"
)

type subscriber struct {
	filter Filter
	ch     chan domain.Order
}

// Hub fans out in process. It serves single-instance deployments and tests.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[*subscriber]struct{}{}}
}

func (h *Hub) Publish(ctx context.Context, o domain.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if s.filter.match(o) {
			offer(s.ch, o)
		}
	}
}

func (h *Hub) Subscribe(ctx context.Context, f Filter) (<-chan domain.Order, func()) {
	s := &subscriber{filter: f, ch: make(chan domain.Order, subscriberBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			close(s.ch)
			h.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return s.ch, cancel
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
