package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"homecook-backend/internal/domain"
)

// RedisBroker fans out across instances over Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	prefix string
}

func NewRedisBroker(client *redis.Client, prefix string) *RedisBroker {
	if prefix == "" {
		prefix = "orders"
	}
	return &RedisBroker{client: client, prefix: prefix}
}

func (b *RedisBroker) channel(f Filter) string {
	if f.OrderID != "" {
		return b.prefix + ":" + f.OrderID
	}
	return b.prefix + ":user:" + f.UserID
}

func (b *RedisBroker) Publish(ctx context.Context, o domain.Order) {
	raw, err := json.Marshal(o)
	if err != nil {
		slog.ErrorContext(ctx, "realtime marshal failed", "order_id", o.ID, "error", err)
		return
	}
	for _, ch := range []string{b.channel(Filter{OrderID: o.ID}), b.channel(Filter{UserID: o.UserID})} {
		if err := b.client.Publish(ctx, ch, raw).Err(); err != nil {
			slog.ErrorContext(ctx, "realtime publish failed", "order_id", o.ID, "channel", ch, "error", err)
		}
	}
}

func (b *RedisBroker) Subscribe(ctx context.Context, f Filter) (<-chan domain.Order, func()) {
	ps := b.client.Subscribe(ctx, b.channel(f))
	out := make(chan domain.Order, subscriberBuffer)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var o domain.Order
				if err := json.Unmarshal([]byte(m.Payload), &o); err != nil {
					slog.WarnContext(ctx, "realtime decode failed", "channel", m.Channel, "error", err)
					continue
				}
				if f.match(o) {
					offer(out, o)
				}
			}
		}
	}()
	return out, cancel
}
