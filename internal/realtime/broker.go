// Package realtime pushes order row changes to subscribed clients.
//
// Every push carries the full row. Delivery is at-least-once per live
// subscriber with latest-state coalescing: a slow subscriber may miss
// intermediate rows but always receives the newest one.
package realtime

import (
	"context"

	"homecook-backend/internal/domain"
)

const subscriberBuffer = 8

// Filter selects orders by id or by owning customer. Exactly one is set.
type Filter struct {
	OrderID string
	UserID  string
}

func (f Filter) match(o domain.Order) bool {
	if f.OrderID != "" {
		return o.ID == f.OrderID
	}
	return f.UserID != "" && o.UserID == f.UserID
}

type Broker interface {
	Publish(ctx context.Context, o domain.Order)
	// Subscribe returns a stream of matching rows. The stream closes when ctx
	// ends or cancel is called.
	Subscribe(ctx context.Context, f Filter) (stream <-chan domain.Order, cancel func())
}

// offer sends o to ch, evicting the oldest buffered row when ch is full.
func offer(ch chan domain.Order, o domain.Order) {
	for {
		select {
		case ch <- o:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
