package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homecook-backend/internal/domain"
)

func recv(t *testing.T, ch <-chan domain.Order) domain.Order {
	t.Helper()
	select {
	case o, ok := <-ch:
		require.True(t, ok, "stream closed")
		return o
	case <-time.After(time.Second):
		t.Fatal("no push received")
	}
	return domain.Order{}
}

func TestHub_FiltersByOrderAndUser(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	byOrder, cancelA := h.Subscribe(ctx, Filter{OrderID: "o1"})
	defer cancelA()
	byUser, cancelB := h.Subscribe(ctx, Filter{UserID: "u1"})
	defer cancelB()

	h.Publish(ctx, domain.Order{ID: "o2", UserID: "u2"})
	h.Publish(ctx, domain.Order{ID: "o1", UserID: "u1", DeliveryStatus: domain.DeliveryConfirmed})

	assert.Equal(t, "o1", recv(t, byOrder).ID)
	assert.Equal(t, "o1", recv(t, byUser).ID)
	assert.Len(t, byOrder, 0)
}

func TestHub_SlowSubscriberKeepsLatest(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(context.Background(), Filter{OrderID: "o1"})
	defer cancel()

	statuses := []domain.DeliveryStatus{
		domain.DeliveryConfirmed, domain.DeliveryDasherArriving, domain.DeliveryPickedUp,
		domain.DeliveryArrivingAtDropoff, domain.DeliveryDelivered,
	}
	for i := 0; i < 3; i++ {
		for _, s := range statuses {
			h.Publish(context.Background(), domain.Order{ID: "o1", DeliveryStatus: s})
		}
	}

	var last domain.Order
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, domain.DeliveryDelivered, last.DeliveryStatus)
}

func TestHub_CancelOnContext(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := h.Subscribe(ctx, Filter{UserID: "u1"})
	require.Equal(t, 1, h.Len())

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("stream not closed")
	}
	assert.Equal(t, 0, h.Len())
}
