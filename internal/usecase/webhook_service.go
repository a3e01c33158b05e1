package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"homecook-backend/internal/infrastructure/doordash"
)

type WebhookOutcome string

const (
	OutcomeApplied      WebhookOutcome = "applied"
	OutcomeDuplicate    WebhookOutcome = "duplicate"
	OutcomeStale        WebhookOutcome = "stale"
	OutcomeUnknownEvent WebhookOutcome = "unknown_event"
	OutcomeUnknownOrder WebhookOutcome = "unknown_order"
)

const maxStatusWriteAttempts = 5

// WebhookService reconciles delivery lifecycle events into the order store.
//
// Ordering policy: statuses are ranked along the delivery state machine and
// only forward moves are written. A repeated event is a no-op, an event
// older than the stored status is dropped, cancellation is accepted from any
// dispatched non-terminal state, and terminal states never change. Writes
// are compare-and-set on the previous status so concurrent deliveries of
// different events cannot regress the row.
type WebhookService struct {
	Orders    OrderRepo
	Publisher OrderPublisher
	// AuthHeader is the Authorization value configured on the provider's
	// webhook endpoint. Empty rejects every call unless AllowUnauthenticated
	// is set.
	AuthHeader string
	// AllowUnauthenticated accepts any caller while AuthHeader is empty.
	// Only local development sets it.
	AllowUnauthenticated bool
}

// Authenticate checks the inbound Authorization header in constant time.
func (s *WebhookService) Authenticate(header string) bool {
	if s.AuthHeader == "" {
		return s.AllowUnauthenticated
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(s.AuthHeader)) == 1
}

func (s *WebhookService) HandleDeliveryEvent(ctx context.Context, ev doordash.Event) (WebhookOutcome, error) {
	next, ok := ev.Name.Status()
	if !ok {
		slog.InfoContext(ctx, "ignoring unrecognized delivery event", "event_name", ev.Name, "external_delivery_id", ev.ExternalDeliveryID)
		return OutcomeUnknownEvent, nil
	}
	for attempt := 0; attempt < maxStatusWriteAttempts; attempt++ {
		cur, err := s.Orders.GetOrderByExternalDelivery(ctx, ev.ExternalDeliveryID)
		if IsNotFound(err) {
			slog.InfoContext(ctx, "delivery event for unknown order", "event_name", ev.Name, "external_delivery_id", ev.ExternalDeliveryID)
			return OutcomeUnknownOrder, nil
		}
		if err != nil {
			return "", err
		}
		if cur.DeliveryStatus == next {
			return OutcomeDuplicate, nil
		}
		if !cur.AcceptsDeliveryStatus(next) {
			slog.InfoContext(ctx, "dropping stale delivery event", "order_id", cur.ID, "external_delivery_id", ev.ExternalDeliveryID,
				"current", cur.DeliveryStatus, "incoming", next)
			return OutcomeStale, nil
		}
		updated, ok, err := s.Orders.CompareAndSetDeliveryStatus(ctx, ev.ExternalDeliveryID, cur.DeliveryStatus, next, now())
		if IsNotFound(err) {
			return OutcomeUnknownOrder, nil
		}
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if s.Publisher != nil {
			s.Publisher.Publish(ctx, *updated)
		}
		slog.InfoContext(ctx, "delivery status updated", "order_id", updated.ID, "external_delivery_id", ev.ExternalDeliveryID,
			"from", cur.DeliveryStatus, "to", next)
		return OutcomeApplied, nil
	}
	return "", fmt.Errorf("delivery status for %s kept changing, giving up after %d attempts", ev.ExternalDeliveryID, maxStatusWriteAttempts)
}

