package doordash

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"homecook-backend/internal/domain"
)

var ErrMalformedEvent = errors.New("doordash: malformed webhook event")

type EventName string

const (
	EventDasherConfirmed               EventName = "DASHER_CONFIRMED"
	EventDasherConfirmedPickupArrival  EventName = "DASHER_CONFIRMED_PICKUP_ARRIVAL"
	EventDasherPickedUp                EventName = "DASHER_PICKED_UP"
	EventDasherConfirmedDropoffArrival EventName = "DASHER_CONFIRMED_DROPOFF_ARRIVAL"
	EventDasherDroppedOff              EventName = "DASHER_DROPPED_OFF"
	EventDeliveryCancelled             EventName = "DELIVERY_CANCELLED"
)

// Event is an inbound delivery lifecycle webhook.
type Event struct {
	Name               EventName `json:"event_name"`
	ExternalDeliveryID string    `json:"external_delivery_id"`
	CreatedAt          time.Time `json:"created_at"`
	TrackingURL        string    `json:"tracking_url,omitempty"`
}

// ParseEvent decodes a webhook body. Only structurally broken payloads fail;
// unknown event names decode fine and are filtered by Status.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	ev.Name = EventName(strings.TrimSpace(string(ev.Name)))
	ev.ExternalDeliveryID = strings.TrimSpace(ev.ExternalDeliveryID)
	if ev.Name == "" {
		return Event{}, fmt.Errorf("%w: event_name required", ErrMalformedEvent)
	}
	if ev.ExternalDeliveryID == "" {
		return Event{}, fmt.Errorf("%w: external_delivery_id required", ErrMalformedEvent)
	}
	return ev, nil
}

// Status maps a provider event name onto the canonical delivery status.
func (n EventName) Status() (domain.DeliveryStatus, bool) {
	switch n {
	case EventDasherConfirmed:
		return domain.DeliveryConfirmed, true
	case EventDasherConfirmedPickupArrival:
		return domain.DeliveryDasherArriving, true
	case EventDasherPickedUp:
		return domain.DeliveryPickedUp, true
	case EventDasherConfirmedDropoffArrival:
		return domain.DeliveryArrivingAtDropoff, true
	case EventDasherDroppedOff:
		return domain.DeliveryDelivered, true
	case EventDeliveryCancelled:
		return domain.DeliveryCancelled, true
	default:
		return domain.DeliveryNone, false
	}
}
