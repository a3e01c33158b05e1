package domain

// DeliveryStatus is the canonical delivery state, independent of provider event names.
type DeliveryStatus string

const (
	DeliveryNone              DeliveryStatus = ""
	DeliveryConfirmed         DeliveryStatus = "confirmed"
	DeliveryDasherArriving    DeliveryStatus = "dasher_arriving"
	DeliveryPickedUp          DeliveryStatus = "picked_up"
	DeliveryArrivingAtDropoff DeliveryStatus = "arriving_at_dropoff"
	DeliveryDelivered         DeliveryStatus = "delivered"
	DeliveryCancelled         DeliveryStatus = "cancelled"
)

var deliveryRank = map[DeliveryStatus]int{
	DeliveryNone:              0,
	DeliveryConfirmed:         1,
	DeliveryDasherArriving:    2,
	DeliveryPickedUp:          3,
	DeliveryArrivingAtDropoff: 4,
	DeliveryDelivered:         5,
}

// Valid reports whether s is one of the known canonical values.
func (s DeliveryStatus) Valid() bool {
	if s == DeliveryCancelled {
		return true
	}
	_, ok := deliveryRank[s]
	return ok
}

// Terminal reports whether no further transition is allowed out of s.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// CanAdvance reports whether moving from s to next is a forward transition.
// Cancellation is reachable from every dispatched, non-terminal state.
// Equal statuses return false: re-applying them is a no-op, not a transition.
func (s DeliveryStatus) CanAdvance(next DeliveryStatus) bool {
	if !next.Valid() || next == DeliveryNone || s.Terminal() {
		return false
	}
	if next == DeliveryCancelled {
		return s != DeliveryNone
	}
	return deliveryRank[next] > deliveryRank[s]
}

// ParseDeliveryStatus normalizes a provider-reported status string onto the
// canonical enum. Unknown or empty values fall back to def.
func ParseDeliveryStatus(v string, def DeliveryStatus) DeliveryStatus {
	switch v {
	case "created", "quote", "confirmed", "enroute_to_pickup":
		return DeliveryConfirmed
	case "arrived_at_pickup", "dasher_arriving":
		return DeliveryDasherArriving
	case "picked_up", "enroute_to_dropoff":
		return DeliveryPickedUp
	case "arrived_at_dropoff", "arriving_at_dropoff":
		return DeliveryArrivingAtDropoff
	case "delivered":
		return DeliveryDelivered
	case "cancelled", "canceled":
		return DeliveryCancelled
	}
	return def
}
