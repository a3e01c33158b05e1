package domain

import "time"

// Order is one checkout's payment and delivery record.
type Order struct {
	ID                    string         `json:"id"`
	UserID                string         `json:"userId"`
	ChefUserID            *string        `json:"chefUserId"`
	Amount                int64          `json:"amount"`
	Currency              string         `json:"currency"`
	DeliveryFeeCents      *int64         `json:"deliveryFeeCents"`
	StripePaymentIntentID string         `json:"stripePaymentIntentId"`
	Status                string         `json:"status"`
	ExternalDeliveryID    *string        `json:"externalDeliveryId"`
	DeliveryService       *string        `json:"deliveryService"`
	DeliveryStatus        DeliveryStatus `json:"deliveryStatus"`
	DeliveryTrackingURL   *string        `json:"deliveryTrackingUrl"`
	Pickup                Stop           `json:"pickup"`
	Dropoff               Stop           `json:"dropoff"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// Stop is the address block snapshotted onto an order at dispatch time.
type Stop struct {
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	BusinessName string `json:"businessName"`
	Instructions string `json:"instructions"`
}

// Dispatched reports whether the provider already accepted a job for this order.
func (o *Order) Dispatched() bool {
	return o.ExternalDeliveryID != nil && *o.ExternalDeliveryID != "" && o.DeliveryStatus != DeliveryNone
}

// AcceptsDeliveryStatus reports whether a provider event may move the row to
// next. A reserved delivery that never recorded a confirmation can still be
// cancelled, since the provider job may exist.
func (o *Order) AcceptsDeliveryStatus(next DeliveryStatus) bool {
	if next == DeliveryCancelled && o.DeliveryStatus == DeliveryNone {
		return o.ExternalDeliveryID != nil && *o.ExternalDeliveryID != ""
	}
	return o.DeliveryStatus.CanAdvance(next)
}

// DispatchPatch carries the fields written atomically when a delivery is
// reserved or created. Empty tracking URL and nil fee keep the stored values.
type DispatchPatch struct {
	ExternalDeliveryID  string
	DeliveryService     string
	DeliveryStatus      DeliveryStatus
	DeliveryTrackingURL string
	DeliveryFeeCents    *int64
	Pickup              Stop
	Dropoff             Stop
	UpdatedAt           time.Time
}
