package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/doordash"
	"homecook-backend/internal/infrastructure/notify"
	"homecook-backend/internal/money"
)

const (
	DefaultDeliveryIDPrefix       = "homecook"
	DefaultDeliveryFeeCents int64 = 999
)

type DispatchRequest struct {
	UserID          string
	PaymentIntentID string
	Dropoff         domain.Stop
}

type DispatchResult struct {
	Order       *domain.Order         `json:"order"`
	TrackingURL string                `json:"trackingUrl"`
	Status      domain.DeliveryStatus `json:"deliveryStatus"`
	FeeCents    int64                 `json:"deliveryFeeCents"`
}

// DispatchService books the delivery for a paid order.
type DispatchService struct {
	Orders          OrderRepo
	Chefs           ChefRepo
	Drive           DispatchClient
	Notifier        Notifier
	Publisher       OrderPublisher
	Cache           Cache
	IDPrefix        string
	DefaultFeeCents int64
}

// ExternalDeliveryID is the provider-side idempotency key for an order.
func (s *DispatchService) ExternalDeliveryID(orderID string) string {
	prefix := s.IDPrefix
	if prefix == "" {
		prefix = DefaultDeliveryIDPrefix
	}
	return prefix + "-" + orderID
}

func (s *DispatchService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if req.UserID == "" {
		return nil, ErrUnauthorized("user required")
	}
	if strings.TrimSpace(req.PaymentIntentID) == "" {
		return nil, ErrBadRequest("payment intent id required")
	}
	if strings.TrimSpace(req.Dropoff.Address) == "" {
		return nil, ErrBadRequest("dropoff address required")
	}
	phone, ok := NormalizePhone(req.Dropoff.Phone)
	if !ok {
		return nil, ErrBadRequest("dropoff phone must be a valid phone number")
	}
	req.Dropoff.Phone = phone

	o, err := s.Orders.GetOrderByIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if o.UserID != req.UserID {
		return nil, ErrForbidden("order belongs to another user")
	}
	if o.DeliveryStatus == domain.DeliveryCancelled {
		return nil, ErrConflict("delivery for this order was cancelled")
	}
	pickup, err := s.pickup(ctx, o)
	if err != nil {
		return nil, err
	}

	externalID := s.ExternalDeliveryID(o.ID)
	alreadyDispatched := o.Dispatched() && o.DeliveryTrackingURL != nil
	if !alreadyDispatched && o.ExternalDeliveryID == nil {
		// Persist the correlation key and snapshot before calling out so an
		// interrupted dispatch leaves a row that can be reconciled.
		o, err = s.Orders.ApplyDispatch(ctx, o.ID, domain.DispatchPatch{
			ExternalDeliveryID: externalID,
			DeliveryService:    doordash.ServiceName,
			DeliveryStatus:     domain.DeliveryNone,
			Pickup:             pickup,
			Dropoff:            req.Dropoff,
			UpdatedAt:          now(),
		})
		if err != nil {
			return nil, err
		}
	}

	d, err := s.createDelivery(ctx, deliveryRequest(externalID, pickup, req.Dropoff, o.Amount))
	if err != nil {
		slog.ErrorContext(ctx, "create delivery failed", "order_id", o.ID, "external_delivery_id", externalID, "error", err)
		return nil, providerError(err)
	}
	if alreadyDispatched {
		slog.InfoContext(ctx, "dispatch retried for existing job", "order_id", o.ID, "external_delivery_id", externalID)
		return resultOf(o), nil
	}

	status := domain.ParseDeliveryStatus(d.DeliveryStatus, domain.DeliveryConfirmed)
	if status == domain.DeliveryNone {
		status = domain.DeliveryConfirmed
	}
	fee := s.resolveFee(ctx, o, d, pickup, req.Dropoff)
	updated, err := s.Orders.ApplyDispatch(ctx, o.ID, domain.DispatchPatch{
		ExternalDeliveryID:  externalID,
		DeliveryService:     doordash.ServiceName,
		DeliveryStatus:      status,
		DeliveryTrackingURL: d.TrackingURL,
		DeliveryFeeCents:    &fee,
		Pickup:              pickup,
		Dropoff:             req.Dropoff,
		UpdatedAt:           now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "CRITICAL: delivery created but order update failed",
			"order_id", o.ID, "external_delivery_id", externalID, "error", err)
		return nil, err
	}
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, *updated)
	}
	slog.InfoContext(ctx, "delivery dispatched", "order_id", o.ID, "external_delivery_id", externalID,
		"delivery_status", updated.DeliveryStatus, "fee_cents", fee)
	s.notifyCustomer(ctx, updated)
	return resultOf(updated), nil
}

// createDelivery treats a duplicate-id answer as success by reading back the
// job the provider already holds.
func (s *DispatchService) createDelivery(ctx context.Context, r doordash.DeliveryRequest) (*doordash.Delivery, error) {
	d, err := s.Drive.CreateDelivery(ctx, r)
	if err == nil {
		return d, nil
	}
	if !doordash.IsDuplicate(err) {
		return nil, err
	}
	slog.InfoContext(ctx, "delivery already exists, fetching", "external_delivery_id", r.ExternalDeliveryID)
	return s.Drive.GetDelivery(ctx, r.ExternalDeliveryID)
}

func (s *DispatchService) pickup(ctx context.Context, o *domain.Order) (domain.Stop, error) {
	chefID := deref(o.ChefUserID)
	if chefID == "" {
		return domain.Stop{}, ErrUnconfigured("order has no chef to pick up from")
	}
	chef, err := s.Chefs.GetChef(ctx, chefID)
	if IsNotFound(err) {
		return domain.Stop{}, ErrUnconfigured("chef has no pickup address on file")
	}
	if err != nil {
		return domain.Stop{}, err
	}
	if strings.TrimSpace(chef.PickupAddress) == "" {
		return domain.Stop{}, ErrUnconfigured("chef has no pickup address on file")
	}
	phone, _ := NormalizePhone(chef.PickupPhone)
	return domain.Stop{
		Address:      chef.PickupAddress,
		Phone:        phone,
		BusinessName: chef.BusinessName,
		Instructions: chef.PickupInstructions,
	}, nil
}

// resolveFee prefers the provider's fee, then a quoted fee, then the default.
func (s *DispatchService) resolveFee(ctx context.Context, o *domain.Order, d *doordash.Delivery, pickup, dropoff domain.Stop) int64 {
	if d.Fee != nil && *d.Fee >= 0 {
		return *d.Fee
	}
	if o.DeliveryFeeCents != nil {
		return *o.DeliveryFeeCents
	}
	if fee, ok := cachedQuote(ctx, s.Cache, o.UserID, pickup.Address, dropoff.Address); ok {
		return fee
	}
	if s.DefaultFeeCents > 0 {
		return s.DefaultFeeCents
	}
	return DefaultDeliveryFeeCents
}

// notifyCustomer sends the tracking SMS in the background. It never affects
// the dispatch outcome.
func (s *DispatchService) notifyCustomer(ctx context.Context, o *domain.Order) {
	if s.Notifier == nil || o.Dropoff.Phone == "" {
		return
	}
	msg := notify.Message{
		Phone:   o.Dropoff.Phone,
		OrderID: o.ID,
		Body:    fmt.Sprintf("Your order is on its way! Track it here: %s", deref(o.DeliveryTrackingURL)),
	}
	if fee := o.DeliveryFeeCents; fee != nil {
		msg.Body += fmt.Sprintf(" (delivery fee $%s)", money.Display(*fee))
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(bg, "sms notification panicked", "order_id", o.ID, "panic", r)
			}
		}()
		if err := s.Notifier.Notify(bg, msg); err != nil {
			slog.WarnContext(bg, "sms notification failed", "order_id", o.ID, "error", err)
		}
	}()
}

func resultOf(o *domain.Order) *DispatchResult {
	res := &DispatchResult{Order: o, TrackingURL: deref(o.DeliveryTrackingURL), Status: o.DeliveryStatus}
	if o.DeliveryFeeCents != nil {
		res.FeeCents = *o.DeliveryFeeCents
	}
	return res
}

func providerError(err error) error {
	pe := &ProviderError{Provider: doordash.ServiceName, Message: err.Error(), Err: err}
	var ae *doordash.APIError
	if errors.As(err, &ae) {
		pe.Code = ae.Code
		pe.Message = ae.Message
	}
	return pe
}
