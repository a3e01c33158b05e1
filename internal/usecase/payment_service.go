package usecase

import (
	"context"
	"log/slog"
	"strings"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/stripepay"
	"homecook-backend/internal/money"
)

type CreateIntentRequest struct {
	UserID     string
	Amount     float64
	Currency   string
	ChefUserID string
}

type CreateIntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
	SplitApplied    bool   `json:"splitApplied"`
}

// PaymentService creates payment authorizations and their order rows.
type PaymentService struct {
	Orders       OrderRepo
	Chefs        ChefRepo
	Processor    PaymentProcessor
	Publisher    OrderPublisher
	PlatformName string
}

func (s *PaymentService) CreateIntent(ctx context.Context, req CreateIntentRequest) (*CreateIntentResult, error) {
	if req.UserID == "" {
		return nil, ErrUnauthorized("user required")
	}
	amount, err := money.ChargeCents(req.Amount)
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	currency := money.Currency(req.Currency)
	orderID := randomID()
	chefID := strings.TrimSpace(req.ChefUserID)

	params := stripepay.IntentParams{
		AmountCents: amount,
		Currency:    currency,
		Metadata: map[string]string{
			"platform": s.PlatformName,
			"user_id":  req.UserID,
			"order_id": orderID,
		},
	}
	if chefID != "" {
		params.Metadata["chef_user_id"] = chefID
		params.DestinationAccount = s.destination(ctx, chefID)
	}

	intent, err := s.Processor.CreateIntent(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "create payment intent failed", "user_id", req.UserID, "amount", amount, "error", err)
		return nil, &ProviderError{Provider: stripepay.ServiceName, Code: stripepay.Code(err), Message: stripepay.Message(err), Err: err}
	}

	t := now()
	o := &domain.Order{
		ID:                    orderID,
		UserID:                req.UserID,
		ChefUserID:            strPtr(chefID),
		Amount:                amount,
		Currency:              currency,
		StripePaymentIntentID: intent.ID,
		Status:                intent.Status,
		DeliveryStatus:        domain.DeliveryNone,
		CreatedAt:             t,
		UpdatedAt:             t,
	}
	if err := s.Orders.CreateOrder(ctx, o); err != nil {
		slog.ErrorContext(ctx, "order insert failed after authorization, voiding intent",
			"order_id", orderID, "payment_intent_id", intent.ID, "error", err)
		if cerr := s.Processor.CancelIntent(ctx, intent.ID); cerr != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to void orphaned payment intent",
				"payment_intent_id", intent.ID, "error", cerr)
		}
		return nil, err
	}
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, *o)
	}
	slog.InfoContext(ctx, "payment intent created", "order_id", orderID, "payment_intent_id", intent.ID,
		"amount", amount, "split", params.DestinationAccount != "")
	return &CreateIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		OrderID:         orderID,
		SplitApplied:    params.DestinationAccount != "",
	}, nil
}

// destination returns the chef's connected account when onboarding is done.
// Otherwise the platform keeps the whole charge and settles with the chef
// out of band.
func (s *PaymentService) destination(ctx context.Context, chefID string) string {
	if s.Chefs == nil {
		return ""
	}
	chef, err := s.Chefs.GetChef(ctx, chefID)
	if err != nil {
		slog.WarnContext(ctx, "chef lookup failed, charging without split", "chef_user_id", chefID, "error", err)
		return ""
	}
	if chef.StripeAccountID == "" || !chef.OnboardingComplete {
		slog.WarnContext(ctx, "chef not onboarded, charging without split", "chef_user_id", chefID)
		return ""
	}
	return chef.StripeAccountID
}

// SyncIntent polls the processor for the authorization's current status and
// records it on the order.
func (s *PaymentService) SyncIntent(ctx context.Context, userID, intentID string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized("user required")
	}
	o, err := s.Orders.GetOrderByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden("order belongs to another user")
	}
	intent, err := s.Processor.GetIntent(ctx, intentID)
	if err != nil {
		return nil, &ProviderError{Provider: stripepay.ServiceName, Code: stripepay.Code(err), Message: stripepay.Message(err), Err: err}
	}
	if intent.Status == o.Status {
		return o, nil
	}
	updated, err := s.Orders.SetPaymentStatus(ctx, intentID, intent.Status, now())
	if err != nil {
		return nil, err
	}
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, *updated)
	}
	return updated, nil
}

// ApplyPaymentEvent records a processor webhook's intent status. Events for
// unknown intents are ignored.
func (s *PaymentService) ApplyPaymentEvent(ctx context.Context, ev stripepay.PaymentEvent) error {
	if ev.IntentID == "" || ev.Status == "" {
		return nil
	}
	updated, err := s.Orders.SetPaymentStatus(ctx, ev.IntentID, ev.Status, now())
	if IsNotFound(err) {
		slog.InfoContext(ctx, "payment event for unknown intent", "payment_intent_id", ev.IntentID, "type", ev.Type)
		return nil
	}
	if err != nil {
		return err
	}
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, *updated)
	}
	return nil
}
