package usecase

import (
	"context"

	"homecook-backend/internal/domain"
)

// OrderService resolves orders by id or by payment intent for the customer
// who placed them or the chef cooking them.
type OrderService struct {
	Repo OrderRepo
}

func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized("user required")
	}
	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrder(o, userID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) GetByIntent(ctx context.Context, userID, intentID string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized("user required")
	}
	o, err := s.Repo.GetOrderByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrder(o, userID); err != nil {
		return nil, err
	}
	return o, nil
}

func authorizeOrder(o *domain.Order, userID string) error {
	if o.UserID == userID || deref(o.ChefUserID) == userID {
		return nil
	}
	return ErrForbidden("order belongs to another user")
}
