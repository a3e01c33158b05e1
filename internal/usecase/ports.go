package usecase

import (
	"context"
	"time"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/doordash"
	"homecook-backend/internal/infrastructure/notify"
	"homecook-backend/internal/infrastructure/stripepay"
)

// OrderRepo is the Order Store. Implementations must make every mutating
// call atomic for the row it touches.
type OrderRepo interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByIntent(ctx context.Context, intentID string) (*domain.Order, error)
	GetOrderByExternalDelivery(ctx context.Context, externalID string) (*domain.Order, error)
	SetPaymentStatus(ctx context.Context, intentID, status string, at time.Time) (*domain.Order, error)
	SetDeliveryFee(ctx context.Context, id string, feeCents int64, at time.Time) (*domain.Order, error)
	// ApplyDispatch writes the dispatch fields. It fails with ErrConflict when
	// the row already carries a different external delivery id.
	ApplyDispatch(ctx context.Context, id string, p domain.DispatchPatch) (*domain.Order, error)
	// CompareAndSetDeliveryStatus updates delivery_status only while it still
	// equals prev. ok is false when another writer got there first.
	CompareAndSetDeliveryStatus(ctx context.Context, externalID string, prev, next domain.DeliveryStatus, at time.Time) (o *domain.Order, ok bool, err error)
}

type PayoutRepo interface {
	CreatePayout(ctx context.Context, p *domain.Payout) error
	// FinalizePayout moves a processing row to its outcome. Rows already out
	// of processing are left alone and reported as ErrConflict.
	FinalizePayout(ctx context.Context, id string, status domain.PayoutStatus, stripePayoutID, failureReason *string) (*domain.Payout, error)
	GetPayout(ctx context.Context, id string) (*domain.Payout, error)
	ListPayouts(ctx context.Context, chefUserID string, limit int) ([]domain.Payout, error)
}

type ChefRepo interface {
	GetChef(ctx context.Context, userID string) (*domain.ChefAccount, error)
	PutChef(ctx context.Context, c *domain.ChefAccount) error
}

type PaymentProcessor interface {
	CreateIntent(ctx context.Context, p stripepay.IntentParams) (*stripepay.Intent, error)
	GetIntent(ctx context.Context, id string) (*stripepay.Intent, error)
	CancelIntent(ctx context.Context, id string) error
	GetBalance(ctx context.Context, accountID string) (*stripepay.Balance, error)
	CreatePayout(ctx context.Context, p stripepay.PayoutParams) (*stripepay.Payout, error)
	CreateAccount(ctx context.Context, chefUserID string) (*stripepay.Account, error)
	GetAccount(ctx context.Context, accountID string) (*stripepay.Account, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
}

type DispatchClient interface {
	Quote(ctx context.Context, r doordash.DeliveryRequest) (*doordash.Quote, error)
	CreateDelivery(ctx context.Context, r doordash.DeliveryRequest) (*doordash.Delivery, error)
	GetDelivery(ctx context.Context, externalID string) (*doordash.Delivery, error)
}

type Notifier interface {
	Notify(ctx context.Context, m notify.Message) error
}

// OrderPublisher pushes the full order row to real-time subscribers.
type OrderPublisher interface {
	Publish(ctx context.Context, o domain.Order)
}

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}
