package domain

import "time"

type PayoutStatus string

const (
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

// Payout is one withdrawal attempt by a chef. It is written in processing
// before the processor is called and finalized exactly once afterwards.
type Payout struct {
	ID             string       `json:"id" db:"id"`
	ChefUserID     string       `json:"chefUserId" db:"chef_user_id"`
	AmountCents    int64        `json:"amountCents" db:"amount_cents"`
	Currency       string       `json:"currency" db:"currency"`
	Instant        bool         `json:"instant" db:"instant"`
	Status         PayoutStatus `json:"status" db:"status"`
	StripePayoutID *string      `json:"stripePayoutId" db:"stripe_payout_id"`
	FailureReason  *string      `json:"failureReason" db:"failure_reason"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
}

// Balance is a connected account's balance summed per bucket.
type Balance struct {
	Currency         string   `json:"currency"`
	AvailableCents   int64    `json:"availableCents"`
	PendingCents     int64    `json:"pendingCents"`
	InstantAvailable int64    `json:"instantAvailableCents"`
	RecentPayouts    []Payout `json:"recentPayouts"`
}
