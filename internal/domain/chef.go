package domain

import "time"

// ChefAccount is the chef profile data the engine reads: connected account
// linkage and the pickup block used at dispatch time.
type ChefAccount struct {
	UserID             string    `json:"userId" db:"user_id"`
	StripeAccountID    string    `json:"stripeAccountId" db:"stripe_account_id"`
	OnboardingComplete bool      `json:"onboardingComplete" db:"onboarding_complete"`
	BusinessName       string    `json:"businessName" db:"business_name"`
	PickupAddress      string    `json:"pickupAddress" db:"pickup_address"`
	PickupPhone        string    `json:"pickupPhone" db:"pickup_phone"`
	PickupInstructions string    `json:"pickupInstructions" db:"pickup_instructions"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}
