// Package stripepay adapts the payment processor to the engine's needs:
// payment authorizations with destination splits, connected account
// balances and payouts, and onboarding.
package stripepay

import (
	"errors"
	"fmt"
)

const ServiceName = "stripe"

// ErrorCodeInstantPayoutsUnsupported is returned when the connected account
// has no instant-eligible external account.
const ErrorCodeInstantPayoutsUnsupported = "instant_payouts_unsupported"

type IntentParams struct {
	AmountCents        int64
	Currency           string
	DestinationAccount string
	Metadata           map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type Bucket struct {
	AmountCents int64
	Currency    string
}

type Balance struct {
	Available        []Bucket
	Pending          []Bucket
	InstantAvailable []Bucket
}

type PayoutParams struct {
	AccountID   string
	AmountCents int64
	Currency    string
	Instant     bool
	Metadata    map[string]string
}

type Payout struct {
	ID     string
	Status string
}

type Account struct {
	ID               string
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
}

// PaymentEvent is the subset of a processor webhook the order store cares about.
type PaymentEvent struct {
	Type     string
	IntentID string
	Status   string
}

// Error is a processor-side failure with its machine code.
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("stripe error: %s", e.Message)
	}
	return fmt.Sprintf("stripe error: %s (%s)", e.Message, e.Code)
}

// Code extracts the processor error code from err, if any.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Message extracts the processor's message from err, falling back to err's text.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
