package stripepay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Client talks to Stripe. Calls are plain request/response; the stripe-go
// backend applies its own network retries for idempotent requests.
type Client struct {
	api           *client.API
	webhookSecret string
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("stripe secret key required")
	}
	return &Client{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (c *Client) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.DestinationAccount != "" {
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(p.DestinationAccount),
		}
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, convert(err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, convert(err)
	}
	return &Intent{ID: pi.ID, Status: string(pi.Status)}, nil
}

// CancelIntent voids an authorization that could not be recorded locally.
func (c *Client) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := c.api.PaymentIntents.Cancel(id, params); err != nil {
		return convert(err)
	}
	return nil
}

func (c *Client) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	params := &stripe.BalanceParams{}
	params.SetStripeAccount(accountID)
	params.Context = ctx
	b, err := c.api.Balance.Get(params)
	if err != nil {
		return nil, convert(err)
	}
	out := &Balance{}
	for _, a := range b.Available {
		out.Available = append(out.Available, Bucket{AmountCents: a.Amount, Currency: string(a.Currency)})
	}
	for _, a := range b.Pending {
		out.Pending = append(out.Pending, Bucket{AmountCents: a.Amount, Currency: string(a.Currency)})
	}
	for _, a := range b.InstantAvailable {
		out.InstantAvailable = append(out.InstantAvailable, Bucket{AmountCents: a.Amount, Currency: string(a.Currency)})
	}
	return out, nil
}

func (c *Client) CreatePayout(ctx context.Context, p PayoutParams) (*Payout, error) {
	params := &stripe.PayoutParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String(p.Currency),
	}
	if p.Instant {
		params.Method = stripe.String("instant")
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetStripeAccount(p.AccountID)
	params.Context = ctx
	po, err := c.api.Payouts.New(params)
	if err != nil {
		return nil, convert(err)
	}
	return &Payout{ID: po.ID, Status: string(po.Status)}, nil
}

func (c *Client) CreateAccount(ctx context.Context, chefUserID string) (*Account, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
	}
	params.AddMetadata("chef_user_id", chefUserID)
	params.Context = ctx
	a, err := c.api.Accounts.New(params)
	if err != nil {
		return nil, convert(err)
	}
	return toAccount(a), nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	a, err := c.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, convert(err)
	}
	return toAccount(a), nil
}

func (c *Client) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	l, err := c.api.AccountLinks.New(params)
	if err != nil {
		return "", convert(err)
	}
	return l.URL, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts payment
// intent events. Other event types come back with an empty IntentID.
func (c *Client) ParseWebhook(payload []byte, signature string) (PaymentEvent, error) {
	if c.webhookSecret == "" {
		return PaymentEvent{}, fmt.Errorf("stripe webhook secret not configured")
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return PaymentEvent{}, err
	}
	out := PaymentEvent{Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || ev.Data == nil {
		return out, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return PaymentEvent{}, err
	}
	out.IntentID = pi.ID
	out.Status = string(pi.Status)
	return out, nil
}

func toAccount(a *stripe.Account) *Account {
	return &Account{
		ID:               a.ID,
		DetailsSubmitted: a.DetailsSubmitted,
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
	}
}

func convert(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &Error{HTTPStatus: se.HTTPStatusCode, Code: string(se.Code), Message: se.Msg}
	}
	return err
}
