package stripepay

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Mock is an in-memory processor for local runs without Stripe credentials.
type Mock struct {
	mu       sync.Mutex
	intents  map[string]*Intent
	balances map[string]Balance
	accounts map[string]*Account
	payouts  []PayoutParams
}

func NewMock() *Mock {
	return &Mock{
		intents:  map[string]*Intent{},
		balances: map[string]Balance{},
		accounts: map[string]*Account{},
	}
}

func (m *Mock) CreateIntent(ctx context.Context, p IntentParams) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	in := &Intent{ID: id, ClientSecret: id + "_secret_mock", Status: "requires_payment_method"}
	m.intents[id] = in
	cp := *in
	return &cp, nil
}

func (m *Mock) GetIntent(ctx context.Context, id string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return nil, &Error{HTTPStatus: 404, Code: "resource_missing", Message: "No such payment_intent: " + id}
	}
	return &Intent{ID: in.ID, Status: in.Status}, nil
}

func (m *Mock) CancelIntent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return &Error{HTTPStatus: 404, Code: "resource_missing", Message: "No such payment_intent: " + id}
	}
	in.Status = "canceled"
	return nil
}

// SetIntentStatus simulates the customer confirming a payment.
func (m *Mock) SetIntentStatus(id, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in, ok := m.intents[id]; ok {
		in.Status = status
	}
}

func (m *Mock) SetBalance(accountID string, b Balance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[accountID] = b
}

func (m *Mock) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balances[accountID]
	return &b, nil
}

func (m *Mock) CreatePayout(ctx context.Context, p PayoutParams) (*Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payouts = append(m.payouts, p)
	status := "pending"
	if p.Instant {
		status = "paid"
	}
	return &Payout{ID: "po_mock_" + strings.ReplaceAll(uuid.NewString(), "-", ""), Status: status}, nil
}

func (m *Mock) CreateAccount(ctx context.Context, chefUserID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &Account{ID: "acct_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]}
	m.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *Mock) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, &Error{HTTPStatus: 404, Code: "resource_missing", Message: "No such account: " + accountID}
	}
	cp := *a
	return &cp, nil
}

// CompleteOnboarding marks a mock account as fully onboarded.
func (m *Mock) CompleteOnboarding(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[accountID]; ok {
		a.DetailsSubmitted, a.ChargesEnabled, a.PayoutsEnabled = true, true, true
	}
}

func (m *Mock) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.stripe.com/setup/mock/" + accountID, nil
}

// ParseWebhook accepts unsigned event bodies in mock mode.
func (m *Mock) ParseWebhook(payload []byte, signature string) (PaymentEvent, error) {
	var ev struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return PaymentEvent{}, err
	}
	out := PaymentEvent{Type: ev.Type}
	if strings.HasPrefix(ev.Type, "payment_intent.") {
		out.IntentID = ev.Data.Object.ID
		out.Status = ev.Data.Object.Status
	}
	return out, nil
}
