package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/cache"
	"homecook-backend/internal/infrastructure/doordash"
	"homecook-backend/internal/infrastructure/notify"
	"homecook-backend/internal/infrastructure/repo"
	"homecook-backend/internal/infrastructure/stripepay"
	"homecook-backend/internal/usecase"
)

// fakeDispatch behaves like the provider: one job per external id, with a
// duplicate error on repeated creates.
type fakeDispatch struct {
	mu          sync.Mutex
	quoteFee    int64
	quoteErr    error
	createErr   error
	trackingURL string
	fee         *int64
	jobs        map[string]*doordash.Delivery
	creates     []string
	quotes      []doordash.DeliveryRequest
}

func newFakeDispatch(trackingURL string) *fakeDispatch {
	return &fakeDispatch{trackingURL: trackingURL, quoteFee: 725, jobs: map[string]*doordash.Delivery{}}
}

func (f *fakeDispatch) Quote(ctx context.Context, r doordash.DeliveryRequest) (*doordash.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = append(f.quotes, r)
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &doordash.Quote{ExternalDeliveryID: r.ExternalDeliveryID, Fee: f.quoteFee, Currency: "USD"}, nil
}

func (f *fakeDispatch) CreateDelivery(ctx context.Context, r doordash.DeliveryRequest) (*doordash.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, r.ExternalDeliveryID)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.jobs[r.ExternalDeliveryID]; ok {
		return nil, &doordash.APIError{Status: http.StatusConflict, Code: "duplicate_delivery_id", Message: "delivery exists"}
	}
	d := &doordash.Delivery{
		ID:                 "dd_" + r.ExternalDeliveryID,
		ExternalDeliveryID: r.ExternalDeliveryID,
		TrackingURL:        f.trackingURL,
		DeliveryStatus:     "created",
		Fee:                f.fee,
	}
	f.jobs[r.ExternalDeliveryID] = d
	cp := *d
	return &cp, nil
}

func (f *fakeDispatch) GetDelivery(ctx context.Context, externalID string) (*doordash.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.jobs[externalID]
	if !ok {
		return nil, &doordash.APIError{Status: http.StatusNotFound, Code: "not_found", Message: "no such delivery"}
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDispatch) createdIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.creates...)
}

type fakeNotifier struct {
	err  error
	sent chan notify.Message
}

func newFakeNotifier(err error) *fakeNotifier {
	return &fakeNotifier{err: err, sent: make(chan notify.Message, 4)}
}

func (n *fakeNotifier) Notify(ctx context.Context, m notify.Message) error {
	n.sent <- m
	return n.err
}

func (n *fakeNotifier) wait(t *testing.T) notify.Message {
	t.Helper()
	select {
	case m := <-n.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
		return notify.Message{}
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (p *recordingPublisher) Publish(ctx context.Context, o domain.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
}

func (p *recordingPublisher) last() domain.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orders[len(p.orders)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}

// processor wraps the mock with injectable failures.
type processor struct {
	*stripepay.Mock
	mu        sync.Mutex
	intents   []stripepay.IntentParams
	created   []string
	createErr error
	payoutErr error
	onPayout  func()
}

func (p *processor) CreateIntent(ctx context.Context, in stripepay.IntentParams) (*stripepay.Intent, error) {
	p.mu.Lock()
	p.intents = append(p.intents, in)
	p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	out, err := p.Mock.CreateIntent(ctx, in)
	if err == nil {
		p.mu.Lock()
		p.created = append(p.created, out.ID)
		p.mu.Unlock()
	}
	return out, err
}

func (p *processor) CreatePayout(ctx context.Context, in stripepay.PayoutParams) (*stripepay.Payout, error) {
	if p.onPayout != nil {
		p.onPayout()
	}
	if p.payoutErr != nil {
		return nil, p.payoutErr
	}
	return p.Mock.CreatePayout(ctx, in)
}

// countingOrders counts dispatch writes and can fail inserts.
type countingOrders struct {
	*repo.MemoryOrderRepo
	mu        sync.Mutex
	applies   int
	createErr error
}

func (c *countingOrders) CreateOrder(ctx context.Context, o *domain.Order) error {
	if c.createErr != nil {
		return c.createErr
	}
	return c.MemoryOrderRepo.CreateOrder(ctx, o)
}

func (c *countingOrders) ApplyDispatch(ctx context.Context, id string, p domain.DispatchPatch) (*domain.Order, error) {
	c.mu.Lock()
	c.applies++
	c.mu.Unlock()
	return c.MemoryOrderRepo.ApplyDispatch(ctx, id, p)
}

func (c *countingOrders) applyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applies
}

var errDatabaseDown = errors.New("database down")

// env is a fully wired set of services over in-memory adapters.
type env struct {
	orders    *countingOrders
	chefs     *repo.MemoryChefRepo
	payouts   *repo.MemoryPayoutRepo
	proc      *processor
	dispatch  *fakeDispatch
	notifier  *fakeNotifier
	publisher *recordingPublisher
	cache     *cache.MemoryCache
}

func newEnv() *env {
	return &env{
		orders:    &countingOrders{MemoryOrderRepo: repo.NewMemoryOrderRepo()},
		chefs:     repo.NewMemoryChefRepo(),
		payouts:   repo.NewMemoryPayoutRepo(),
		proc:      &processor{Mock: stripepay.NewMock()},
		dispatch:  newFakeDispatch("https://track.example/T"),
		notifier:  newFakeNotifier(nil),
		publisher: &recordingPublisher{},
		cache:     cache.NewMemoryCache("homecook"),
	}
}

func (e *env) addChef(t *testing.T, userID, accountID string, onboarded bool) {
	t.Helper()
	err := e.chefs.PutChef(context.Background(), &domain.ChefAccount{
		UserID:             userID,
		StripeAccountID:    accountID,
		OnboardingComplete: onboarded,
		BusinessName:       "Nonna's Kitchen",
		PickupAddress:      "1 Pickup St, Springfield",
		PickupPhone:        "(555) 010-2000",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (e *env) payments() *usecase.PaymentService {
	return &usecase.PaymentService{Orders: e.orders, Chefs: e.chefs, Processor: e.proc, Publisher: e.publisher, PlatformName: "homecook"}
}

func (e *env) dispatcher() *usecase.DispatchService {
	return &usecase.DispatchService{
		Orders:    e.orders,
		Chefs:     e.chefs,
		Drive:     e.dispatch,
		Notifier:  e.notifier,
		Publisher: e.publisher,
		Cache:     e.cache,
	}
}

func (e *env) webhooks() *usecase.WebhookService {
	return &usecase.WebhookService{Orders: e.orders, Publisher: e.publisher}
}

func (e *env) quotes() *usecase.QuoteService {
	return &usecase.QuoteService{Drive: e.dispatch, Orders: e.orders, Cache: e.cache, Publisher: e.publisher}
}

func (e *env) payoutService() *usecase.PayoutService {
	return &usecase.PayoutService{Payouts: e.payouts, Chefs: e.chefs, Processor: e.proc}
}

func (e *env) chefService() *usecase.ChefService {
	return &usecase.ChefService{Chefs: e.chefs, Processor: e.proc, RefreshURL: "https://app.example/refresh", ReturnURL: "https://app.example/return"}
}

// checkout creates a paid order for user with chef and returns it.
func (e *env) checkout(t *testing.T, user, chef string, amount float64) *domain.Order {
	t.Helper()
	ctx := context.Background()
	res, err := e.payments().CreateIntent(ctx, usecase.CreateIntentRequest{UserID: user, Amount: amount, ChefUserID: chef})
	if err != nil {
		t.Fatal(err)
	}
	e.proc.SetIntentStatus(res.PaymentIntentID, "succeeded")
	o, err := e.orders.GetOrder(ctx, res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	return o
}
