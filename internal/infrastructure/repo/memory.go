package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/usecase"
)

// MemoryOrderRepo keeps orders in process. A single mutex gives each call
// the per-row atomicity the services rely on.
type MemoryOrderRepo struct {
	mu         sync.RWMutex
	m          map[string]*domain.Order
	byIntent   map[string]string
	byDelivery map[string]string
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{
		m:          make(map[string]*domain.Order),
		byIntent:   make(map[string]string),
		byDelivery: make(map[string]string),
	}
}

func (r *MemoryOrderRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[o.ID]; ok {
		return usecase.ErrConflict("order already exists")
	}
	if _, ok := r.byIntent[o.StripePaymentIntentID]; ok {
		return usecase.ErrConflict("order already exists for payment intent")
	}
	cp := copyOrder(o)
	r.m[o.ID] = cp
	r.byIntent[o.StripePaymentIntentID] = o.ID
	if o.ExternalDeliveryID != nil {
		r.byDelivery[*o.ExternalDeliveryID] = o.ID
	}
	return nil
}

func (r *MemoryOrderRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[id]
	if !ok {
		return nil, usecase.ErrNotFound("order")
	}
	return copyOrder(o), nil
}

func (r *MemoryOrderRepo) GetOrderByIntent(ctx context.Context, intentID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIntent[intentID]
	if !ok {
		return nil, usecase.ErrNotFound("order")
	}
	return copyOrder(r.m[id]), nil
}

func (r *MemoryOrderRepo) GetOrderByExternalDelivery(ctx context.Context, externalID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byDelivery[externalID]
	if !ok {
		return nil, usecase.ErrNotFound("order")
	}
	return copyOrder(r.m[id]), nil
}

func (r *MemoryOrderRepo) SetPaymentStatus(ctx context.Context, intentID, status string, at time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byIntent[intentID]
	if !ok {
		return nil, usecase.ErrNotFound("order")
	}
	o := r.m[id]
	o.Status = status
	o.UpdatedAt = at
	return copyOrder(o), nil
}

func (r *MemoryOrderRepo) SetDeliveryFee(ctx context.Context, id string, feeCents int64, at time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[id]
	if !ok {
		return nil, usecase.ErrNotFound("order")
	}
	fee := feeCents
	o.DeliveryFeeCents = &fee
	o.UpdatedAt = at
	return copyOrder(o), nil
}

func (r *MemoryOrderRepo) ApplyDispatch(ctx context.Context, id string, p domain.DispatchPatch) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[id]
	if !ok {
		return nil, usecase.ErrNotFound("order")
	}
	if o.ExternalDeliveryID != nil && *o.ExternalDeliveryID != p.ExternalDeliveryID {
		return nil, usecase.ErrConflict("order already bound to another delivery")
	}
	if other, ok := r.byDelivery[p.ExternalDeliveryID]; ok && other != id {
		return nil, usecase.ErrConflict("external delivery id already in use")
	}
	ext, svc, url := p.ExternalDeliveryID, p.DeliveryService, p.DeliveryTrackingURL
	o.ExternalDeliveryID = &ext
	o.DeliveryService = &svc
	if url != "" {
		o.DeliveryTrackingURL = &url
	}
	if p.DeliveryFeeCents != nil {
		fee := *p.DeliveryFeeCents
		o.DeliveryFeeCents = &fee
	}
	// A webhook may already have moved the row forward; never step back.
	if o.DeliveryStatus == domain.DeliveryNone || o.DeliveryStatus.CanAdvance(p.DeliveryStatus) {
		o.DeliveryStatus = p.DeliveryStatus
	}
	o.Pickup = p.Pickup
	o.Dropoff = p.Dropoff
	o.UpdatedAt = p.UpdatedAt
	r.byDelivery[ext] = id
	return copyOrder(o), nil
}

func (r *MemoryOrderRepo) CompareAndSetDeliveryStatus(ctx context.Context, externalID string, prev, next domain.DeliveryStatus, at time.Time) (*domain.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byDelivery[externalID]
	if !ok {
		return nil, false, usecase.ErrNotFound("order")
	}
	o := r.m[id]
	if o.DeliveryStatus != prev {
		return copyOrder(o), false, nil
	}
	o.DeliveryStatus = next
	o.UpdatedAt = at
	return copyOrder(o), true, nil
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	if o.ChefUserID != nil {
		v := *o.ChefUserID
		cp.ChefUserID = &v
	}
	if o.DeliveryFeeCents != nil {
		v := *o.DeliveryFeeCents
		cp.DeliveryFeeCents = &v
	}
	if o.ExternalDeliveryID != nil {
		v := *o.ExternalDeliveryID
		cp.ExternalDeliveryID = &v
	}
	if o.DeliveryService != nil {
		v := *o.DeliveryService
		cp.DeliveryService = &v
	}
	if o.DeliveryTrackingURL != nil {
		v := *o.DeliveryTrackingURL
		cp.DeliveryTrackingURL = &v
	}
	return &cp
}

type MemoryPayoutRepo struct {
	mu sync.RWMutex
	m  map[string]*domain.Payout
}

func NewMemoryPayoutRepo() *MemoryPayoutRepo {
	return &MemoryPayoutRepo{m: make(map[string]*domain.Payout)}
}

func (r *MemoryPayoutRepo) CreatePayout(ctx context.Context, p *domain.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[p.ID]; ok {
		return usecase.ErrConflict("payout already exists")
	}
	cp := *p
	r.m[p.ID] = &cp
	return nil
}

func (r *MemoryPayoutRepo) FinalizePayout(ctx context.Context, id string, status domain.PayoutStatus, stripePayoutID, failureReason *string) (*domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[id]
	if !ok {
		return nil, usecase.ErrNotFound("payout")
	}
	if p.Status != domain.PayoutProcessing {
		return nil, usecase.ErrConflict("payout already finalized")
	}
	p.Status = status
	p.StripePayoutID = stripePayoutID
	p.FailureReason = failureReason
	cp := *p
	return &cp, nil
}

func (r *MemoryPayoutRepo) GetPayout(ctx context.Context, id string) (*domain.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.m[id]
	if !ok {
		return nil, usecase.ErrNotFound("payout")
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryPayoutRepo) ListPayouts(ctx context.Context, chefUserID string, limit int) ([]domain.Payout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Payout, 0)
	for _, p := range r.m {
		if p.ChefUserID == chefUserID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MemoryChefRepo struct {
	mu sync.RWMutex
	m  map[string]*domain.ChefAccount
}

func NewMemoryChefRepo() *MemoryChefRepo {
	return &MemoryChefRepo{m: make(map[string]*domain.ChefAccount)}
}

func (r *MemoryChefRepo) GetChef(ctx context.Context, userID string) (*domain.ChefAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.m[userID]
	if !ok {
		return nil, usecase.ErrNotFound("chef")
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryChefRepo) PutChef(ctx context.Context, c *domain.ChefAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.m[c.UserID] = &cp
	return nil
}
