package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/stripepay"
	"homecook-backend/internal/money"
)

const (
	defaultRecentPayouts      = 10
	instantUnsupportedMessage = "Instant payouts aren't available for this account yet. Add a debit card to your payout methods to enable instant withdrawals."
)

type PayoutRequest struct {
	ChefUserID string
	Amount     float64
	Instant    bool
}

type PayoutResult struct {
	Payout          *domain.Payout `json:"payout"`
	InstantFeeCents int64          `json:"instantFeeCents"`
}

// PayoutService reads connected account balances and withdraws from them.
type PayoutService struct {
	Payouts     PayoutRepo
	Chefs       ChefRepo
	Processor   PaymentProcessor
	RecentLimit int
}

func (s *PayoutService) account(ctx context.Context, chefUserID string) (*domain.ChefAccount, error) {
	if chefUserID == "" {
		return nil, ErrUnauthorized("user required")
	}
	chef, err := s.Chefs.GetChef(ctx, chefUserID)
	if IsNotFound(err) {
		return nil, ErrUnconfigured("no connected account for this chef")
	}
	if err != nil {
		return nil, err
	}
	if chef.StripeAccountID == "" {
		return nil, ErrUnconfigured("no connected account for this chef")
	}
	if !chef.OnboardingComplete {
		return nil, ErrUnconfigured("connected account onboarding incomplete")
	}
	return chef, nil
}

func (s *PayoutService) balance(ctx context.Context, accountID string) (*domain.Balance, error) {
	b, err := s.Processor.GetBalance(ctx, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "balance lookup failed", "account_id", accountID, "error", err)
		return nil, &ProviderError{Provider: stripepay.ServiceName, Code: stripepay.Code(err), Message: stripepay.Message(err), Err: err}
	}
	return summarize(b), nil
}

// summarize sums every bucket and reports in the first bucket's currency.
func summarize(b *stripepay.Balance) *domain.Balance {
	out := &domain.Balance{}
	sum := func(buckets []stripepay.Bucket) int64 {
		var total int64
		for _, x := range buckets {
			if out.Currency == "" && x.Currency != "" {
				out.Currency = money.Currency(x.Currency)
			}
			total += x.AmountCents
		}
		return total
	}
	out.AvailableCents = sum(b.Available)
	out.PendingCents = sum(b.Pending)
	out.InstantAvailable = sum(b.InstantAvailable)
	if out.Currency == "" {
		out.Currency = money.DefaultCurrency
	}
	return out
}

func (s *PayoutService) GetBalance(ctx context.Context, chefUserID string) (*domain.Balance, error) {
	chef, err := s.account(ctx, chefUserID)
	if err != nil {
		return nil, err
	}
	bal, err := s.balance(ctx, chef.StripeAccountID)
	if err != nil {
		return nil, err
	}
	limit := s.RecentLimit
	if limit <= 0 {
		limit = defaultRecentPayouts
	}
	recent, err := s.Payouts.ListPayouts(ctx, chefUserID, limit)
	if err != nil {
		return nil, err
	}
	bal.RecentPayouts = recent
	return bal, nil
}

func (s *PayoutService) RequestPayout(ctx context.Context, req PayoutRequest) (*PayoutResult, error) {
	if req.ChefUserID == "" {
		return nil, ErrUnauthorized("user required")
	}
	amount, err := money.Bounded(req.Amount, money.MinPayoutCents, 0)
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	chef, err := s.account(ctx, req.ChefUserID)
	if err != nil {
		return nil, err
	}
	bal, err := s.balance(ctx, chef.StripeAccountID)
	if err != nil {
		return nil, err
	}
	limit, bucket := bal.AvailableCents, "available"
	if req.Instant {
		limit, bucket = bal.InstantAvailable, "instantly available"
	}
	if amount > limit {
		return nil, ErrInsufficientBalance(fmt.Sprintf("requested %s exceeds %s balance of %s",
			money.Display(amount), bucket, money.Display(limit)))
	}

	p := &domain.Payout{
		ID:          randomID(),
		ChefUserID:  req.ChefUserID,
		AmountCents: amount,
		Currency:    bal.Currency,
		Instant:     req.Instant,
		Status:      domain.PayoutProcessing,
		CreatedAt:   now(),
	}
	if err := s.Payouts.CreatePayout(ctx, p); err != nil {
		return nil, err
	}
	res := &PayoutResult{Payout: p}
	if req.Instant {
		res.InstantFeeCents = money.InstantFee(amount)
	}

	po, err := s.Processor.CreatePayout(ctx, stripepay.PayoutParams{
		AccountID:   chef.StripeAccountID,
		AmountCents: amount,
		Currency:    bal.Currency,
		Instant:     req.Instant,
		Metadata:    map[string]string{"payout_id": p.ID, "chef_user_id": req.ChefUserID},
	})
	if err != nil {
		reason := stripepay.Message(err)
		if stripepay.Code(err) == stripepay.ErrorCodeInstantPayoutsUnsupported {
			reason = instantUnsupportedMessage
		}
		slog.ErrorContext(ctx, "payout failed", "payout_id", p.ID, "chef_user_id", req.ChefUserID, "error", err)
		if _, ferr := s.Payouts.FinalizePayout(ctx, p.ID, domain.PayoutFailed, nil, &reason); ferr != nil {
			slog.ErrorContext(ctx, "CRITICAL: could not mark payout failed", "payout_id", p.ID, "error", ferr)
		}
		return nil, &ProviderError{Provider: stripepay.ServiceName, Code: stripepay.Code(err), Message: reason, Err: err}
	}

	status := domain.PayoutProcessing
	if po.Status == "paid" {
		status = domain.PayoutCompleted
	}
	final, err := s.Payouts.FinalizePayout(ctx, p.ID, status, &po.ID, nil)
	if err != nil {
		slog.ErrorContext(ctx, "CRITICAL: payout sent but row update failed", "payout_id", p.ID, "stripe_payout_id", po.ID, "error", err)
		return nil, err
	}
	slog.InfoContext(ctx, "payout requested", "payout_id", p.ID, "stripe_payout_id", po.ID, "status", final.Status, "instant", req.Instant)
	res.Payout = final
	return res, nil
}
