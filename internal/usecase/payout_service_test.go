package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/stripepay"
	"homecook-backend/internal/usecase"
)

func fundedChef(t *testing.T, e *env) {
	t.Helper()
	e.addChef(t, "chef-1", "acct_1", true)
	e.proc.SetBalance("acct_1", stripepay.Balance{
		Available:        []stripepay.Bucket{{AmountCents: 500, Currency: "usd"}},
		Pending:          []stripepay.Bucket{{AmountCents: 300, Currency: "usd"}, {AmountCents: 100, Currency: "usd"}},
		InstantAvailable: []stripepay.Bucket{{AmountCents: 200, Currency: "usd"}},
	})
}

func TestGetBalance(t *testing.T) {
	e := newEnv()
	fundedChef(t, e)
	ctx := context.Background()
	_, err := e.payoutService().RequestPayout(ctx, usecase.PayoutRequest{ChefUserID: "chef-1", Amount: 150})
	require.NoError(t, err)

	b, err := e.payoutService().GetBalance(ctx, "chef-1")
	require.NoError(t, err)
	assert.Equal(t, "usd", b.Currency)
	assert.Equal(t, int64(500), b.AvailableCents)
	assert.Equal(t, int64(400), b.PendingCents)
	assert.Equal(t, int64(200), b.InstantAvailable)
	require.Len(t, b.RecentPayouts, 1)
	assert.Equal(t, int64(150), b.RecentPayouts[0].AmountCents)
}

func TestGetBalance_RequiresOnboardedAccount(t *testing.T) {
	e := newEnv()
	_, err := e.payoutService().GetBalance(context.Background(), "chef-unknown")
	var uc usecase.ErrUnconfigured
	assert.ErrorAs(t, err, &uc)

	e.addChef(t, "chef-2", "acct_2", false)
	_, err = e.payoutService().GetBalance(context.Background(), "chef-2")
	assert.ErrorAs(t, err, &uc)
}

func TestRequestPayout_BucketSelection(t *testing.T) {
	ctx := context.Background()

	e := newEnv()
	fundedChef(t, e)
	_, err := e.payoutService().RequestPayout(ctx, usecase.PayoutRequest{ChefUserID: "chef-1", Amount: 300, Instant: true})
	var ib usecase.ErrInsufficientBalance
	require.ErrorAs(t, err, &ib)
	list, err := e.payouts.ListPayouts(ctx, "chef-1", 10)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected requests must not create rows")

	res, err := e.payoutService().RequestPayout(ctx, usecase.PayoutRequest{ChefUserID: "chef-1", Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutProcessing, res.Payout.Status)
	require.NotNil(t, res.Payout.StripePayoutID)
	assert.Zero(t, res.InstantFeeCents)
}

func TestRequestPayout_InstantCompletes(t *testing.T) {
	e := newEnv()
	fundedChef(t, e)

	res, err := e.payoutService().RequestPayout(context.Background(), usecase.PayoutRequest{ChefUserID: "chef-1", Amount: 200, Instant: true})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCompleted, res.Payout.Status)
	assert.Equal(t, int64(50), res.InstantFeeCents)
	assert.True(t, res.Payout.Instant)
}

func TestRequestPayout_MinimumAmount(t *testing.T) {
	e := newEnv()
	fundedChef(t, e)
	for _, amt := range []float64{0, 99, 150.5} {
		_, err := e.payoutService().RequestPayout(context.Background(), usecase.PayoutRequest{ChefUserID: "chef-1", Amount: amt})
		var br usecase.ErrBadRequest
		assert.ErrorAs(t, err, &br, "amount %v", amt)
	}
}

func TestRequestPayout_HugeAmountRejected(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	fundedChef(t, e)
	for _, amt := range []float64{1e19, 9.3e18, float64(1<<53) * 4} {
		_, err := e.payoutService().RequestPayout(ctx, usecase.PayoutRequest{ChefUserID: "chef-1", Amount: amt})
		var br usecase.ErrBadRequest
		assert.ErrorAs(t, err, &br, "amount %v", amt)
	}
	seen, err := e.payouts.ListPayouts(ctx, "chef-1", 10)
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestRequestPayout_RowExistsBeforeProviderCall(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	fundedChef(t, e)

	started := make(chan struct{})
	release := make(chan struct{})
	e.proc.onPayout = func() {
		close(started)
		<-release
	}
	done := make(chan error, 1)
	go func() {
		_, err := e.payoutService().RequestPayout(ctx, usecase.PayoutRequest{ChefUserID: "chef-1", Amount: 300})
		done <- err
	}()

	<-started
	seen, err := e.payouts.ListPayouts(ctx, "chef-1", 10)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, domain.PayoutProcessing, seen[0].Status)
	assert.Nil(t, seen[0].StripePayoutID)

	close(release)
	require.NoError(t, <-done)
}

func TestRequestPayout_ProviderFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("instant unsupported gets remediation message", func(t *testing.T) {
		e := newEnv()
		fundedChef(t, e)
		e.proc.payoutErr = &stripepay.Error{HTTPStatus: 400, Code: stripepay.ErrorCodeInstantPayoutsUnsupported, Message: "raw"}

		_, err := e.payoutService().RequestPayout(ctx, usecase.PayoutRequest{ChefUserID: "chef-1", Amount: 200, Instant: true})
		var pe *usecase.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Message, "debit card")

		list, err := e.payouts.ListPayouts(ctx, "chef-1", 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.PayoutFailed, list[0].Status)
		assert.Contains(t, *list[0].FailureReason, "debit card")
	})

	t.Run("other errors pass through", func(t *testing.T) {
		e := newEnv()
		fundedChef(t, e)
		e.proc.payoutErr = &stripepay.Error{HTTPStatus: 400, Code: "balance_insufficient", Message: "You have insufficient funds."}

		_, err := e.payoutService().RequestPayout(ctx, usecase.PayoutRequest{ChefUserID: "chef-1", Amount: 300})
		var pe *usecase.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "You have insufficient funds.", pe.Message)

		list, err := e.payouts.ListPayouts(ctx, "chef-1", 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "You have insufficient funds.", *list[0].FailureReason)
	})
}
