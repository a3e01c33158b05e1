package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/usecase"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"(555) 010-2000":   "+15550102000",
		"+44 20 7946 0958": "+442079460958",
		"15550102000":      "+15550102000",
		"555.010.2000":     "+15550102000",
	}
	for in, want := range cases {
		got, ok := usecase.NormalizePhone(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "12345", "0555010200", "phone"} {
		_, ok := usecase.NormalizePhone(bad)
		assert.False(t, ok, bad)
	}
}

func TestQuote_WritesFeeToUndispatchedOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	o := e.checkout(t, "u1", "", 1450)

	res, err := e.quotes().Quote(ctx, usecase.QuoteRequest{
		UserID:  "u1",
		OrderID: o.ID,
		Pickup:  domain.Stop{Address: "1 Pickup St", Phone: "not a phone"},
		Dropoff: customerDropoff,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(725), res.FeeCents)
	assert.Equal(t, "usd", res.Currency)

	stored, err := e.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DeliveryFeeCents)
	assert.Equal(t, int64(725), *stored.DeliveryFeeCents)

	require.Len(t, e.dispatch.quotes, 1)
	q := e.dispatch.quotes[0]
	assert.Equal(t, "+15550103000", q.DropoffPhoneNumber)
	assert.Empty(t, q.PickupPhoneNumber)
	assert.Equal(t, int64(1000), q.OrderValue)
}

func TestQuote_IgnoresOtherUsersOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	o := e.checkout(t, "u1", "", 1450)

	_, err := e.quotes().Quote(ctx, usecase.QuoteRequest{
		UserID: "u2", OrderID: o.ID, Pickup: domain.Stop{Address: "1 Pickup St"}, Dropoff: customerDropoff,
	})
	require.NoError(t, err)
	stored, err := e.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DeliveryFeeCents)
}

func TestQuote_ProviderFailureIsUnavailable(t *testing.T) {
	e := newEnv()
	e.dispatch.quoteErr = errors.New("timeout")

	_, err := e.quotes().Quote(context.Background(), usecase.QuoteRequest{
		UserID: "u1", Pickup: domain.Stop{Address: "1 Pickup St"}, Dropoff: customerDropoff,
	})
	assert.True(t, usecase.IsQuoteUnavailable(err))
}

func TestQuote_Validation(t *testing.T) {
	e := newEnv()
	_, err := e.quotes().Quote(context.Background(), usecase.QuoteRequest{
		UserID: "u1", Pickup: domain.Stop{Address: "1 Pickup St"}, Dropoff: domain.Stop{Address: "9 Dropoff Ave"},
	})
	var br usecase.ErrBadRequest
	assert.ErrorAs(t, err, &br)
	assert.Empty(t, e.dispatch.quotes)
}
