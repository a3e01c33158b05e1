package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/doordash"
	"homecook-backend/internal/usecase"
)

var customerDropoff = domain.Stop{Address: "9 Dropoff Ave, Springfield", Phone: "555-010-3000"}

func TestDispatch_BooksDeliveryAndNotifies(t *testing.T) {
	e := newEnv()
	e.addChef(t, "chef-1", "acct_1", true)
	o := e.checkout(t, "u1", "chef-1", 1450)

	res, err := e.dispatcher().Dispatch(context.Background(), usecase.DispatchRequest{
		UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://track.example/T", res.TrackingURL)
	assert.Equal(t, domain.DeliveryConfirmed, res.Status)
	assert.Equal(t, usecase.DefaultDeliveryFeeCents, res.FeeCents)

	stored, err := e.orders.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "homecook-"+o.ID, *stored.ExternalDeliveryID)
	assert.Equal(t, doordash.ServiceName, *stored.DeliveryService)
	assert.Equal(t, "1 Pickup St, Springfield", stored.Pickup.Address)
	assert.Equal(t, "+15550102000", stored.Pickup.Phone)
	assert.Equal(t, "+15550103000", stored.Dropoff.Phone)

	msg := e.notifier.wait(t)
	assert.Equal(t, "+15550103000", msg.Phone)
	assert.Contains(t, msg.Body, "https://track.example/T")
	assert.Equal(t, domain.DeliveryConfirmed, e.publisher.last().DeliveryStatus)
}

func TestDispatch_IdempotentPerOrder(t *testing.T) {
	e := newEnv()
	e.addChef(t, "chef-1", "acct_1", true)
	o := e.checkout(t, "u1", "chef-1", 1450)
	req := usecase.DispatchRequest{UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff}

	first, err := e.dispatcher().Dispatch(context.Background(), req)
	require.NoError(t, err)
	writes := e.orders.applyCount()

	second, err := e.dispatcher().Dispatch(context.Background(), req)
	require.NoError(t, err)

	ids := e.dispatch.createdIDs()
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1], "both calls must use the same external delivery id")
	assert.Len(t, e.dispatch.jobs, 1)
	assert.Equal(t, writes, e.orders.applyCount(), "second dispatch must not rewrite the row")
	assert.Equal(t, first.TrackingURL, second.TrackingURL)
	assert.Equal(t, *first.Order.ExternalDeliveryID, *second.Order.ExternalDeliveryID)
}

func TestDispatch_RecoversInterruptedAttempt(t *testing.T) {
	e := newEnv()
	e.addChef(t, "chef-1", "acct_1", true)
	o := e.checkout(t, "u1", "chef-1", 1450)
	req := usecase.DispatchRequest{UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff}

	// the provider accepted the job but the response was lost
	e.dispatch.createErr = errors.New("connection reset")
	_, err := e.dispatcher().Dispatch(context.Background(), req)
	var pe *usecase.ProviderError
	require.ErrorAs(t, err, &pe)
	reserved, err := e.orders.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, reserved.ExternalDeliveryID)
	assert.Equal(t, domain.DeliveryNone, reserved.DeliveryStatus)

	e.dispatch.createErr = nil
	e.dispatch.jobs["homecook-"+o.ID] = &doordash.Delivery{
		ExternalDeliveryID: "homecook-" + o.ID, TrackingURL: "https://track.example/T", DeliveryStatus: "enroute_to_pickup",
	}
	res, err := e.dispatcher().Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://track.example/T", res.TrackingURL)
	assert.Equal(t, domain.DeliveryConfirmed, res.Status)
	assert.Len(t, e.dispatch.jobs, 1)
}

func TestDispatch_FeeResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("provider fee wins", func(t *testing.T) {
		e := newEnv()
		e.addChef(t, "chef-1", "acct_1", true)
		fee := int64(612)
		e.dispatch.fee = &fee
		o := e.checkout(t, "u1", "chef-1", 1450)
		res, err := e.dispatcher().Dispatch(ctx, usecase.DispatchRequest{UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff})
		require.NoError(t, err)
		assert.Equal(t, int64(612), res.FeeCents)
	})

	t.Run("quoted fee round-trips", func(t *testing.T) {
		e := newEnv()
		e.addChef(t, "chef-1", "acct_1", true)
		o := e.checkout(t, "u1", "chef-1", 1450)
		q, err := e.quotes().Quote(ctx, usecase.QuoteRequest{
			UserID:  "u1",
			Pickup:  domain.Stop{Address: "1 Pickup St, Springfield"},
			Dropoff: customerDropoff,
		})
		require.NoError(t, err)
		res, err := e.dispatcher().Dispatch(ctx, usecase.DispatchRequest{UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff})
		require.NoError(t, err)
		assert.Equal(t, q.FeeCents, res.FeeCents)
	})

	t.Run("configured default", func(t *testing.T) {
		e := newEnv()
		e.addChef(t, "chef-1", "acct_1", true)
		o := e.checkout(t, "u1", "chef-1", 1450)
		d := e.dispatcher()
		d.DefaultFeeCents = 1299
		res, err := d.Dispatch(ctx, usecase.DispatchRequest{UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff})
		require.NoError(t, err)
		assert.Equal(t, int64(1299), res.FeeCents)
	})
}

func TestDispatch_NotificationFailureDoesNotFail(t *testing.T) {
	e := newEnv()
	e.notifier = newFakeNotifier(errors.New("sms gateway down"))
	e.addChef(t, "chef-1", "acct_1", true)
	o := e.checkout(t, "u1", "chef-1", 1450)

	res, err := e.dispatcher().Dispatch(context.Background(), usecase.DispatchRequest{
		UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://track.example/T", res.TrackingURL)
	e.notifier.wait(t)
}

func TestDispatch_Rejections(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	e.addChef(t, "chef-1", "acct_1", true)
	o := e.checkout(t, "u1", "chef-1", 1450)
	noChef := e.checkout(t, "u1", "", 1450)

	_, err := e.dispatcher().Dispatch(ctx, usecase.DispatchRequest{UserID: "u2", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff})
	var fb usecase.ErrForbidden
	assert.ErrorAs(t, err, &fb)

	_, err = e.dispatcher().Dispatch(ctx, usecase.DispatchRequest{UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: domain.Stop{Address: "x", Phone: "12"}})
	var br usecase.ErrBadRequest
	assert.ErrorAs(t, err, &br)

	_, err = e.dispatcher().Dispatch(ctx, usecase.DispatchRequest{UserID: "u1", PaymentIntentID: "pi_missing", Dropoff: customerDropoff})
	assert.True(t, usecase.IsNotFound(err))

	_, err = e.dispatcher().Dispatch(ctx, usecase.DispatchRequest{UserID: "u1", PaymentIntentID: noChef.StripePaymentIntentID, Dropoff: customerDropoff})
	var uc usecase.ErrUnconfigured
	assert.ErrorAs(t, err, &uc)
	assert.Empty(t, e.dispatch.createdIDs())
}

func TestDispatch_ProviderErrorCarriesCode(t *testing.T) {
	e := newEnv()
	e.addChef(t, "chef-1", "acct_1", true)
	o := e.checkout(t, "u1", "chef-1", 1450)
	e.dispatch.createErr = &doordash.APIError{Status: http.StatusBadRequest, Code: "validation_error", Message: "dropoff address is outside the service area"}

	_, err := e.dispatcher().Dispatch(context.Background(), usecase.DispatchRequest{
		UserID: "u1", PaymentIntentID: o.StripePaymentIntentID, Dropoff: customerDropoff,
	})
	var pe *usecase.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "validation_error", pe.Code)
	assert.Equal(t, "dropoff address is outside the service area", pe.Message)
}
