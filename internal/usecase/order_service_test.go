package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homecook-backend/internal/usecase"
)

func TestOrderService_Access(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	o := e.checkout(t, "u1", "chef-1", 1450)
	svc := &usecase.OrderService{Repo: e.orders}

	got, err := svc.Get(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	got, err = svc.GetByIntent(ctx, "chef-1", o.StripePaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	got, err = svc.Get(ctx, "u2", o.ID)
	var fb usecase.ErrForbidden
	assert.ErrorAs(t, err, &fb)
	assert.Nil(t, got)

	_, err = svc.Get(ctx, "", o.ID)
	var ua usecase.ErrUnauthorized
	assert.ErrorAs(t, err, &ua)

	_, err = svc.Get(ctx, "u1", "missing")
	assert.True(t, usecase.IsNotFound(err))
}

func TestAuthService(t *testing.T) {
	a := &usecase.AuthService{JWTSecret: "s3cret", TTL: time.Hour}
	tok, err := a.Issue("u1")
	require.NoError(t, err)

	uid, err := a.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	other := &usecase.AuthService{JWTSecret: "different"}
	_, err = other.Verify(tok)
	var ua usecase.ErrUnauthorized
	assert.ErrorAs(t, err, &ua)

	expired := &usecase.AuthService{JWTSecret: "s3cret", TTL: -time.Minute}
	tok, err = expired.Issue("u1")
	require.NoError(t, err)
	_, err = a.Verify(tok)
	assert.ErrorAs(t, err, &ua)
}
