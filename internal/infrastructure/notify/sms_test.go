package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMSGateway_Notify(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	g := &SMSGateway{URL: srv.URL, Token: "tok"}
	err := g.Notify(context.Background(), Message{Phone: "+15555550100", Body: "on its way", OrderID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, "o1", got.OrderID)
}

func TestSMSGateway_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := &SMSGateway{URL: srv.URL}
	assert.Error(t, g.Notify(context.Background(), Message{Phone: "+15555550100"}))
	assert.Error(t, g.Notify(context.Background(), Message{}))
}
