package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"homecook-backend/internal/infrastructure/doordash"
)

const maxWebhookBody = 1 << 20

// handleDoorDashWebhook acknowledges every well-formed event, including ones
// it ignores, so the provider does not retry business mismatches.
func (s *Server) handleDoorDashWebhook(c *gin.Context) {
	if !s.deps.Webhooks.Authenticate(c.GetHeader("Authorization")) {
		s.err(c, http.StatusUnauthorized, "Unauthorized", "invalid webhook credentials")
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "cannot read body")
		return
	}
	ev, err := doordash.ParseEvent(body)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "malformed delivery webhook", "error", err)
		s.err(c, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	outcome, err := s.deps.Webhooks.HandleDeliveryEvent(c.Request.Context(), ev)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

func (s *Server) handleStripeWebhook(c *gin.Context) {
	if s.deps.PaymentWebhook == nil {
		s.err(c, http.StatusNotFound, "NotFound", "payment webhooks not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "cannot read body")
		return
	}
	ev, err := s.deps.PaymentWebhook.ParseWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		slog.WarnContext(c.Request.Context(), "rejected payment webhook", "error", err)
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid webhook payload")
		return
	}
	if err := s.deps.Payments.ApplyPaymentEvent(c.Request.Context(), ev); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
