package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homecook-backend/internal/config"
	"homecook-backend/internal/infrastructure/stripepay"
	"homecook-backend/internal/logging"
	"homecook-backend/internal/realtime"
	"homecook-backend/internal/usecase"
)

const (
	headerRequestID = "X-Request-Id"
	ctxUserID       = "user_id"
	ctxRequestID    = "request_id"
)

// PaymentWebhookParser verifies and decodes processor webhook bodies.
type PaymentWebhookParser interface {
	ParseWebhook(payload []byte, signature string) (stripepay.PaymentEvent, error)
}

// Deps are the services the HTTP layer fronts.
type Deps struct {
	Auth           *usecase.AuthService
	Orders         *usecase.OrderService
	Quotes         *usecase.QuoteService
	Payments       *usecase.PaymentService
	Dispatch       *usecase.DispatchService
	Webhooks       *usecase.WebhookService
	Payouts        *usecase.PayoutService
	Chefs          *usecase.ChefService
	Broker         realtime.Broker
	PaymentWebhook PaymentWebhookParser
}

type Server struct {
	cfg    config.Config
	deps   Deps
	engine *gin.Engine
}

func New(cfg config.Config, deps Deps) *Server {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{cfg: cfg, deps: deps, engine: gin.New()}
	s.engine.Use(s.requestID(), s.accessLog(), gin.CustomRecovery(s.recovered), s.cors())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.POST("/webhooks/doordash", s.handleDoorDashWebhook)
	r.POST("/webhooks/stripe", s.handleStripeWebhook)

	if s.cfg.Env == "dev" {
		r.POST("/api/dev/token", s.handleDevToken)
	}

	api := r.Group("/api", s.authenticate())
	api.POST("/quotes", s.handleQuote)
	api.POST("/payments/intents", s.handleCreateIntent)
	api.GET("/payments/intents/:intentId", s.handleSyncIntent)
	api.POST("/deliveries", s.handleDispatch)
	api.GET("/orders/:id", s.handleGetOrder)
	api.GET("/orders/by-intent/:intentId", s.handleGetOrderByIntent)
	api.GET("/orders/:id/stream", s.handleOrderStream)
	api.GET("/me/orders/stream", s.handleMyOrdersStream)

	chef := api.Group("/chef")
	chef.GET("/balance", s.handleBalance)
	chef.POST("/payouts", s.handlePayout)
	chef.POST("/onboarding", s.handleStartOnboarding)
	chef.POST("/onboarding/refresh", s.handleRefreshOnboarding)
	chef.PUT("/profile", s.handleUpdateProfile)
}

// requestID honors an inbound X-Request-Id or mints one, and threads it
// through the request context for logging.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/healthz" {
			return
		}
		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) recovered(c *gin.Context, v any) {
	slog.ErrorContext(c.Request.Context(), "handler panicked", "panic", v)
	s.err(c, http.StatusInternalServerError, "ServerError", "internal error")
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
