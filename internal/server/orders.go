package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/usecase"
)

type stopReq struct {
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	BusinessName string `json:"businessName"`
	Instructions string `json:"instructions"`
}

func (r stopReq) stop() domain.Stop {
	return domain.Stop{Address: r.Address, Phone: r.Phone, BusinessName: r.BusinessName, Instructions: r.Instructions}
}

type quoteReq struct {
	OrderID         string  `json:"orderId"`
	Pickup          stopReq `json:"pickup"`
	Dropoff         stopReq `json:"dropoff"`
	OrderValueCents int64   `json:"orderValueCents"`
}

func (s *Server) handleQuote(c *gin.Context) {
	var req quoteReq
	if !s.bind(c, &req) {
		return
	}
	res, err := s.deps.Quotes.Quote(c.Request.Context(), usecase.QuoteRequest{
		UserID:          userID(c),
		OrderID:         req.OrderID,
		Pickup:          req.Pickup.stop(),
		Dropoff:         req.Dropoff.stop(),
		OrderValueCents: req.OrderValueCents,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type createIntentReq struct {
	Amount     float64 `json:"amount" binding:"required"`
	Currency   string  `json:"currency"`
	ChefUserID string  `json:"chefUserId"`
}

func (s *Server) handleCreateIntent(c *gin.Context) {
	var req createIntentReq
	if !s.bind(c, &req) {
		return
	}
	res, err := s.deps.Payments.CreateIntent(c.Request.Context(), usecase.CreateIntentRequest{
		UserID:     userID(c),
		Amount:     req.Amount,
		Currency:   req.Currency,
		ChefUserID: req.ChefUserID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) handleSyncIntent(c *gin.Context) {
	o, err := s.deps.Payments.SyncIntent(c.Request.Context(), userID(c), c.Param("intentId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type dispatchReq struct {
	PaymentIntentID string  `json:"paymentIntentId" binding:"required"`
	Dropoff         stopReq `json:"dropoff"`
}

func (s *Server) handleDispatch(c *gin.Context) {
	var req dispatchReq
	if !s.bind(c, &req) {
		return
	}
	res, err := s.deps.Dispatch.Dispatch(c.Request.Context(), usecase.DispatchRequest{
		UserID:          userID(c),
		PaymentIntentID: req.PaymentIntentID,
		Dropoff:         req.Dropoff.stop(),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	o, err := s.deps.Orders.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleGetOrderByIntent(c *gin.Context) {
	o, err := s.deps.Orders.GetByIntent(c.Request.Context(), userID(c), c.Param("intentId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
