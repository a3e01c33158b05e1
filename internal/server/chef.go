package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homecook-backend/internal/usecase"
)

func (s *Server) handleBalance(c *gin.Context) {
	b, err := s.deps.Payouts.GetBalance(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type payoutReq struct {
	Amount  float64 `json:"amount" binding:"required"`
	Instant bool    `json:"instant"`
}

func (s *Server) handlePayout(c *gin.Context) {
	var req payoutReq
	if !s.bind(c, &req) {
		return
	}
	res, err := s.deps.Payouts.RequestPayout(c.Request.Context(), usecase.PayoutRequest{
		ChefUserID: userID(c),
		Amount:     req.Amount,
		Instant:    req.Instant,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) handleStartOnboarding(c *gin.Context) {
	link, err := s.deps.Chefs.StartOnboarding(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (s *Server) handleRefreshOnboarding(c *gin.Context) {
	acct, err := s.deps.Chefs.RefreshOnboarding(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req usecase.ChefProfile
	if !s.bind(c, &req) {
		return
	}
	acct, err := s.deps.Chefs.UpdateProfile(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}
