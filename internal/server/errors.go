package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"homecook-backend/internal/usecase"
)

// fail maps a usecase error onto the HTTP error envelope.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		badRequest   usecase.ErrBadRequest
		unauthorized usecase.ErrUnauthorized
		forbidden    usecase.ErrForbidden
		notFound     usecase.ErrNotFound
		conflict     usecase.ErrConflict
		unconfigured usecase.ErrUnconfigured
		insufficient usecase.ErrInsufficientBalance
		quote        *usecase.ErrQuoteUnavailable
		provider     *usecase.ProviderError
	)
	switch {
	case errors.As(err, &badRequest):
		s.err(c, http.StatusBadRequest, "BadRequest", err.Error())
	case errors.As(err, &unauthorized):
		s.err(c, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &forbidden):
		s.err(c, http.StatusForbidden, "Forbidden", err.Error())
	case errors.As(err, &notFound):
		s.err(c, http.StatusNotFound, "NotFound", err.Error())
	case errors.As(err, &conflict):
		s.err(c, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &unconfigured):
		s.err(c, http.StatusUnprocessableEntity, "Unconfigured", err.Error())
	case errors.As(err, &insufficient):
		s.err(c, http.StatusUnprocessableEntity, "InsufficientBalance", err.Error())
	case errors.As(err, &quote):
		s.err(c, http.StatusBadGateway, "QuoteUnavailable", "delivery quote unavailable, try again")
	case errors.As(err, &provider):
		code := "ProviderError"
		if provider.Code != "" {
			code = provider.Code
		}
		s.err(c, http.StatusBadGateway, code, provider.Message)
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
		s.err(c, http.StatusInternalServerError, "ServerError", "internal error")
	}
}

func (s *Server) err(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   msg,
			"requestId": c.GetString(ctxRequestID),
		},
	})
}

// bind decodes the JSON body into v and writes a 400 on failure.
func (s *Server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid request body: "+err.Error())
		return false
	}
	return true
}
