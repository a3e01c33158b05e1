package server

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/realtime"
)

const keepAliveInterval = 25 * time.Second

// handleOrderStream pushes the full order row on every change. The current
// row is sent first so a reconnecting client never waits for the next write.
// Subscribing before the read means no write can fall between the two.
func (s *Server) handleOrderStream(c *gin.Context) {
	ctx := c.Request.Context()
	ch, cancel := s.deps.Broker.Subscribe(ctx, realtime.Filter{OrderID: c.Param("id")})
	defer cancel()
	o, err := s.deps.Orders.Get(ctx, userID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.stream(c, ch, o)
}

func (s *Server) handleMyOrdersStream(c *gin.Context) {
	ch, cancel := s.deps.Broker.Subscribe(c.Request.Context(), realtime.Filter{UserID: userID(c)})
	defer cancel()
	s.stream(c, ch, nil)
}

func (s *Server) stream(c *gin.Context, ch <-chan domain.Order, first *domain.Order) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	if first != nil {
		c.SSEvent("order", first)
		c.Writer.Flush()
	}
	tick := time.NewTicker(keepAliveInterval)
	defer tick.Stop()
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case o, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("order", o)
			return true
		case <-tick.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
