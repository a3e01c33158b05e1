// Package notify sends fire-and-forget customer notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Message struct {
	Phone   string `json:"phone"`
	Body    string `json:"message"`
	OrderID string `json:"orderId"`
}

// SMSGateway posts messages to an HTTP SMS relay.
type SMSGateway struct {
	URL   string
	Token string
	HTTP  *http.Client
}

func (g *SMSGateway) Notify(ctx context.Context, m Message) error {
	if strings.TrimSpace(m.Phone) == "" {
		return fmt.Errorf("phone required")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}
	hc := g.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 8 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms gateway error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// LogNotifier only logs; used when no gateway is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, m Message) error {
	slog.InfoContext(ctx, "sms notification", "order_id", m.OrderID, "phone", m.Phone, "message", m.Body)
	return nil
}
