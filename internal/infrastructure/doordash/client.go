package doordash

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultBaseURL = "https://openapi.doordash.com"
	ServiceName    = "doordash"
	tokenTTL       = 5 * time.Minute
)

var ErrMalformed = errors.New("doordash: malformed response")

type Client struct {
	BaseURL       string
	DeveloperID   string
	KeyID         string
	SigningSecret string
	HTTP          *http.Client
	Now           func() time.Time
}

// DeliveryRequest is the body shared by the quote and create-delivery calls.
type DeliveryRequest struct {
	ExternalDeliveryID  string `json:"external_delivery_id"`
	PickupAddress       string `json:"pickup_address"`
	PickupBusinessName  string `json:"pickup_business_name,omitempty"`
	PickupPhoneNumber   string `json:"pickup_phone_number,omitempty"`
	PickupInstructions  string `json:"pickup_instructions,omitempty"`
	DropoffAddress      string `json:"dropoff_address"`
	DropoffBusinessName string `json:"dropoff_business_name,omitempty"`
	DropoffPhoneNumber  string `json:"dropoff_phone_number"`
	DropoffInstructions string `json:"dropoff_instructions,omitempty"`
	OrderValue          int64  `json:"order_value"`
}

type Quote struct {
	ExternalDeliveryID string `json:"external_delivery_id"`
	Fee                int64  `json:"fee"`
	Currency           string `json:"currency"`
}

type Delivery struct {
	ID                 string `json:"id"`
	ExternalDeliveryID string `json:"external_delivery_id"`
	TrackingURL        string `json:"tracking_url"`
	DeliveryStatus     string `json:"delivery_status"`
	Fee                *int64 `json:"fee"`
}

// APIError is a non-2xx answer from the Drive API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("doordash error: %d %s %s", e.Status, e.Code, e.Message)
}

// IsDuplicate reports whether err says a delivery with the same external id exists.
func IsDuplicate(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Status == http.StatusConflict || ae.Code == "duplicate_delivery_id"
}

// Token mints a fresh DD-JWT-V1 assertion. It is never cached.
func (c *Client) Token() (string, error) {
	if strings.TrimSpace(c.DeveloperID) == "" || strings.TrimSpace(c.KeyID) == "" || strings.TrimSpace(c.SigningSecret) == "" {
		return "", fmt.Errorf("doordash credentials incomplete")
	}
	secret, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c.SigningSecret, "="))
	if err != nil {
		return "", fmt.Errorf("doordash signing secret: %w", err)
	}
	now := c.now()
	claims := jwt.MapClaims{
		"aud": "doordash",
		"iss": c.DeveloperID,
		"kid": c.KeyID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["dd-ver"] = "DD-JWT-V1"
	return t.SignedString(secret)
}

func (c *Client) Quote(ctx context.Context, r DeliveryRequest) (*Quote, error) {
	var raw struct {
		ExternalDeliveryID string `json:"external_delivery_id"`
		Fee                *int64 `json:"fee"`
		Currency           string `json:"currency"`
	}
	if err := c.do(ctx, http.MethodPost, "/drive/v2/quotes", r, &raw); err != nil {
		return nil, err
	}
	if raw.Fee == nil || *raw.Fee < 0 {
		return nil, fmt.Errorf("%w: quote without fee", ErrMalformed)
	}
	return &Quote{ExternalDeliveryID: raw.ExternalDeliveryID, Fee: *raw.Fee, Currency: raw.Currency}, nil
}

func (c *Client) CreateDelivery(ctx context.Context, r DeliveryRequest) (*Delivery, error) {
	var out Delivery
	if err := c.do(ctx, http.MethodPost, "/drive/v2/deliveries", r, &out); err != nil {
		return nil, err
	}
	if out.ExternalDeliveryID == "" {
		out.ExternalDeliveryID = r.ExternalDeliveryID
	}
	if out.ExternalDeliveryID != r.ExternalDeliveryID {
		return nil, fmt.Errorf("%w: external_delivery_id %q does not match %q", ErrMalformed, out.ExternalDeliveryID, r.ExternalDeliveryID)
	}
	return &out, nil
}

func (c *Client) GetDelivery(ctx context.Context, externalID string) (*Delivery, error) {
	var out Delivery
	if err := c.do(ctx, http.MethodGet, "/drive/v2/deliveries/"+url.PathEscape(externalID), nil, &out); err != nil {
		return nil, err
	}
	if out.ExternalDeliveryID == "" {
		out.ExternalDeliveryID = externalID
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.Token()
	if err != nil {
		return err
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ae := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, ae) != nil || ae.Message == "" {
			ae.Message = strings.TrimSpace(string(data))
		}
		return ae
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
