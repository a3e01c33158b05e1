package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"homecook-backend/internal/domain"
	"homecook-backend/internal/infrastructure/doordash"
)

const (
	defaultQuoteOrderValue int64 = 1000
	defaultQuoteCacheTTL         = 30 * time.Minute
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)

// NormalizePhone strips common formatting and checks an E.164-like shape.
func NormalizePhone(p string) (string, bool) {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	n := r.Replace(strings.TrimSpace(p))
	if !phonePattern.MatchString(n) {
		return "", false
	}
	if !strings.HasPrefix(n, "+") {
		if len(n) == 10 {
			n = "1" + n
		}
		n = "+" + n
	}
	return n, true
}

type QuoteRequest struct {
	UserID          string
	OrderID         string
	Pickup          domain.Stop
	Dropoff         domain.Stop
	OrderValueCents int64
}

type QuoteResult struct {
	FeeCents int64  `json:"feeCents"`
	Currency string `json:"currency"`
}

// QuoteService asks the dispatch provider for an advisory delivery fee.
type QuoteService struct {
	Drive     DispatchClient
	Orders    OrderRepo
	Cache     Cache
	Publisher OrderPublisher
	CacheTTL  time.Duration
}

func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if req.UserID == "" {
		return nil, ErrUnauthorized("user required")
	}
	if strings.TrimSpace(req.Pickup.Address) == "" || strings.TrimSpace(req.Dropoff.Address) == "" {
		return nil, ErrBadRequest("pickup and dropoff addresses required")
	}
	phone, ok := NormalizePhone(req.Dropoff.Phone)
	if !ok {
		return nil, ErrBadRequest("dropoff phone must be a valid phone number")
	}
	req.Dropoff.Phone = phone
	if req.Pickup.Phone != "" {
		if p, ok := NormalizePhone(req.Pickup.Phone); ok {
			req.Pickup.Phone = p
		} else {
			req.Pickup.Phone = ""
		}
	}
	value := req.OrderValueCents
	if value <= 0 {
		value = defaultQuoteOrderValue
	}

	q, err := s.Drive.Quote(ctx, deliveryRequest("quote-"+randomID(), req.Pickup, req.Dropoff, value))
	if err != nil {
		slog.WarnContext(ctx, "delivery quote unavailable", "user_id", req.UserID, "error", err)
		return nil, &ErrQuoteUnavailable{Err: err}
	}
	res := &QuoteResult{FeeCents: q.Fee, Currency: strings.ToLower(q.Currency)}
	if res.Currency == "" {
		res.Currency = "usd"
	}
	s.remember(ctx, req, res.FeeCents)
	return res, nil
}

// remember caches the fee for a later dispatch. Failures only log.
func (s *QuoteService) remember(ctx context.Context, req QuoteRequest, fee int64) {
	if s.Cache != nil {
		ttl := s.CacheTTL
		if ttl == 0 {
			ttl = defaultQuoteCacheTTL
		}
		key := s.Cache.GenerateKey("quote", quoteKey(req.UserID, req.Pickup.Address, req.Dropoff.Address))
		if err := s.Cache.Set(ctx, key, fee, ttl); err != nil {
			slog.WarnContext(ctx, "quote cache write failed", "error", err)
		}
	}
	if req.OrderID == "" || s.Orders == nil {
		return
	}
	o, err := s.Orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		slog.WarnContext(ctx, "quote order lookup failed", "order_id", req.OrderID, "error", err)
		return
	}
	if o.UserID != req.UserID || o.Dispatched() {
		return
	}
	updated, err := s.Orders.SetDeliveryFee(ctx, o.ID, fee, now())
	if err != nil {
		slog.WarnContext(ctx, "quote fee write failed", "order_id", o.ID, "error", err)
		return
	}
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, *updated)
	}
}

// cachedQuote returns a previously cached fee for the route, if any.
func cachedQuote(ctx context.Context, c Cache, userID, pickup, dropoff string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v, err := c.Get(ctx, c.GenerateKey("quote", quoteKey(userID, pickup, dropoff)))
	if err != nil {
		slog.WarnContext(ctx, "quote cache read failed", "error", err)
		return 0, false
	}
	if v == "" {
		return 0, false
	}
	fee, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return fee, true
}

func quoteKey(userID, pickup, dropoff string) string {
	norm := func(s string) string { return strings.Join(strings.Fields(strings.ToLower(s)), " ") }
	sum := sha256.Sum256([]byte(userID + "\n" + norm(pickup) + "\n" + norm(dropoff)))
	return hex.EncodeToString(sum[:16])
}

func deliveryRequest(externalID string, pickup, dropoff domain.Stop, value int64) doordash.DeliveryRequest {
	return doordash.DeliveryRequest{
		ExternalDeliveryID:  externalID,
		PickupAddress:       pickup.Address,
		PickupBusinessName:  pickup.BusinessName,
		PickupPhoneNumber:   pickup.Phone,
		PickupInstructions:  pickup.Instructions,
		DropoffAddress:      dropoff.Address,
		DropoffBusinessName: dropoff.BusinessName,
		DropoffPhoneNumber:  dropoff.Phone,
		DropoffInstructions: dropoff.Instructions,
		OrderValue:          value,
	}
}

// IsQuoteUnavailable reports whether err is an ErrQuoteUnavailable.
func IsQuoteUnavailable(err error) bool {
	var qe *ErrQuoteUnavailable
	return errors.As(err, &qe)
}
