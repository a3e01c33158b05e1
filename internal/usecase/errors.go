package usecase

import (
	"errors"
	"fmt"
)

type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) + " not found" }

type ErrConflict string

func (e ErrConflict) Error() string { return string(e) }

type ErrBadRequest string

func (e ErrBadRequest) Error() string { return string(e) }

type ErrUnauthorized string

func (e ErrUnauthorized) Error() string { return string(e) }

type ErrForbidden string

func (e ErrForbidden) Error() string { return string(e) }

// ErrUnconfigured marks merchant or account setup problems the caller can fix.
type ErrUnconfigured string

func (e ErrUnconfigured) Error() string { return string(e) }

type ErrInsufficientBalance string

func (e ErrInsufficientBalance) Error() string { return "insufficient balance: " + string(e) }

// ErrQuoteUnavailable is returned when the dispatch provider cannot produce a quote.
// Checkout continues without a fee estimate.
type ErrQuoteUnavailable struct {
	Err error
}

func (e *ErrQuoteUnavailable) Error() string {
	if e.Err == nil {
		return "quote unavailable"
	}
	return "quote unavailable: " + e.Err.Error()
}

func (e *ErrQuoteUnavailable) Unwrap() error { return e.Err }

// ProviderError wraps a failure reported by the payment processor or the
// dispatch provider. Message is safe to show to the caller.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an ErrNotFound anywhere in its chain.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
