package payment

import (
	"context"
	"errors"

	"bookborrow-funnel/internal/domain"
)

var (
	ErrProviderLookup  = errors.New("payment status lookup failed")
	ErrMalformedSecret = errors.New("malformed confirmation secret")
)

// LookupResult is what the provider reports for one payment attempt
type LookupResult struct {
	AttemptID string
	State     domain.ProviderState
}

// Provider retrieves the live status of a payment attempt from its
// confirmation secret.
type Provider interface {
	RetrievePaymentStatus(ctx context.Context, confirmationSecret string) (LookupResult, error)
}
