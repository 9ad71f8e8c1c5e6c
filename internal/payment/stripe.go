package payment

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/logger"
)

const providerName = "stripe"

// StripeProvider looks up PaymentIntents the way Stripe.js does on a return
// page: by id and client secret, authorised with the publishable key.
type StripeProvider struct {
	client paymentintent.Client
}

// NewStripeProvider builds a provider. apiBaseURL may be empty to use
// api.stripe.com. Network retries are disabled so one lookup is one request.
func NewStripeProvider(publishableKey, apiBaseURL string, httpClient *http.Client) *StripeProvider {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     stripeLogger{},
	}
	if apiBaseURL != "" {
		cfg.URL = stripe.String(apiBaseURL)
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &StripeProvider{
		client: paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Key: publishableKey,
		},
	}
}

func (p *StripeProvider) RetrievePaymentStatus(ctx context.Context, confirmationSecret string) (LookupResult, error) {
	id, err := intentIDFromSecret(confirmationSecret)
	if err != nil {
		return LookupResult{}, err
	}

	logger.ExternalServiceCall(providerName, "RetrievePaymentIntent", "payment_intent", id)
	params := &stripe.PaymentIntentParams{ClientSecret: stripe.String(confirmationSecret)}
	params.Context = ctx
	pi, err := p.client.Get(id, params)
	logger.ExternalServiceResult(providerName, "RetrievePaymentIntent", err, "payment_intent", id)
	if err != nil {
		return LookupResult{}, fmt.Errorf("%w: %v", ErrProviderLookup, err)
	}

	return LookupResult{AttemptID: pi.ID, State: stateFromStripe(pi.Status)}, nil
}

// intentIDFromSecret extracts "pi_123" from "pi_123_secret_abc"
func intentIDFromSecret(secret string) (string, error) {
	idx := strings.Index(secret, "_secret_")
	if idx <= 0 || !strings.HasPrefix(secret, "pi_") {
		return "", ErrMalformedSecret
	}
	return secret[:idx], nil
}

// stateFromStripe translates Stripe's PaymentIntent status vocabulary.
// Statuses with no counterpart pass through verbatim and resolve to unknown.
func stateFromStripe(s stripe.PaymentIntentStatus) domain.ProviderState {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.ProviderStateCompleted
	case stripe.PaymentIntentStatusProcessing:
		return domain.ProviderStatePending
	case stripe.PaymentIntentStatusRequiresAction:
		return domain.ProviderStateRequiresUserAction
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		return domain.ProviderStateRequiresPaymentMethod
	case stripe.PaymentIntentStatusCanceled:
		return domain.ProviderStateCanceled
	default:
		return domain.ProviderState(s)
	}
}

// stripeLogger routes stripe-go's leveled logging into the process logger
type stripeLogger struct{}

func (stripeLogger) Debugf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...), "component", providerName)
}

func (stripeLogger) Infof(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...), "component", providerName)
}

func (stripeLogger) Warnf(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(format, v...), "component", providerName)
}

func (stripeLogger) Errorf(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf(format, v...), "component", providerName)
}
