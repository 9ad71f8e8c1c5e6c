package domain

// ProviderState is the raw status a payment provider reports for an attempt.
type ProviderState string

const (
	ProviderStateCompleted             ProviderState = "completed"
	ProviderStatePending               ProviderState = "pending"
	ProviderStateRequiresUserAction    ProviderState = "requires-user-action"
	ProviderStateRequiresPaymentMethod ProviderState = "requires-payment-method"
	ProviderStateVoided                ProviderState = "voided"
	ProviderStateCanceled              ProviderState = "canceled"
)

// ResolvedStatus is the coarse outcome shown on the payment-return view.
type ResolvedStatus string

const (
	ResolvedStatusSucceeded  ResolvedStatus = "succeeded"
	ResolvedStatusProcessing ResolvedStatus = "processing"
	ResolvedStatusCanceled   ResolvedStatus = "canceled"
	ResolvedStatusUnknown    ResolvedStatus = "unknown"
)

// Resolve maps a provider state onto exactly one resolved status. Anything
// unrecognised, including an empty state, is unknown.
func (s ProviderState) Resolve() ResolvedStatus {
	switch s {
	case ProviderStateCompleted:
		return ResolvedStatusSucceeded
	case ProviderStatePending, ProviderStateRequiresUserAction:
		return ResolvedStatusProcessing
	case ProviderStateRequiresPaymentMethod, ProviderStateVoided, ProviderStateCanceled:
		return ResolvedStatusCanceled
	default:
		return ResolvedStatusUnknown
	}
}

// RedirectParams are the query parameters the provider appends when it sends
// the browser back.
type RedirectParams struct {
	AttemptID          string
	ConfirmationSecret string
	RedirectStatus     string
}

// CheckoutHints are stashed by the checkout step before leaving for the
// provider and read exactly once on return.
type CheckoutHints struct {
	AttemptID          string `json:"payment_intent_id"`
	ConfirmationSecret string `json:"client_secret"`
}

func (h CheckoutHints) Empty() bool {
	return h.AttemptID == "" && h.ConfirmationSecret == ""
}

// PaymentAttempt is built fresh for each load of the payment-return view.
type PaymentAttempt struct {
	AttemptID      string         `json:"attempt_id,omitempty"`
	ProviderState  ProviderState  `json:"provider_state,omitempty"`
	ResolvedStatus ResolvedStatus `json:"resolved_status"`
	RedirectStatus string         `json:"redirect_status,omitempty"`
	Verified       bool           `json:"verified"` // a live provider lookup answered
}
