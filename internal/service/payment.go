package service

import (
	"context"
	"errors"
	"log/slog"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/payment"
)

// ResolveOutcome decides the terminal status of one payment-return load.
// lookup is nil when no lookup was made. Success is only ever reported from a
// live lookup that answered completed.
func ResolveOutcome(redirect domain.RedirectParams, hints domain.CheckoutHints, lookup *payment.LookupResult, lookupErr error) domain.PaymentAttempt {
	attempt := domain.PaymentAttempt{
		AttemptID:      firstNonEmpty(redirect.AttemptID, hints.AttemptID),
		RedirectStatus: redirect.RedirectStatus,
	}

	if firstNonEmpty(redirect.ConfirmationSecret, hints.ConfirmationSecret) == "" {
		if attempt.AttemptID != "" {
			// The webhook finalizes the order; without a secret we cannot verify.
			attempt.ResolvedStatus = domain.ResolvedStatusProcessing
		} else {
			attempt.ResolvedStatus = domain.ResolvedStatusUnknown
		}
		return attempt
	}

	if lookupErr != nil || lookup == nil {
		attempt.ResolvedStatus = domain.ResolvedStatusUnknown
		return attempt
	}

	attempt.Verified = true
	attempt.ProviderState = lookup.State
	attempt.ResolvedStatus = lookup.State.Resolve()
	if lookup.AttemptID != "" {
		attempt.AttemptID = lookup.AttemptID
	}
	return attempt
}

type paymentReconciler struct {
	hints    CheckoutHintBridge
	provider payment.Provider
	log      *slog.Logger
}

// NewPaymentReconciler creates a reconciler that takes hints from hints and
// verifies attempts with provider.
func NewPaymentReconciler(hints CheckoutHintBridge, provider payment.Provider) PaymentReconciler {
	return &paymentReconciler{
		hints:    hints,
		provider: provider,
		log:      logger.WithService("payment"),
	}
}

// Reconcile runs once per load of the payment-return view. Hints are erased
// before the lookup is attempted. The only error returned is the caller's
// context ending; everything else resolves to a status.
func (r *paymentReconciler) Reconcile(ctx context.Context, scope string, redirect domain.RedirectParams) (domain.PaymentAttempt, error) {
	hints, err := r.hints.Take(ctx, scope)
	if err != nil {
		r.log.WarnContext(ctx, "Failed to take checkout hints", "error", err, "scope", scope)
	}

	if redirect.RedirectStatus != "" {
		r.log.InfoContext(ctx, "Payment redirect received",
			"redirect_status", redirect.RedirectStatus,
			"payment_intent", firstNonEmpty(redirect.AttemptID, hints.AttemptID))
	}

	secret := firstNonEmpty(redirect.ConfirmationSecret, hints.ConfirmationSecret)
	if secret == "" {
		return ResolveOutcome(redirect, hints, nil, nil), nil
	}

	result, lookupErr := r.provider.RetrievePaymentStatus(ctx, secret)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.PaymentAttempt{}, ctxErr
	}
	if lookupErr != nil {
		if !errors.Is(lookupErr, payment.ErrProviderLookup) {
			lookupErr = errors.Join(payment.ErrProviderLookup, lookupErr)
		}
		r.log.WarnContext(ctx, "Payment status could not be verified", "error", lookupErr)
		return ResolveOutcome(redirect, hints, nil, lookupErr), nil
	}

	attempt := ResolveOutcome(redirect, hints, &result, nil)
	r.log.InfoContext(ctx, "Payment outcome resolved",
		"payment_intent", attempt.AttemptID,
		"provider_state", attempt.ProviderState,
		"resolved_status", attempt.ResolvedStatus)
	return attempt, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
