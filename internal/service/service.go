package service

import (
	"context"

	"bookborrow-funnel/internal/domain"
)

// CartSynchronizer keeps a local cache of cart lines eventually consistent
// with the remote cart service. It is the only writer of its CartState.
type CartSynchronizer interface {
	Refresh(ctx context.Context) error
	AddItem(ctx context.Context, book *domain.Book, preferred *domain.Mode) (domain.CartLine, error)
	RemoveItems(ctx context.Context, itemIDs []string) error
	ClearLocal()
	SetMode(bookID string, mode domain.Mode) bool

	State() domain.CartState
	Lines() []domain.CartLine
	Summary(selected map[string]bool) domain.CartSummary

	// Detach marks the owning view as gone; results that arrive later are
	// discarded instead of published.
	Detach()
}

// CheckoutHintBridge hands checkout hints across the provider redirect.
// Take erases what it returns.
type CheckoutHintBridge interface {
	Stash(ctx context.Context, scope string, hints domain.CheckoutHints) error
	Take(ctx context.Context, scope string) (domain.CheckoutHints, error)
}

// PaymentReconciler resolves the outcome of a payment attempt once per load
// of the payment-return view.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, scope string, redirect domain.RedirectParams) (domain.PaymentAttempt, error)
}
