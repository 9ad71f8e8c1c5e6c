package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/storage"
)

// Fixed key pair written by the checkout step and erased by the return view.
const (
	HintKeyAttemptID = "checkout.payment_intent"
	HintKeySecret    = "checkout.payment_intent_client_secret"
)

type hintBridge struct {
	store storage.HintStore
	ttl   time.Duration
}

// NewHintBridge returns a CheckoutHintBridge over store. Stashed hints that
// are never taken expire after ttl.
func NewHintBridge(store storage.HintStore, ttl time.Duration) CheckoutHintBridge {
	return &hintBridge{store: store, ttl: ttl}
}

func hintKey(scope, key string) string {
	return scope + ":" + key
}

// Stash replaces both hints as one pair. An empty field erases whatever an
// earlier checkout left under its key.
func (b *hintBridge) Stash(ctx context.Context, scope string, hints domain.CheckoutHints) error {
	if scope == "" {
		return errors.New("hint scope is required")
	}
	entries := map[string]string{
		hintKey(scope, HintKeyAttemptID): hints.AttemptID,
		hintKey(scope, HintKeySecret):    hints.ConfirmationSecret,
	}
	if err := b.store.Put(ctx, entries, b.ttl); err != nil {
		return fmt.Errorf("stash checkout hints: %w", err)
	}
	return nil
}

// Take reads and erases both hints in one store call, so two loads of the
// return view never split the pair between them.
func (b *hintBridge) Take(ctx context.Context, scope string) (domain.CheckoutHints, error) {
	var hints domain.CheckoutHints
	if scope == "" {
		return hints, nil
	}

	idKey, secretKey := hintKey(scope, HintKeyAttemptID), hintKey(scope, HintKeySecret)
	values, err := b.store.Take(ctx, idKey, secretKey)
	if err != nil {
		return hints, fmt.Errorf("take checkout hints: %w", err)
	}
	hints.AttemptID = values[idKey]
	hints.ConfirmationSecret = values[secretKey]
	return hints, nil
}
