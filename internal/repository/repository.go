package repository

import (
	"context"

	"bookborrow-funnel/internal/domain"
)

// RemoteCartItem is one row of the server-authoritative cart.
type RemoteCartItem struct {
	CartItemID string
	BookID     string
	OwnerID    string
	ActionType string
	Price      *float64
	Deposit    *float64
}

type AddCartItemRequest struct {
	BookID     string
	OwnerID    string
	ActionType domain.Mode
	Price      *float64
	Deposit    *float64
}

// CartRepository is the remote cart service. Every call carries the caller's
// bearer credential.
type CartRepository interface {
	GetCart(ctx context.Context, credential string) ([]RemoteCartItem, error)
	AddItem(ctx context.Context, credential string, req AddCartItemRequest) (string, error)
	RemoveItems(ctx context.Context, credential string, cartItemIDs []string) (int, error)
}

type CatalogRepository interface {
	GetBook(ctx context.Context, credential, bookID string) (*domain.Book, error)
}
