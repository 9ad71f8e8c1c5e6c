package rest

import (
	"context"
	"errors"
	"net/http"

	"bookborrow-funnel/internal/repository"
)

type cartRepository struct {
	client *Client
}

func NewCartRepository(client *Client) repository.CartRepository {
	return &cartRepository{client: client}
}

type cartItemDTO struct {
	CartItemID string   `json:"cartItemId"`
	BookID     string   `json:"bookId"`
	OwnerID    string   `json:"ownerId"`
	ActionType string   `json:"actionType"`
	Price      *float64 `json:"price"`
	Deposit    *float64 `json:"deposit"`
}

type cartDTO struct {
	Items []cartItemDTO `json:"items"`
}

type addItemBody struct {
	BookID     string   `json:"bookId"`
	OwnerID    string   `json:"ownerId"`
	ActionType string   `json:"actionType"`
	Price      *float64 `json:"price,omitempty"`
	Deposit    *float64 `json:"deposit,omitempty"`
}

type removeItemsBody struct {
	CartItemIDs []string `json:"cartItemIds"`
}

// GetCart returns the remote cart in server order. A missing cart is empty.
func (r *cartRepository) GetCart(ctx context.Context, credential string) ([]repository.RemoteCartItem, error) {
	const op = "GetCart"
	data, err := r.client.do(ctx, op, http.MethodGet, "/api/v1/cart/", credential, nil)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var cart cartDTO
	if err := decode(op, data, &cart); err != nil {
		return nil, err
	}

	items := make([]repository.RemoteCartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, repository.RemoteCartItem{
			CartItemID: it.CartItemID,
			BookID:     it.BookID,
			OwnerID:    it.OwnerID,
			ActionType: it.ActionType,
			Price:      it.Price,
			Deposit:    it.Deposit,
		})
	}
	return items, nil
}

func (r *cartRepository) AddItem(ctx context.Context, credential string, req repository.AddCartItemRequest) (string, error) {
	const op = "AddCartItem"
	body := addItemBody{
		BookID:     req.BookID,
		OwnerID:    req.OwnerID,
		ActionType: string(req.ActionType),
		Price:      req.Price,
		Deposit:    req.Deposit,
	}
	data, err := r.client.do(ctx, op, http.MethodPost, "/api/v1/cart/items", credential, body)
	if err != nil {
		return "", err
	}

	var created cartItemDTO
	if err := decode(op, data, &created); err != nil {
		return "", err
	}
	if created.CartItemID == "" {
		return "", &repository.RemoteCallError{Op: op, Err: errors.New("response carries no cartItemId")}
	}
	return created.CartItemID, nil
}

func (r *cartRepository) RemoveItems(ctx context.Context, credential string, cartItemIDs []string) (int, error) {
	const op = "RemoveCartItems"
	data, err := r.client.do(ctx, op, http.MethodDelete, "/api/v1/cart/items", credential, removeItemsBody{CartItemIDs: cartItemIDs})
	if err != nil {
		return 0, err
	}

	var res struct {
		DeletedCount int `json:"deletedCount"`
	}
	if len(data) > 0 {
		if err := decode(op, data, &res); err != nil {
			return 0, err
		}
	}
	return res.DeletedCount, nil
}
