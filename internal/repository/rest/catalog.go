package rest

import (
	"context"
	"net/http"
	"net/url"

	"bookborrow-funnel/internal/domain"
	"bookborrow-funnel/internal/repository"
)

type catalogRepository struct {
	client *Client
}

func NewCatalogRepository(client *Client) repository.CatalogRepository {
	return &catalogRepository{client: client}
}

type bookDTO struct {
	ID             string   `json:"id"`
	OwnerID        string   `json:"ownerId"`
	TitleOr        string   `json:"titleOr"`
	TitleEn        string   `json:"titleEn"`
	Author         string   `json:"author"`
	Status         string   `json:"status"`
	DeliveryMethod string   `json:"deliveryMethod"`
	CanRent        bool     `json:"canRent"`
	CanSell        bool     `json:"canSell"`
	SalePrice      *float64 `json:"salePrice"`
	Deposit        *float64 `json:"deposit"`
}

func (d bookDTO) toDomain() *domain.Book {
	return &domain.Book{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		TitleOr:        d.TitleOr,
		TitleEn:        d.TitleEn,
		Author:         d.Author,
		Status:         domain.BookStatus(d.Status),
		DeliveryMethod: domain.DeliveryMethod(d.DeliveryMethod),
		CanRent:        d.CanRent,
		CanSell:        d.CanSell,
		SalePrice:      d.SalePrice,
		Deposit:        d.Deposit,
	}
}

func (r *catalogRepository) GetBook(ctx context.Context, credential, bookID string) (*domain.Book, error) {
	const op = "GetBook"
	data, err := r.client.do(ctx, op, http.MethodGet, "/api/v1/books/"+url.PathEscape(bookID), credential, nil)
	if err != nil {
		return nil, err
	}

	var b bookDTO
	if err := decode(op, data, &b); err != nil {
		return nil, err
	}
	if b.ID == "" {
		b.ID = bookID
	}
	return b.toDomain(), nil
}
