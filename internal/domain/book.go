package domain

type BookStatus string

const (
	BookStatusListed   BookStatus = "listed"
	BookStatusUnlisted BookStatus = "unlisted"
	BookStatusLent     BookStatus = "lent"
	BookStatusSold     BookStatus = "sold"
)

type DeliveryMethod string

const (
	DeliveryMethodPost   DeliveryMethod = "post"
	DeliveryMethodPickup DeliveryMethod = "pickup"
	DeliveryMethodBoth   DeliveryMethod = "both"
)

// Book is the catalog item a cart line points at.
type Book struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	TitleOr        string         `json:"title_or"`
	TitleEn        string         `json:"title_en,omitempty"`
	Author         string         `json:"author,omitempty"`
	Status         BookStatus     `json:"status,omitempty"`
	DeliveryMethod DeliveryMethod `json:"delivery_method,omitempty"`
	CanRent        bool           `json:"can_rent"`
	CanSell        bool           `json:"can_sell"`
	SalePrice      *float64       `json:"sale_price,omitempty"`
	Deposit        *float64       `json:"deposit,omitempty"`
}
