package cart

import (
	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/internal/pricing"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
)

// ItemDTO is one cart line as returned to clients.
type ItemDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	Size         string    `json:"size,omitempty"`
	Quantity     int       `json:"quantity"`
	Price        int64     `json:"price"`
	CurrentPrice int64     `json:"current_price"`
	LineTotal    int64     `json:"line_total"`
}

// CartDTO is the cart page payload.
type CartDTO struct {
	ID            uuid.UUID          `json:"id"`
	Items         []ItemDTO          `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	Quote         pricing.Quote      `json:"quote"`
	Bonus         pricing.Redemption `json:"bonus"`
	Balance       int64              `json:"loyalty_balance"`
	Currency      string             `json:"currency"`
}

// FromView maps a priced cart view into its transport shape.
func FromView(view *View) CartDTO {
	out := CartDTO{
		Items:    make([]ItemDTO, 0),
		Quote:    view.Quote,
		Bonus:    view.Quote.Bonus,
		Balance:  view.Balance,
		Currency: models.DefaultCurrency,
	}
	if view.Cart == nil {
		return out
	}
	out.ID = view.Cart.ID
	for _, item := range view.Cart.Items {
		dto := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			dto.Title = item.Product.Title
			dto.Slug = item.Product.Slug
			dto.ImageURL = item.Product.MainImageURL
			dto.CurrentPrice = item.Product.FinalPrice()
		}
		out.TotalQuantity += item.Quantity
		out.Items = append(out.Items, dto)
	}
	return out
}
