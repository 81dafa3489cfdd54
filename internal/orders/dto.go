package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

// OrderItemDTO is one purchased line.
type OrderItemDTO struct {
	ID        uuid.UUID  `json:"id"`
	ProductID *uuid.UUID `json:"product_id"`
	Title     string     `json:"title"`
	Size      *string    `json:"size,omitempty"`
	Quantity  int        `json:"quantity"`
	Price     int64      `json:"price"`
	Cost      int64      `json:"cost"`
}

// OrderDTO is the order detail as shown in profile history and admin.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	UserID          *uuid.UUID        `json:"user_id,omitempty"`
	ItemsTotal      int64             `json:"items_total"`
	DiscountPercent int               `json:"discount_percent"`
	DiscountAmount  int64             `json:"discount_amount"`
	BonusesUsed     int64             `json:"bonuses_used"`
	FinalPrice      int64             `json:"final_price"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders []OrderDTO      `json:"orders"`
	Page   pagination.Page `json:"page"`
}

// FromModel maps an order and its items.
func FromModel(o *models.Order) OrderDTO {
	out := OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		UserID:          o.UserID,
		ItemsTotal:      o.ItemsTotal,
		DiscountPercent: o.DiscountPercent,
		DiscountAmount:  o.DiscountAmount,
		BonusesUsed:     o.BonusesUsed,
		FinalPrice:      o.FinalPrice,
		Items:           make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
	}
	for _, item := range o.Items {
		out.Items = append(out.Items, OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Title:     item.Title,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Cost:      item.Cost(),
		})
	}
	return out
}

func newOrderList(rows []models.Order, params pagination.Params, total int64) *OrderList {
	_, page := pagination.Build(params, total)
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), Page: page}
	for i := range rows {
		list.Orders = append(list.Orders, FromModel(&rows[i]))
	}
	return list
}
