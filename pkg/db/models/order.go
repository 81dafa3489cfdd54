package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/enums"
)

// Order is the frozen snapshot of a settled cart.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;<-:create;not null;uniqueIndex"`
	UserID          *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	SessionKey      *string           `gorm:"column:session_key;index"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ItemsTotal      int64             `gorm:"column:items_total;not null;default:0"`
	DiscountPercent int               `gorm:"column:discount_percent;not null;default:0"`
	DiscountAmount  int64             `gorm:"column:discount_amount;not null;default:0"`
	BonusesUsed     int64             `gorm:"column:bonuses_used;not null;default:0"`
	FinalPrice      int64             `gorm:"column:final_price;not null;default:0"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusNew
	}
	return nil
}

// NewOrderNumber returns an ORD- prefixed number built from 8 random hex digits.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("ORD-%s", strings.ToUpper(hex[:8]))
}

// OrderItem keeps the purchase-time title, size and price of a line.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Product   *Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	Title     string     `gorm:"column:title;not null"`
	Size      *string    `gorm:"column:size"`
	Quantity  int        `gorm:"column:quantity;not null"`
	Price     int64      `gorm:"column:price;not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// Cost is the captured unit price times quantity.
func (i OrderItem) Cost() int64 {
	return i.Price * int64(i.Quantity)
}
