package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/enums"
)

const DefaultCurrency = "₸"

// Product is a catalog listing. Prices are whole tenge.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID      *uuid.UUID          `gorm:"column:category_id;type:uuid;index"`
	Category        *Category           `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	CollectionID    *uuid.UUID          `gorm:"column:collection_id;type:uuid;index"`
	Collection      *Collection         `gorm:"foreignKey:CollectionID;constraint:OnDelete:SET NULL"`
	BrandID         *uuid.UUID          `gorm:"column:brand_id;type:uuid;index"`
	Brand           *Brand              `gorm:"foreignKey:BrandID;constraint:OnDelete:SET NULL"`
	Title           string              `gorm:"column:title;not null"`
	Slug            string              `gorm:"column:slug;not null;uniqueIndex"`
	Article         string              `gorm:"column:article;not null"`
	Description     string              `gorm:"column:description;not null"`
	Price           int64               `gorm:"column:price;not null;default:0"`
	DiscountPercent *int                `gorm:"column:discount_percent"`
	Currency        string              `gorm:"column:currency;not null"`
	Metal           string              `gorm:"column:metal;not null"`
	Material        string              `gorm:"column:material;not null"`
	Coverage        string              `gorm:"column:coverage;not null"`
	Stones          string              `gorm:"column:stones;not null"`
	Color           string              `gorm:"column:color;not null"`
	Gender          string              `gorm:"column:gender;not null"`
	Size            string              `gorm:"column:size;not null"`
	Stock           int                 `gorm:"column:stock;not null;default:0"`
	SizeStock       map[string]int      `gorm:"column:size_stock;type:jsonb;serializer:json"`
	StoneOption     *enums.StoneOption  `gorm:"column:stone_option;type:text"`
	MaterialType    *enums.MaterialType `gorm:"column:material_type;type:text"`
	Weight          *decimal.Decimal    `gorm:"column:weight;type:numeric(8,2)"`
	MainImageURL    *string             `gorm:"column:main_image_url"`
	IsActive        bool                `gorm:"column:is_active;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}

// FinalPrice applies the product's own discount, rounded to whole tenge.
func (p Product) FinalPrice() int64 {
	if p.DiscountPercent == nil || *p.DiscountPercent <= 0 {
		return p.Price
	}
	pct := *p.DiscountPercent
	if pct > 100 {
		pct = 100
	}
	hundred := decimal.NewFromInt(100)
	factor := hundred.Sub(decimal.NewFromInt(int64(pct))).Div(hundred)
	return decimal.NewFromInt(p.Price).Mul(factor).Round(0).IntPart()
}

// HasSizeStock reports whether stock is derived from the per-size map.
func (p Product) HasSizeStock() bool {
	return len(p.SizeStock) > 0
}
