package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

// ProductSummaryDTO is a grid card.
type ProductSummaryDTO struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Price           int64     `json:"price"`
	DiscountPercent *int      `json:"discount_percent,omitempty"`
	FinalPrice      int64     `json:"final_price"`
	Currency        string    `json:"currency"`
	ImageURL        *string   `json:"image_url,omitempty"`
	InStock         bool      `json:"in_stock"`
}

// ProductDTO is the full product payload.
type ProductDTO struct {
	ProductSummaryDTO
	Article      string              `json:"article"`
	Description  string              `json:"description"`
	CategoryID   *uuid.UUID          `json:"category_id,omitempty"`
	Category     string              `json:"category,omitempty"`
	BrandID      *uuid.UUID          `json:"brand_id,omitempty"`
	Brand        string              `json:"brand,omitempty"`
	CollectionID *uuid.UUID          `json:"collection_id,omitempty"`
	Collection   string              `json:"collection,omitempty"`
	Metal        string              `json:"metal,omitempty"`
	Material     string              `json:"material,omitempty"`
	Coverage     string              `json:"coverage,omitempty"`
	Stones       string              `json:"stones,omitempty"`
	Color        string              `json:"color,omitempty"`
	Gender       string              `json:"gender,omitempty"`
	Size         string              `json:"size,omitempty"`
	Sizes        []string            `json:"sizes"`
	Stock        int                 `json:"stock"`
	SizeStock    map[string]int      `json:"size_stock,omitempty"`
	StoneOption  *enums.StoneOption  `json:"stone_option,omitempty"`
	MaterialType *enums.MaterialType `json:"material_type,omitempty"`
	Weight       *decimal.Decimal    `json:"weight,omitempty"`
	IsActive     bool                `json:"is_active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// DetailDTO is the product page payload.
type DetailDTO struct {
	Product       ProductDTO          `json:"product"`
	Related       []ProductSummaryDTO `json:"related"`
	Complementary []ProductSummaryDTO `json:"complementary"`
}

// PriceRange is the facet price span.
type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Facets are the filter options offered next to the grid.
type Facets struct {
	Sizes      []string   `json:"sizes"`
	Metals     []string   `json:"metals"`
	Materials  []string   `json:"materials"`
	Stones     []string   `json:"stones"`
	Coverages  []string   `json:"coverages"`
	Colors     []string   `json:"colors"`
	Genders    []string   `json:"genders"`
	PriceRange PriceRange `json:"price_range"`
}

// ListResult is one grid page with its facets.
type ListResult struct {
	Products []ProductSummaryDTO `json:"products"`
	Facets   Facets              `json:"facets"`
	Page     pagination.Page     `json:"page"`
}

func newSummary(p *models.Product) ProductSummaryDTO {
	return ProductSummaryDTO{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		FinalPrice:      p.FinalPrice(),
		Currency:        p.Currency,
		ImageURL:        p.MainImageURL,
		InStock:         p.Stock > 0,
	}
}

func newSummaries(products []models.Product) []ProductSummaryDTO {
	out := make([]ProductSummaryDTO, 0, len(products))
	for i := range products {
		out = append(out, newSummary(&products[i]))
	}
	return out
}

// NewProductDTO maps a product into its full payload.
func NewProductDTO(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ProductSummaryDTO: newSummary(p),
		Article:           p.Article,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		BrandID:           p.BrandID,
		CollectionID:      p.CollectionID,
		Metal:             p.Metal,
		Material:          p.Material,
		Coverage:          p.Coverage,
		Stones:            p.Stones,
		Color:             p.Color,
		Gender:            p.Gender,
		Size:              p.Size,
		Sizes:             DisplaySizes(p.Size),
		Stock:             p.Stock,
		SizeStock:         p.SizeStock,
		StoneOption:       p.StoneOption,
		MaterialType:      p.MaterialType,
		Weight:            p.Weight,
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = p.Category.Name
	}
	if p.Brand != nil {
		dto.Brand = p.Brand.Name
	}
	if p.Collection != nil {
		dto.Collection = p.Collection.Name
	}
	return dto
}

// DisplaySizes splits a size label into the selectable sizes. "0" marks a
// one-size product and is not offered.
func DisplaySizes(label string) []string {
	out := []string{}
	for _, part := range strings.Split(label, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "0" {
			continue
		}
		out = append(out, part)
	}
	return out
}
