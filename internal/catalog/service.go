package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/inventory"
	"github.com/marais-jewelry/marais-backend/pkg/db"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes storefront browsing and admin product writes.
type Service interface {
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Detail(ctx context.Context, slug string) (*DetailDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error)
	Export(ctx context.Context, w io.Writer) error
}

// ProductInput is the admin product form. SizeStockText uses one
// "size=qty" line per size; when it is blank Stock and Size are taken as-is.
type ProductInput struct {
	Title           string
	Article         string
	Description     string
	CategoryID      *uuid.UUID
	BrandID         *uuid.UUID
	CollectionID    *uuid.UUID
	Price           int64
	DiscountPercent *int
	Metal           string
	Material        string
	Coverage        string
	Stones          string
	Color           string
	Gender          string
	Size            string
	Stock           int
	SizeStockText   string
	StoneOption     *enums.StoneOption
	MaterialType    *enums.MaterialType
	Weight          *decimal.Decimal
	MainImageURL    *string
	IsActive        bool
}

// Options tunes page sizes.
type Options struct {
	PerPage      int
	RelatedLimit int
}

type service struct {
	repo *Repository
	tx   txRunner
	opts Options
}

// NewService constructs the catalog service.
func NewService(repo *Repository, tx txRunner, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if opts.PerPage <= 0 {
		opts.PerPage = pagination.DefaultPerPage
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = 15
	}
	return &service{repo: repo, tx: tx, opts: opts}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	params := pagination.Normalize(pagination.Params{Page: filter.Page.Page, PerPage: s.opts.PerPage}, s.opts.PerPage)

	products, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	params, page := pagination.Build(params, total)
	if len(products) == 0 && total > 0 {
		// requested page was past the end; serve the last one
		products, _, err = s.repo.List(ctx, filter, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
		}
	}

	facets, err := s.facets(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Products: newSummaries(products), Facets: facets, Page: page}, nil
}

func (s *service) facets(ctx context.Context, filter ListFilter) (Facets, error) {
	facets := Facets{Genders: Genders}
	columns := map[string]*[]string{
		"metal":    &facets.Metals,
		"material": &facets.Materials,
		"stones":   &facets.Stones,
		"coverage": &facets.Coverages,
		"color":    &facets.Colors,
	}
	for column, dst := range columns {
		values, err := s.repo.DistinctValues(ctx, filter, column)
		if err != nil {
			return Facets{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+column+" facet")
		}
		*dst = values
	}

	labels, err := s.repo.DistinctValues(ctx, filter, "size")
	if err != nil {
		return Facets{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load size facet")
	}
	seen := map[string]struct{}{}
	var sizes []string
	for _, label := range labels {
		for _, part := range strings.Split(label, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			sizes = append(sizes, part)
		}
	}
	facets.Sizes = inventory.SortSizes(sizes)

	lo, hi, err := s.repo.PriceRange(ctx, filter)
	if err != nil {
		return Facets{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price range")
	}
	facets.PriceRange = PriceRange{Min: lo, Max: hi}
	return facets, nil
}

func (s *service) Detail(ctx context.Context, slug string) (*DetailDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	product, err := s.repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	related, err := s.repo.Related(ctx, product, s.opts.RelatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load related products")
	}
	complementary, err := s.repo.Complementary(ctx, product, s.opts.RelatedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load complementary products")
	}
	return &DetailDTO{
		Product:       NewProductDTO(product),
		Related:       newSummaries(related),
		Complementary: newSummaries(complementary),
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	product := &models.Product{}
	if err := applyInput(product, input); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, product, true); err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input ProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := applyInput(product, input); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, product, false); err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// persist reconciles stock, assigns a free slug and writes the product.
func (s *service) persist(ctx context.Context, product *models.Product, create bool) error {
	inventory.Apply(product)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		slug, err := UniqueSlug(ctx, txRepo, BaseSlug(product.Title, product.Article), product.ID)
		if err != nil {
			return err
		}
		product.Slug = slug
		if create {
			return txRepo.Create(ctx, product)
		}
		return txRepo.Save(ctx, product)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product slug already in use")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
	}
	return nil
}

func (s *service) Export(ctx context.Context, w io.Writer) error {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	if err := WriteWorkbook(w, products); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render catalog export")
	}
	return nil
}

func applyInput(product *models.Product, input ProductInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.DiscountPercent != nil && (*input.DiscountPercent < 0 || *input.DiscountPercent > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100")
	}
	gender := strings.TrimSpace(input.Gender)
	if gender != "" && !slices.Contains(Genders, gender) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid gender").
			WithDetails(map[string]any{"allowed": Genders})
	}
	if input.StoneOption != nil && !input.StoneOption.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid stone_option")
	}
	if input.MaterialType != nil && !input.MaterialType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid material_type")
	}
	sizeStock, err := inventory.ParseSizeStock(input.SizeStockText)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size_stock").
			WithDetails(map[string]any{"size_stock": err.Error()})
	}

	product.Title = title
	product.Article = strings.TrimSpace(input.Article)
	product.Description = input.Description
	product.CategoryID = input.CategoryID
	product.BrandID = input.BrandID
	product.CollectionID = input.CollectionID
	product.Price = input.Price
	product.DiscountPercent = input.DiscountPercent
	product.Metal = strings.TrimSpace(input.Metal)
	product.Material = strings.TrimSpace(input.Material)
	product.Coverage = strings.TrimSpace(input.Coverage)
	product.Stones = strings.TrimSpace(input.Stones)
	product.Color = strings.TrimSpace(input.Color)
	product.Gender = gender
	product.Size = strings.TrimSpace(input.Size)
	product.Stock = max(input.Stock, 0)
	product.SizeStock = sizeStock
	product.StoneOption = input.StoneOption
	product.MaterialType = input.MaterialType
	product.Weight = input.Weight
	product.MainImageURL = input.MainImageURL
	product.IsActive = input.IsActive
	if product.Currency == "" {
		product.Currency = models.DefaultCurrency
	}
	return nil
}
