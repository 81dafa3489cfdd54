package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

// Repository reads and writes catalog products.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a product by id regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveBySlug loads a visible product with its taxonomy.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Collection").
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugTaken reports whether slug belongs to a product other than exclude.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Brand", "Collection").Create(product).Error
}

func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Brand", "Collection").Save(product).Error
}

// attributeScope applies every filter except price.
func attributeScope(f ListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = taxonomyScope(f)(q)
		q = inStrings(q, "metal", f.Metals)
		q = inStrings(q, "material", f.Materials)
		q = inStrings(q, "stones", f.Stones)
		q = inStrings(q, "coverage", f.Coverages)
		q = inStrings(q, "color", f.Colors)
		if len(f.Sizes) > 0 {
			clauses := make([]string, 0, len(f.Sizes))
			args := make([]any, 0, len(f.Sizes))
			for _, size := range f.Sizes {
				clauses = append(clauses, "LOWER(size) LIKE ?")
				args = append(args, "%"+strings.ToLower(size)+"%")
			}
			q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
		return q
	}
}

// taxonomyScope is the facet base: active products narrowed by category,
// brand, collection and gender only.
func taxonomyScope(f ListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("is_active = ?", true)
		if len(f.CategoryIDs) > 0 {
			q = q.Where("category_id IN ?", f.CategoryIDs)
		}
		if len(f.BrandIDs) > 0 {
			q = q.Where("brand_id IN ?", f.BrandIDs)
		}
		if len(f.CollectionIDs) > 0 {
			q = q.Where("collection_id IN ?", f.CollectionIDs)
		}
		return inStrings(q, "gender", f.Genders)
	}
}

func priceScope(f ListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.MinPrice != nil {
			q = q.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("price <= ?", *f.MaxPrice)
		}
		return q
	}
}

func inStrings(q *gorm.DB, column string, values []string) *gorm.DB {
	if len(values) == 0 {
		return q
	}
	return q.Where(column+" IN ?", values)
}

// List returns one page of products matching f plus the total match count.
func (r *Repository) List(ctx context.Context, f ListFilter, params pagination.Params) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(attributeScope(f), priceScope(f))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []models.Product
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id").
		Limit(params.PerPage).
		Offset(params.Offset()).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// PriceRange returns the min and max price over the attribute-filtered set,
// before any price bounds are applied.
func (r *Repository) PriceRange(ctx context.Context, f ListFilter) (int64, int64, error) {
	var row struct {
		MinPrice *int64
		MaxPrice *int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(attributeScope(f)).
		Select("MIN(price) AS min_price, MAX(price) AS max_price").
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	var lo, hi int64
	if row.MinPrice != nil {
		lo = *row.MinPrice
	}
	if row.MaxPrice != nil {
		hi = *row.MaxPrice
	}
	return lo, hi, nil
}

// DistinctValues lists the non-empty values of column across the facet base.
func (r *Repository) DistinctValues(ctx context.Context, f ListFilter, column string) ([]string, error) {
	var values []string
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(taxonomyScope(f)).
		Where(column+" <> ''").
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// Related returns active products from the same category.
func (r *Repository) Related(ctx context.Context, product *models.Product, limit int) ([]models.Product, error) {
	var out []models.Product
	if product.CategoryID == nil {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND category_id = ? AND id <> ?", true, *product.CategoryID, product.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Complementary returns active products from other categories.
func (r *Repository) Complementary(ctx context.Context, product *models.Product, limit int) ([]models.Product, error) {
	var out []models.Product
	query := r.db.WithContext(ctx).Where("is_active = ? AND id <> ?", true, product.ID)
	if product.CategoryID != nil {
		query = query.Where("(category_id IS NULL OR category_id <> ?)", *product.CategoryID)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// ListAll returns every product with its taxonomy for export.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Collection").
		Order("title").
		Find(&out).Error
	return out, err
}
