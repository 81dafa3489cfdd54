package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/pkg/db"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func ownerScope(owner cart.Owner) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if !owner.Anonymous() {
			return q.Where("user_id = ?", *owner.UserID)
		}
		return q.Where("session_key = ? AND user_id IS NULL", owner.SessionKey)
	}
}

func (r *repository) FindForOwner(ctx context.Context, id uuid.UUID, owner cart.Owner) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID row-locks the order for a status change.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListForOwner(ctx context.Context, owner cart.Owner, params pagination.Params) ([]models.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Order{}).Scopes(ownerScope(owner))
	return r.page(base, params)
}

func (r *repository) List(ctx context.Context, filter AdminFilter, params pagination.Params) ([]models.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		base = base.Where("user_id = ?", *filter.UserID)
	}
	return r.page(base, params)
}

func (r *repository) page(base *gorm.DB, params pagination.Params) ([]models.Order, int64, error) {
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	if err := base.Session(&gorm.Session{}).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.PerPage).
		Offset(params.Offset()).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkCancelled flips the order to cancelled only if it is not already
// cancelled. The boolean reports whether this call made the transition.
func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, enums.OrderStatusCancelled).
		Update("status", enums.OrderStatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AttachSessionOrders hands guest orders placed under sessionKey to userID.
func (r *repository) AttachSessionOrders(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error) {
	if sessionKey == "" || userID == uuid.Nil {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("session_key = ? AND user_id IS NULL", sessionKey).
		Update("user_id", userID)
	return res.RowsAffected, res.Error
}
