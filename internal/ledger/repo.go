package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
)

// Repository manages persistence for loyalty events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.LoyaltyEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LoyaltyEvent, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyEvent, error)
	Exists(ctx context.Context, orderID uuid.UUID, eventType enums.LoyaltyEventType) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loyalty ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.LoyaltyEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LoyaltyEvent, error) {
	var events []models.LoyaltyEvent
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyEvent, error) {
	var events []models.LoyaltyEvent
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Exists(ctx context.Context, orderID uuid.UUID, eventType enums.LoyaltyEventType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LoyaltyEvent{}).
		Where("order_id = ? AND type = ?", orderID, eventType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
