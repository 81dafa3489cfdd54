package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForOwner(ctx context.Context, id uuid.UUID, owner cart.Owner) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForOwner(ctx context.Context, owner cart.Owner, params pagination.Params) ([]models.Order, int64, error)
	List(ctx context.Context, filter AdminFilter, params pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	AttachSessionOrders(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error)
}

// AdminFilter narrows the back-office order list.
type AdminFilter struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}
