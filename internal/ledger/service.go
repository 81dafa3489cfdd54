package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
)

// Service records loyalty point movements tied to orders.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordEvent(ctx context.Context, input RecordLoyaltyEventInput) (*models.LoyaltyEvent, error)
	HasEvent(ctx context.Context, orderID uuid.UUID, eventType enums.LoyaltyEventType) (bool, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyEvent, error)
}

type service struct {
	repo Repository
}

// RecordLoyaltyEventInput captures the immutable data a loyalty event requires.
type RecordLoyaltyEventInput struct {
	UserID  uuid.UUID              `json:"user_id"`
	OrderID uuid.UUID              `json:"order_id"`
	Type    enums.LoyaltyEventType `json:"type"`
	Points  int64                  `json:"points"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) RecordEvent(ctx context.Context, input RecordLoyaltyEventInput) (*models.LoyaltyEvent, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid loyalty event type %q", input.Type)
	}
	if input.Points <= 0 {
		return nil, fmt.Errorf("points must be positive")
	}

	event := &models.LoyaltyEvent{
		UserID:  input.UserID,
		OrderID: input.OrderID,
		Type:    input.Type,
		Points:  input.Points,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) HasEvent(ctx context.Context, orderID uuid.UUID, eventType enums.LoyaltyEventType) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("order id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid loyalty event type %q", eventType)
	}
	return s.repo.Exists(ctx, orderID, eventType)
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyEvent, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	return s.repo.ListByUserID(ctx, userID, limit)
}
