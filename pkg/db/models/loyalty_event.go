package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/enums"
)

// LoyaltyEvent is an append-only movement of a user's loyalty points. The
// (order, type) pair is unique so each order redeems and refunds at most once.
type LoyaltyEvent struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_loyalty_events_order_type,priority:1"`
	Type      enums.LoyaltyEventType `gorm:"column:type;type:text;not null;uniqueIndex:ux_loyalty_events_order_type,priority:2"`
	Points    int64                  `gorm:"column:points;not null"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (e *LoyaltyEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
