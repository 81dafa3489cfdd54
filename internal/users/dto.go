package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
)

// UserDTO is the transport shape of a customer profile.
type UserDTO struct {
	ID              uuid.UUID      `json:"id"`
	Email           string         `json:"email"`
	FullName        string         `json:"full_name"`
	Phone           *string        `json:"phone,omitempty"`
	Role            enums.UserRole `json:"role"`
	LoyaltyPoints   int64          `json:"loyalty_points"`
	DiscountPercent int            `json:"discount_percent"`
	CreatedAt       time.Time      `json:"created_at"`
}

// LoyaltyEventDTO is one entry of the loyalty history.
type LoyaltyEventDTO struct {
	OrderID   uuid.UUID              `json:"order_id"`
	Type      enums.LoyaltyEventType `json:"type"`
	Points    int64                  `json:"points"`
	CreatedAt time.Time              `json:"created_at"`
}

// ProfileDTO bundles the profile with its recent loyalty movements.
type ProfileDTO struct {
	User    UserDTO           `json:"user"`
	History []LoyaltyEventDTO `json:"loyalty_history"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email           string
	FullName        string
	Phone           *string
	Role            enums.UserRole
	LoyaltyPoints   int64
	DiscountPercent int
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Role:            u.Role,
		LoyaltyPoints:   u.LoyaltyPoints,
		DiscountPercent: u.DiscountPercent,
		CreatedAt:       u.CreatedAt,
	}
}

func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:           d.Email,
		FullName:        d.FullName,
		Phone:           d.Phone,
		Role:            d.Role,
		LoyaltyPoints:   d.LoyaltyPoints,
		DiscountPercent: d.DiscountPercent,
	}
}
