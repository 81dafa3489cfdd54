package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/ledger"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
)

const historyLimit = 50

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetDiscountPercent(ctx context.Context, id uuid.UUID, pct int) error
}

// Service exposes profile reads and the admin discount override.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	SetDiscountPercent(ctx context.Context, userID uuid.UUID, pct int) (*UserDTO, error)
}

type service struct {
	repo   userStore
	ledger ledger.Service
}

func NewService(repo userStore, ledgerSvc ledger.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &service{repo: repo, ledger: ledgerSvc}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	events, err := s.ledger.History(ctx, userID, historyLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load loyalty history")
	}
	history := make([]LoyaltyEventDTO, 0, len(events))
	for _, e := range events {
		history = append(history, LoyaltyEventDTO{
			OrderID:   e.OrderID,
			Type:      e.Type,
			Points:    e.Points,
			CreatedAt: e.CreatedAt,
		})
	}
	return &ProfileDTO{User: *FromModel(user), History: history}, nil
}

func (s *service) SetDiscountPercent(ctx context.Context, userID uuid.UUID, pct int) (*UserDTO, error) {
	if pct < 0 || pct > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100")
	}
	if err := s.repo.SetDiscountPercent(ctx, userID, pct); err != nil {
		return nil, mapLookupError(err)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(user), nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
}
