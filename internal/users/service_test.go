package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/ledger"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
)

type stubUserStore struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubUserStore) SetDiscountPercent(ctx context.Context, id uuid.UUID, pct int) error {
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.DiscountPercent = pct
	return nil
}

type stubLedger struct {
	events []models.LoyaltyEvent
}

func (s *stubLedger) WithTx(*gorm.DB) ledger.Service { return s }

func (s *stubLedger) RecordEvent(ctx context.Context, input ledger.RecordLoyaltyEventInput) (*models.LoyaltyEvent, error) {
	return nil, nil
}

func (s *stubLedger) HasEvent(ctx context.Context, orderID uuid.UUID, eventType enums.LoyaltyEventType) (bool, error) {
	return false, nil
}

func (s *stubLedger) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyEvent, error) {
	return s.events, nil
}

func TestNewServiceRequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil, &stubLedger{}); err == nil {
		t.Fatalf("expected error for nil repo")
	}
	if _, err := NewService(&stubUserStore{}, nil); err == nil {
		t.Fatalf("expected error for nil ledger")
	}
}

func TestSetDiscountPercent(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := &stubUserStore{users: map[uuid.UUID]*models.User{id: {ID: id, Email: "x@example.com"}}}
	svc, err := NewService(store, &stubLedger{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	for _, pct := range []int{-1, 101} {
		_, err := svc.SetDiscountPercent(context.Background(), id, pct)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("pct %d: expected validation error, got %v", pct, err)
		}
	}

	dto, err := svc.SetDiscountPercent(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("set discount: %v", err)
	}
	if dto.DiscountPercent != 20 {
		t.Fatalf("expected 20, got %d", dto.DiscountPercent)
	}

	if _, err := svc.SetDiscountPercent(context.Background(), uuid.New(), 5); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProfileIncludesHistory(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	store := &stubUserStore{users: map[uuid.UUID]*models.User{id: {ID: id, LoyaltyPoints: 70}}}
	led := &stubLedger{events: []models.LoyaltyEvent{{UserID: id, OrderID: uuid.New(), Type: enums.LoyaltyEventTypeRedeemed, Points: 30}}}
	svc, err := NewService(store, led)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	profile, err := svc.Profile(context.Background(), id)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.User.LoyaltyPoints != 70 || len(profile.History) != 1 || profile.History[0].Points != 30 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}
