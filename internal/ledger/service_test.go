package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, event *models.LoyaltyEvent) error
	events   []models.LoyaltyEvent
	boundTx  *gorm.DB
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	f.boundTx = tx
	return f
}

func (f *fakeRepository) Create(ctx context.Context, event *models.LoyaltyEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LoyaltyEvent, error) {
	var out []models.LoyaltyEvent
	for _, e := range f.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]models.LoyaltyEvent, error) {
	var out []models.LoyaltyEvent
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) Exists(ctx context.Context, orderID uuid.UUID, eventType enums.LoyaltyEventType) (bool, error) {
	for _, e := range f.events {
		if e.OrderID == orderID && e.Type == eventType {
			return true, nil
		}
	}
	return false, nil
}

func TestService_RecordAndHasEvent(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	input := RecordLoyaltyEventInput{
		UserID:  uuid.New(),
		OrderID: uuid.New(),
		Type:    enums.LoyaltyEventTypeRedeemed,
		Points:  2000,
	}
	got, err := svc.RecordEvent(context.Background(), input)
	if err != nil {
		t.Fatalf("RecordEvent error: %v", err)
	}
	if got.UserID != input.UserID || got.OrderID != input.OrderID || got.Points != 2000 {
		t.Fatalf("unexpected event %+v", got)
	}

	has, err := svc.HasEvent(context.Background(), input.OrderID, enums.LoyaltyEventTypeRedeemed)
	if err != nil || !has {
		t.Fatalf("expected redeemed event, has=%v err=%v", has, err)
	}
	has, err = svc.HasEvent(context.Background(), input.OrderID, enums.LoyaltyEventTypeRefunded)
	if err != nil || has {
		t.Fatalf("expected no refund event, has=%v err=%v", has, err)
	}

	history, err := svc.History(context.Background(), input.UserID, 10)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected one history entry, got %d err=%v", len(history), err)
	}
}

func TestService_WithTxBindsRepository(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)
	tx := &gorm.DB{}
	svc.WithTx(tx)
	if repo.boundTx != tx {
		t.Fatal("expected repository to be bound to the transaction")
	}
}

func TestService_RecordEventValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input RecordLoyaltyEventInput
	}{
		{
			name:  "missing user",
			input: RecordLoyaltyEventInput{OrderID: uuid.New(), Type: enums.LoyaltyEventTypeRedeemed, Points: 1},
		},
		{
			name:  "missing order",
			input: RecordLoyaltyEventInput{UserID: uuid.New(), Type: enums.LoyaltyEventTypeRedeemed, Points: 1},
		},
		{
			name:  "invalid type",
			input: RecordLoyaltyEventInput{UserID: uuid.New(), OrderID: uuid.New(), Type: "bonus_expired", Points: 1},
		},
		{
			name:  "zero points",
			input: RecordLoyaltyEventInput{UserID: uuid.New(), OrderID: uuid.New(), Type: enums.LoyaltyEventTypeRefunded},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordEvent(context.Background(), tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}

	if _, err := svc.HasEvent(context.Background(), uuid.Nil, enums.LoyaltyEventTypeRedeemed); err == nil {
		t.Fatal("expected error for nil order id")
	}
}

func TestService_RecordEventRepoError(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	expectedErr := errors.New("boom")
	repo.createFn = func(ctx context.Context, event *models.LoyaltyEvent) error {
		return expectedErr
	}

	if _, err := svc.RecordEvent(context.Background(), RecordLoyaltyEventInput{
		UserID:  uuid.New(),
		OrderID: uuid.New(),
		Type:    enums.LoyaltyEventTypeRefunded,
		Points:  100,
	}); !errors.Is(err, expectedErr) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}
