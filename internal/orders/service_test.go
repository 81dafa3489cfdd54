package orders

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/internal/ledger"
	"github.com/marais-jewelry/marais-backend/internal/users"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

type gormTx struct{ db *gorm.DB }

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type refundCounter struct{ total int64 }

func (r *refundCounter) AddRefund(points int64) { r.total += points }

type harness struct {
	db      *gorm.DB
	svc     Service
	refunds *refundCounter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:orders_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Category{}, &models.Collection{}, &models.Brand{},
		&models.Product{},
		&models.Order{}, &models.OrderItem{},
		&models.LoyaltyEvent{},
	))
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	refunds := &refundCounter{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := NewService(NewRepository(conn), gormTx{db: conn}, users.NewRepository(conn), ledgerSvc, refunds, logg)
	require.NoError(t, err)
	return &harness{db: conn, svc: svc, refunds: refunds}
}

func (h *harness) seedOrder(t *testing.T, userID *uuid.UUID, session *string, bonuses int64) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:      userID,
		SessionKey:  session,
		Status:      enums.OrderStatusSent,
		ItemsTotal:  30000,
		BonusesUsed: bonuses,
		FinalPrice:  30000 - bonuses,
		Items:       []models.OrderItem{{Title: "Кольцо", Quantity: 1, Price: 30000}},
	}
	require.NoError(t, h.db.Create(order).Error)
	return order
}

func (h *harness) balance(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	var u models.User
	require.NoError(t, h.db.First(&u, "id = ?", id).Error)
	return u.LoyaltyPoints
}

func TestTransitionToCancelledRefundsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := &models.User{Email: "r@example.com", FullName: "R", LoyaltyPoints: 100}
	require.NoError(t, h.db.Create(user).Error)
	order := h.seedOrder(t, &user.ID, nil, 1500)

	res, err := h.svc.TransitionStatus(ctx, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.Equal(t, int64(1500), res.RefundedPoints)
	require.Equal(t, "sent", res.PreviousStatus)
	require.Equal(t, int64(1600), h.balance(t, user.ID))

	res, err = h.svc.TransitionStatus(ctx, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.Zero(t, res.RefundedPoints)
	require.Equal(t, int64(1600), h.balance(t, user.ID))

	_, err = h.svc.TransitionStatus(ctx, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusNew})
	require.NoError(t, err)
	res, err = h.svc.TransitionStatus(ctx, TransitionInput{OrderID: order.ID, Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.Zero(t, res.RefundedPoints)
	require.Equal(t, int64(1600), h.balance(t, user.ID))

	var events int64
	require.NoError(t, h.db.Model(&models.LoyaltyEvent{}).Where("order_id = ?", order.ID).Count(&events).Error)
	require.Equal(t, int64(1), events)
	require.Equal(t, int64(1500), h.refunds.total)
}

func TestTransitionWithoutBonusDoesNotRefund(t *testing.T) {
	h := newHarness(t)
	user := &models.User{Email: "n@example.com", FullName: "N", LoyaltyPoints: 10}
	require.NoError(t, h.db.Create(user).Error)
	order := h.seedOrder(t, &user.ID, nil, 0)

	res, err := h.svc.TransitionStatus(context.Background(), TransitionInput{OrderID: order.ID, Status: enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.Zero(t, res.RefundedPoints)
	require.Equal(t, enums.OrderStatusCancelled, res.Order.Status)
	require.Equal(t, int64(10), h.balance(t, user.ID))
}

func TestTransitionValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.TransitionStatus(ctx, TransitionInput{OrderID: uuid.New(), Status: "shipped"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.TransitionStatus(ctx, TransitionInput{OrderID: uuid.New(), Status: enums.OrderStatusPurchased})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestOrderNumberSurvivesStatusChange(t *testing.T) {
	h := newHarness(t)
	order := h.seedOrder(t, nil, strPtr("guest"), 0)

	res, err := h.svc.TransitionStatus(context.Background(), TransitionInput{OrderID: order.ID, Status: enums.OrderStatusPurchased})
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, res.Order.OrderNumber)
}

func TestListAndGetAreOwnerScoped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mine := h.seedOrder(t, nil, strPtr("guest-a"), 0)
	h.seedOrder(t, nil, strPtr("guest-a"), 0)
	h.seedOrder(t, nil, strPtr("guest-b"), 0)

	list, err := h.svc.ListForOwner(ctx, cart.SessionOwner("guest-a"), pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	require.Equal(t, int64(2), list.Page.Total)

	_, err = h.svc.Get(ctx, cart.SessionOwner("guest-b"), mine.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := h.svc.Get(ctx, cart.SessionOwner("guest-a"), mine.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
}

func TestAttachSessionOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := &models.User{Email: "a@example.com", FullName: "A"}
	require.NoError(t, h.db.Create(user).Error)
	h.seedOrder(t, nil, strPtr("guest-x"), 0)

	n, err := h.svc.AttachSessionOrders(ctx, "guest-x", user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	list, err := h.svc.ListForOwner(ctx, cart.UserOwner(user.ID), pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
}

func strPtr(v string) *string { return &v }
