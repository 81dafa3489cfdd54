package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

type gormTx struct{ db *gorm.DB }

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type recordingPreviews struct {
	cleared []uuid.UUID
	failOn  map[uuid.UUID]bool
}

func (r *recordingPreviews) Clear(_ context.Context, cartID uuid.UUID) error {
	if r.failOn[cartID] {
		return errors.New("redis down")
	}
	r.cleared = append(r.cleared, cartID)
	return nil
}

func newCronTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:cron_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Cart{}, &models.CartItem{}))
	return conn
}

func seedCart(t *testing.T, conn *gorm.DB, userID *uuid.UUID, updatedAt time.Time) uuid.UUID {
	t.Helper()
	c := models.Cart{UserID: userID}
	if userID == nil {
		key := uuid.NewString()
		c.SessionKey = &key
	}
	require.NoError(t, conn.Create(&c).Error)
	require.NoError(t, conn.Model(&models.Cart{}).Where("id = ?", c.ID).UpdateColumn("updated_at", updatedAt).Error)
	require.NoError(t, conn.Create(&models.CartItem{CartID: c.ID, ProductID: uuid.New(), Size: "17", Quantity: 1, Price: 1000}).Error)
	return c.ID
}

func newStaleCartJobForTest(t *testing.T, conn *gorm.DB, previews *recordingPreviews, now time.Time) *staleCartJob {
	t.Helper()
	job, err := NewStaleCartJob(StaleCartJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:        gormTx{db: conn},
		Carts:     cart.NewRepository(conn),
		Previews:  previews,
		MaxAge:    24 * time.Hour,
		BatchSize: 2,
	})
	require.NoError(t, err)
	impl := job.(*staleCartJob)
	impl.now = func() time.Time { return now }
	return impl
}

func TestStaleCartJobRemovesOnlyOldAnonymousCarts(t *testing.T) {
	conn := newCronTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-72 * time.Hour)

	staleIDs := []uuid.UUID{
		seedCart(t, conn, nil, old),
		seedCart(t, conn, nil, old.Add(time.Minute)),
		seedCart(t, conn, nil, old.Add(2*time.Minute)),
	}
	fresh := seedCart(t, conn, nil, now.Add(-time.Hour))
	userID := uuid.New()
	userCart := seedCart(t, conn, &userID, old)

	previews := &recordingPreviews{}
	job := newStaleCartJobForTest(t, conn, previews, now)

	require.Equal(t, "stale-cart-cleanup", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var remaining []uuid.UUID
	require.NoError(t, conn.Model(&models.Cart{}).Order("created_at").Pluck("id", &remaining).Error)
	require.ElementsMatch(t, []uuid.UUID{fresh, userCart}, remaining)

	var orphanItems int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("cart_id IN ?", staleIDs).Count(&orphanItems).Error)
	require.Zero(t, orphanItems)
	require.ElementsMatch(t, staleIDs, previews.cleared)
}

func TestStaleCartJobReportsPreviewFailuresAfterDeleting(t *testing.T) {
	conn := newCronTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	first := seedCart(t, conn, nil, now.Add(-48*time.Hour))
	second := seedCart(t, conn, nil, now.Add(-47*time.Hour))

	previews := &recordingPreviews{failOn: map[uuid.UUID]bool{first: true}}
	job := newStaleCartJobForTest(t, conn, previews, now)

	err := job.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), first.String())

	var count int64
	require.NoError(t, conn.Model(&models.Cart{}).Count(&count).Error)
	require.Zero(t, count)
	require.Equal(t, []uuid.UUID{second}, previews.cleared)
}

func TestNewStaleCartJobRequiresDependencies(t *testing.T) {
	_, err := NewStaleCartJob(StaleCartJobParams{})
	require.Error(t, err)
}
