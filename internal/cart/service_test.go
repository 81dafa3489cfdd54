package cart

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/pricing"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

type gormTx struct{ db *gorm.DB }

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type gormLoader struct{ db *gorm.DB }

func (g gormLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := g.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

type gormAccounts struct{ db *gorm.DB }

func (g gormAccounts) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

type memoryPreviews struct {
	mu    sync.Mutex
	items map[uuid.UUID]pricing.Preview
}

func newMemoryPreviews() *memoryPreviews {
	return &memoryPreviews{items: map[uuid.UUID]pricing.Preview{}}
}

func (m *memoryPreviews) Load(ctx context.Context, cartID uuid.UUID) (*pricing.Preview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[cartID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memoryPreviews) Save(ctx context.Context, preview pricing.Preview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[preview.CartID] = preview
	return nil
}

func (m *memoryPreviews) Clear(ctx context.Context, cartID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, cartID)
	return nil
}

type recordingAttacher struct {
	calls []string
}

func (r *recordingAttacher) AttachSessionOrders(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error) {
	r.calls = append(r.calls, sessionKey)
	return 0, nil
}

type harness struct {
	db       *gorm.DB
	svc      Service
	previews *memoryPreviews
	attacher *recordingAttacher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:cart_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Category{}, &models.Collection{}, &models.Brand{},
		&models.Product{},
		&models.Cart{}, &models.CartItem{},
	))
	previews := newMemoryPreviews()
	attacher := &recordingAttacher{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := NewService(NewRepository(conn), gormTx{db: conn}, gormLoader{db: conn}, gormAccounts{db: conn}, previews, attacher, logg)
	require.NoError(t, err)
	return &harness{db: conn, svc: svc, previews: previews, attacher: attacher}
}

func (h *harness) product(t *testing.T, price int64, discount *int, sizes map[string]int) *models.Product {
	t.Helper()
	p := &models.Product{
		Title:           "Серьги",
		Slug:            "earrings-" + uuid.NewString(),
		Price:           price,
		DiscountPercent: discount,
		SizeStock:       sizes,
		IsActive:        true,
	}
	require.NoError(t, h.db.Create(p).Error)
	return p
}

func (h *harness) user(t *testing.T, points int64, pct int) *models.User {
	t.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", FullName: "Client", LoyaltyPoints: points, DiscountPercent: pct}
	require.NoError(t, h.db.Create(u).Error)
	return u
}

func TestAddItemCreatesThenIncrementsAndRefreshesPrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := SessionOwner("sess-1")
	product := h.product(t, 10000, nil, nil)

	_, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID})
	require.NoError(t, err)

	pct := 10
	require.NoError(t, h.db.Model(product).Update("discount_percent", pct).Error)

	item, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID})
	require.NoError(t, err)
	require.Equal(t, 2, item.Quantity)
	require.Equal(t, int64(9000), item.Price)

	view, err := h.svc.View(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Cart.Items, 1)
	require.Equal(t, int64(18000), view.Quote.Subtotal)

	count, err := h.svc.TotalQuantity(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestAddItemSeparatesSizes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := SessionOwner("sess-2")
	product := h.product(t, 5000, nil, map[string]int{"17": 1, "18": 1})

	_, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Size: "17"})
	require.NoError(t, err)
	_, err = h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Size: "18"})
	require.NoError(t, err)

	_, err = h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID, Size: "21"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	view, err := h.svc.View(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Cart.Items, 2)
}

func TestAddItemRejectsInactiveAndMissingProducts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := SessionOwner("sess-3")
	product := h.product(t, 5000, nil, nil)
	require.NoError(t, h.db.Model(product).Update("is_active", false).Error)

	_, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.AddItem(ctx, owner, AddItemInput{ProductID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDecrementDeletesLastUnit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := SessionOwner("sess-4")
	product := h.product(t, 5000, nil, nil)

	item, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID})
	require.NoError(t, err)
	require.NoError(t, h.svc.Increment(ctx, owner, item.ID))
	require.NoError(t, h.svc.Decrement(ctx, owner, item.ID))

	count, err := h.svc.TotalQuantity(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, h.svc.Decrement(ctx, owner, item.ID))
	count, err = h.svc.TotalQuantity(ctx, owner)
	require.NoError(t, err)
	require.Zero(t, count)

	err = h.svc.Remove(ctx, owner, item.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestItemsOfAnotherCartAreNotReachable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	product := h.product(t, 5000, nil, nil)

	item, err := h.svc.AddItem(ctx, SessionOwner("owner-a"), AddItemInput{ProductID: product.ID})
	require.NoError(t, err)
	_, err = h.svc.View(ctx, SessionOwner("owner-b"))
	require.NoError(t, err)

	err = h.svc.Increment(ctx, SessionOwner("owner-b"), item.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestApplyBonusClampsAndPersistsPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, 5000, 10)
	owner := UserOwner(user.ID)
	product := h.product(t, 20000, nil, nil)

	_, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID})
	require.NoError(t, err)

	preview, err := h.svc.ApplyBonus(ctx, owner, "9000")
	require.NoError(t, err)
	require.Equal(t, int64(5000), preview.PendingBonus)
	require.Equal(t, pricing.ReasonBalance, preview.Quote.Bonus.Reason)
	require.Equal(t, int64(2000), preview.Quote.DiscountAmount)
	require.Equal(t, int64(13000), preview.Quote.Total)

	view, err := h.svc.View(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(5000), view.Quote.Bonus.Applied)

	preview, err = h.svc.ApplyBonus(ctx, owner, "abc")
	require.NoError(t, err)
	require.Zero(t, preview.PendingBonus)
}

func TestApplyBonusAnonymousAlwaysZero(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := SessionOwner("anon")
	product := h.product(t, 20000, nil, nil)
	_, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: product.ID})
	require.NoError(t, err)

	preview, err := h.svc.ApplyBonus(ctx, owner, "500")
	require.NoError(t, err)
	require.Zero(t, preview.PendingBonus)
	require.Equal(t, pricing.ReasonAnonymous, preview.Quote.Bonus.Reason)
}

func TestViewRevalidatesPendingBonusAfterCartShrinks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, 50000, 0)
	owner := UserOwner(user.ID)
	cheap := h.product(t, 3000, nil, nil)
	pricey := h.product(t, 20000, nil, nil)

	_, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: cheap.ID})
	require.NoError(t, err)
	item, err := h.svc.AddItem(ctx, owner, AddItemInput{ProductID: pricey.ID})
	require.NoError(t, err)

	_, err = h.svc.ApplyBonus(ctx, owner, "20000")
	require.NoError(t, err)
	require.NoError(t, h.svc.Remove(ctx, owner, item.ID))

	view, err := h.svc.View(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(3000), view.Quote.Bonus.Applied)
	require.Equal(t, pricing.ReasonSubtotal, view.Quote.Bonus.Reason)
	require.Zero(t, view.Quote.Total)

	stored, err := pricing.PendingBonus(ctx, h.previews, view.Cart.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3000), stored)

	_, err = h.svc.AddItem(ctx, owner, AddItemInput{ProductID: pricey.ID})
	require.NoError(t, err)
	view, err = h.svc.View(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, int64(3000), view.Quote.Bonus.Applied)
	require.False(t, view.Quote.Bonus.Clamped())
	require.Equal(t, int64(20000), view.Quote.Total)
}

func TestMergeSumsMatchingLinesAndDeletesSessionCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.user(t, 0, 0)
	ring := h.product(t, 7000, nil, map[string]int{"17": 3})
	chain := h.product(t, 9000, nil, nil)

	_, err := h.svc.AddItem(ctx, UserOwner(user.ID), AddItemInput{ProductID: ring.ID, Size: "17"})
	require.NoError(t, err)

	anon := SessionOwner("guest-key")
	_, err = h.svc.AddItem(ctx, anon, AddItemInput{ProductID: ring.ID, Size: "17"})
	require.NoError(t, err)
	_, err = h.svc.AddItem(ctx, anon, AddItemInput{ProductID: ring.ID, Size: "17"})
	require.NoError(t, err)
	_, err = h.svc.AddItem(ctx, anon, AddItemInput{ProductID: chain.ID})
	require.NoError(t, err)

	require.NoError(t, h.svc.Merge(ctx, "guest-key", user.ID))

	view, err := h.svc.View(ctx, UserOwner(user.ID))
	require.NoError(t, err)
	require.Len(t, view.Cart.Items, 2)
	quantities := map[uuid.UUID]int{}
	for _, item := range view.Cart.Items {
		quantities[item.ProductID] = item.Quantity
	}
	require.Equal(t, 3, quantities[ring.ID])
	require.Equal(t, 1, quantities[chain.ID])

	var remaining int64
	require.NoError(t, h.db.Model(&models.Cart{}).Where("session_key = ?", "guest-key").Count(&remaining).Error)
	require.Zero(t, remaining)
	require.Equal(t, []string{"guest-key"}, h.attacher.calls)
}

func TestMergeWithoutSessionCartStillAttachesOrders(t *testing.T) {
	h := newHarness(t)
	user := h.user(t, 0, 0)

	require.NoError(t, h.svc.Merge(context.Background(), "nobody", user.ID))
	require.Equal(t, []string{"nobody"}, h.attacher.calls)
}
