package inventory

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

func openLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:inventory_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Category{}, &models.Collection{}, &models.Brand{}, &models.Product{}))
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, product *models.Product) *models.Product {
	t.Helper()
	product.Title = "Кольцо"
	product.Slug = "ring-" + uuid.NewString()
	product.IsActive = true
	Apply(product)
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestLedgerApplySettlement(t *testing.T) {
	conn := openLedgerDB(t)
	buf := &bytes.Buffer{}
	ledger, err := NewLedger(NewRepository(conn), logger.New(logger.Options{ServiceName: "test", Output: buf}))
	require.NoError(t, err)

	sized := seedProduct(t, conn, &models.Product{SizeStock: map[string]int{"17": 2, "18": 3}})
	plain := seedProduct(t, conn, &models.Product{Stock: 4})
	goneID := uuid.New()

	lines := []Line{
		{ProductID: &sized.ID, Size: "17", Quantity: 2},
		{ProductID: &sized.ID, Size: "18", Quantity: 1},
		{ProductID: &plain.ID, Quantity: 6},
		{ProductID: &goneID, Quantity: 1},
		{ProductID: nil, Quantity: 1},
	}

	var results []Result
	err = conn.Transaction(func(tx *gorm.DB) error {
		var applyErr error
		results, applyErr = ledger.ApplySettlement(context.Background(), tx, lines)
		return applyErr
	})
	require.NoError(t, err)
	require.Len(t, results, 5)
	require.True(t, results[3].Missing)
	require.True(t, results[4].Missing)
	require.Equal(t, 2, Shortfall(results))
	require.Contains(t, buf.String(), "product missing at settlement")

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", sized.ID).Error)
	require.Equal(t, map[string]int{"17": 0, "18": 2}, reloaded.SizeStock)
	require.Equal(t, 2, reloaded.Stock)
	require.Equal(t, "17, 18", reloaded.Size)

	require.NoError(t, conn.First(&reloaded, "id = ?", plain.ID).Error)
	require.Equal(t, 0, reloaded.Stock)
}

func TestLedgerKeepsSizedStockConsistentForSizelessLine(t *testing.T) {
	conn := openLedgerDB(t)
	ledger, err := NewLedger(NewRepository(conn), logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}))
	require.NoError(t, err)

	sized := seedProduct(t, conn, &models.Product{SizeStock: map[string]int{"17": 2, "18": 3}})

	var results []Result
	err = conn.Transaction(func(tx *gorm.DB) error {
		var applyErr error
		results, applyErr = ledger.ApplySettlement(context.Background(), tx, []Line{{ProductID: &sized.ID, Quantity: 1}})
		return applyErr
	})
	require.NoError(t, err)
	require.Equal(t, 1, Shortfall(results))

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", sized.ID).Error)
	require.Equal(t, map[string]int{"17": 2, "18": 3}, reloaded.SizeStock)
	require.Equal(t, 5, reloaded.Stock)
	require.Equal(t, "17, 18", reloaded.Size)
}

func TestLedgerRollsBackWithTransaction(t *testing.T) {
	conn := openLedgerDB(t)
	ledger, err := NewLedger(NewRepository(conn), logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}))
	require.NoError(t, err)

	plain := seedProduct(t, conn, &models.Product{Stock: 4})
	err = conn.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.ApplySettlement(context.Background(), tx, []Line{{ProductID: &plain.ID, Quantity: 1}}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.Error(t, err)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", plain.ID).Error)
	require.Equal(t, 4, reloaded.Stock)
}

func TestNewLedgerValidatesDependencies(t *testing.T) {
	if _, err := NewLedger(nil, logger.New(logger.Options{})); err == nil {
		t.Fatal("expected error without repository")
	}
	if _, err := NewLedger(NewRepository(nil), nil); err == nil {
		t.Fatal("expected error without logger")
	}
}
