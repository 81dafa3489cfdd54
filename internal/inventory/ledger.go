package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

// Line is one settled order line as seen by the ledger.
type Line struct {
	ProductID *uuid.UUID
	Size      string
	Quantity  int
}

// Result reports what happened to a single line.
type Result struct {
	Line       Line
	Missing    bool
	Adjustment Adjustment
}

// Ledger decrements stock for settled orders.
type Ledger struct {
	repo StockRepository
	logg *logger.Logger
}

// NewLedger wires the inventory ledger.
func NewLedger(repo StockRepository, logg *logger.Logger) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Ledger{repo: repo, logg: logg}, nil
}

// ApplySettlement decrements stock for every line inside tx. Products are
// locked before they are read. Lines whose product is gone are reported as
// missing and do not fail the settlement.
func (l *Ledger) ApplySettlement(ctx context.Context, tx *gorm.DB, lines []Line) ([]Result, error) {
	repo := l.repo.WithTx(tx)

	ids := make([]uuid.UUID, 0, len(lines))
	seen := map[uuid.UUID]struct{}{}
	for _, line := range lines {
		if line.ProductID == nil {
			continue
		}
		if _, ok := seen[*line.ProductID]; ok {
			continue
		}
		seen[*line.ProductID] = struct{}{}
		ids = append(ids, *line.ProductID)
	}

	products, err := repo.LockProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	results := make([]Result, 0, len(lines))
	touched := make([]uuid.UUID, 0, len(products))
	dirty := map[uuid.UUID]bool{}
	for _, line := range lines {
		if line.ProductID == nil {
			results = append(results, Result{Line: line, Missing: true})
			continue
		}
		product, ok := products[*line.ProductID]
		if !ok {
			warnCtx := l.logg.WithField(ctx, "product_id", line.ProductID.String())
			l.logg.Warn(warnCtx, "product missing at settlement; skipping stock decrement")
			results = append(results, Result{Line: line, Missing: true})
			continue
		}
		adj := Decrement(product, line.Size, line.Quantity)
		if !dirty[product.ID] {
			dirty[product.ID] = true
			touched = append(touched, product.ID)
		}
		results = append(results, Result{Line: line, Adjustment: adj})
	}

	for _, id := range touched {
		if err := repo.SaveStock(ctx, products[id]); err != nil {
			return nil, fmt.Errorf("save stock for product %s: %w", id, err)
		}
	}
	return results, nil
}

// Shortfall sums the units sold beyond available stock across results.
func Shortfall(results []Result) int {
	total := 0
	for _, r := range results {
		total += r.Adjustment.Shortfall
	}
	return total
}
