package inventory

import "github.com/marais-jewelry/marais-backend/pkg/db/models"

// Adjustment records how a settlement line changed a product's stock.
type Adjustment struct {
	Size      string
	Requested int
	Before    int
	After     int
	BySize    bool
	Shortfall int
}

// Decrement removes qty units for a settled line. With a size map and a size
// on the line only that size is decremented, floored at zero, and the
// aggregate is recomputed. A sized product on a line without a size cannot be
// attributed to any size: stock stays at the map total and the whole line is
// reported as shortfall. Otherwise the aggregate stock is decremented,
// floored at zero.
func Decrement(product *models.Product, size string, qty int) Adjustment {
	adj := Adjustment{Size: size, Requested: qty, Before: product.Stock}
	if qty <= 0 {
		adj.After = product.Stock
		return adj
	}

	if product.HasSizeStock() && size == "" {
		product.Stock, product.Size = Reconcile(product.SizeStock)
		adj.Shortfall = qty
		adj.After = product.Stock
		return adj
	}

	if product.HasSizeStock() {
		adj.BySize = true
		// An unlisted size counts as zero and is written back at zero.
		current := max(product.SizeStock[size], 0)
		if qty > current {
			adj.Shortfall = qty - current
		}
		updated := make(map[string]int, len(product.SizeStock))
		for k, v := range product.SizeStock {
			updated[k] = v
		}
		updated[size] = max(current-qty, 0)
		product.SizeStock = updated
		product.Stock, product.Size = Reconcile(product.SizeStock)
		adj.After = product.Stock
		return adj
	}

	if qty > product.Stock {
		adj.Shortfall = qty - max(product.Stock, 0)
	}
	product.Stock = max(product.Stock-qty, 0)
	adj.After = product.Stock
	return adj
}
