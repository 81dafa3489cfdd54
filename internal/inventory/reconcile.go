package inventory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
)

// SizeLabelSeparator joins sizes in the display label.
const SizeLabelSeparator = ", "

// Reconcile derives the aggregate stock and display label from a size map.
// Negative quantities count as zero. An empty map yields (0, "").
func Reconcile(sizeStock map[string]int) (int, string) {
	if len(sizeStock) == 0 {
		return 0, ""
	}
	stock := 0
	sizes := make([]string, 0, len(sizeStock))
	for size, qty := range sizeStock {
		if qty > 0 {
			stock += qty
		}
		sizes = append(sizes, size)
	}
	return stock, strings.Join(SortSizes(sizes), SizeLabelSeparator)
}

// Normalize returns a copy of the map with negative quantities raised to 0
// and blank sizes dropped.
func Normalize(sizeStock map[string]int) map[string]int {
	if len(sizeStock) == 0 {
		return nil
	}
	out := make(map[string]int, len(sizeStock))
	for size, qty := range sizeStock {
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		out[size] = max(qty, 0)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortSizes orders sizes numerically when they parse as numbers; numeric
// sizes come before non-numeric ones, which sort lexicographically.
func SortSizes(sizes []string) []string {
	out := append([]string(nil), sizes...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aErr := parseSize(out[i])
		b, bErr := parseSize(out[j])
		switch {
		case aErr == nil && bErr == nil:
			if a != b {
				return a < b
			}
			return out[i] < out[j]
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func parseSize(size string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(size), ",", "."), 64)
}

// Apply runs Reconcile on a product about to be written. Products without a
// size map keep their manually managed stock.
func Apply(product *models.Product) {
	product.SizeStock = Normalize(product.SizeStock)
	if !product.HasSizeStock() {
		return
	}
	product.Stock, product.Size = Reconcile(product.SizeStock)
}

// ParseSizeStock reads the admin text format: one "size=qty" or "size:qty"
// pair per line. Quantities below zero are stored as zero.
func ParseSizeStock(text string) (map[string]int, error) {
	result := map[string]int{}
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		size, rawQty, ok := strings.Cut(line, "=")
		if !ok {
			size, rawQty, ok = strings.Cut(line, ":")
		}
		if !ok {
			return nil, fmt.Errorf("line %d: expected size=quantity, e.g. 17=2", n+1)
		}
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		qty, err := strconv.Atoi(strings.TrimSpace(rawQty))
		if err != nil {
			return nil, fmt.Errorf("line %d: quantity for size %q must be an integer", n+1, size)
		}
		result[size] = max(qty, 0)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// FormatSizeStock renders a size map back into the admin text format.
func FormatSizeStock(sizeStock map[string]int) string {
	sizes := make([]string, 0, len(sizeStock))
	for size := range sizeStock {
		sizes = append(sizes, size)
	}
	lines := make([]string, 0, len(sizes))
	for _, size := range SortSizes(sizes) {
		lines = append(lines, fmt.Sprintf("%s=%d", size, sizeStock[size]))
	}
	return strings.Join(lines, "\n")
}
