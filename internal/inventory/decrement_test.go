package inventory

import (
	"reflect"
	"testing"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
)

func sizedProduct() *models.Product {
	p := &models.Product{SizeStock: map[string]int{"17": 2, "18": 3}}
	Apply(p)
	return p
}

func TestDecrementBySize(t *testing.T) {
	t.Parallel()
	product := sizedProduct()
	adj := Decrement(product, "17", 2)

	want := map[string]int{"17": 0, "18": 3}
	if !reflect.DeepEqual(product.SizeStock, want) {
		t.Fatalf("expected size stock %v got %v", want, product.SizeStock)
	}
	if product.Stock != 3 {
		t.Fatalf("expected stock 3 got %d", product.Stock)
	}
	if !adj.BySize || adj.Before != 5 || adj.After != 3 || adj.Shortfall != 0 {
		t.Fatalf("unexpected adjustment %+v", adj)
	}
}

func TestDecrementBySizeFloorsAtZero(t *testing.T) {
	t.Parallel()
	product := sizedProduct()
	adj := Decrement(product, "18", 5)
	if product.SizeStock["18"] != 0 || product.Stock != 2 {
		t.Fatalf("expected size 18 at 0 and stock 2, got %v stock=%d", product.SizeStock, product.Stock)
	}
	if adj.Shortfall != 2 {
		t.Fatalf("expected shortfall 2 got %d", adj.Shortfall)
	}
}

func TestDecrementUnlistedSize(t *testing.T) {
	t.Parallel()
	product := sizedProduct()
	Decrement(product, "20", 1)
	if product.SizeStock["20"] != 0 || product.Stock != 5 {
		t.Fatalf("unexpected state %v stock=%d", product.SizeStock, product.Stock)
	}
	if product.Size != "17, 18, 20" {
		t.Fatalf("unexpected label %q", product.Size)
	}
}

func TestDecrementAggregate(t *testing.T) {
	t.Parallel()
	product := &models.Product{Stock: 4}
	adj := Decrement(product, "", 3)
	if product.Stock != 1 || adj.BySize {
		t.Fatalf("expected aggregate decrement to 1, got %d (%+v)", product.Stock, adj)
	}
	adj = Decrement(product, "17", 3)
	if product.Stock != 0 || adj.Shortfall != 2 {
		t.Fatalf("expected floor at 0 with shortfall 2, got stock=%d %+v", product.Stock, adj)
	}
}

func TestDecrementSizedProductWithoutLineSize(t *testing.T) {
	t.Parallel()
	product := sizedProduct()
	adj := Decrement(product, "", 1)
	if product.Stock != 5 {
		t.Fatalf("expected stock to stay at the size total 5, got %d", product.Stock)
	}
	if product.SizeStock["17"] != 2 || product.SizeStock["18"] != 3 {
		t.Fatalf("size map should be untouched, got %v", product.SizeStock)
	}
	if adj.BySize || adj.Shortfall != 1 || adj.After != 5 {
		t.Fatalf("expected the line to be reported as shortfall, got %+v", adj)
	}
}

func TestDecrementDoesNotMutateSharedMap(t *testing.T) {
	t.Parallel()
	shared := map[string]int{"17": 2}
	product := &models.Product{SizeStock: shared, Stock: 2}
	Decrement(product, "17", 1)
	if shared["17"] != 2 {
		t.Fatalf("caller map mutated: %v", shared)
	}
}
