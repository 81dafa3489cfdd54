package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

// Gender values accepted on products and in filters.
var Genders = []string{"women", "men", "unisex", "kids"}

// ListFilter is the storefront browse query. Empty slices do not filter.
type ListFilter struct {
	CategoryIDs   []uuid.UUID
	BrandIDs      []uuid.UUID
	CollectionIDs []uuid.UUID
	Genders       []string
	Metals        []string
	Materials     []string
	Stones        []string
	Coverages     []string
	Colors        []string
	Sizes         []string
	MinPrice      *int64
	MaxPrice      *int64
	Page          pagination.Params
}

// FilterFromQuery reads a ListFilter from query parameters. Repeated keys and
// comma separated values are both accepted. Blank values, the literal "None"
// and unparseable ids or prices are ignored.
func FilterFromQuery(q url.Values) ListFilter {
	return ListFilter{
		CategoryIDs:   uuidValues(q, "category"),
		BrandIDs:      uuidValues(q, "brand"),
		CollectionIDs: uuidValues(q, "collection"),
		Genders:       stringValues(q, "gender"),
		Metals:        stringValues(q, "metal"),
		Materials:     stringValues(q, "material"),
		Stones:        stringValues(q, "stones"),
		Coverages:     stringValues(q, "coverage"),
		Colors:        stringValues(q, "color"),
		Sizes:         stringValues(q, "size"),
		MinPrice:      priceValue(q.Get("min_price")),
		MaxPrice:      priceValue(q.Get("max_price")),
		Page:          pagination.Params{Page: pagination.ParsePage(q.Get("page"))},
	}
}

func stringValues(q url.Values, key string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == "None" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func uuidValues(q url.Values, key string) []uuid.UUID {
	var out []uuid.UUID
	for _, raw := range stringValues(q, key) {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func priceValue(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil
	}
	v := int64(f)
	return &v
}
