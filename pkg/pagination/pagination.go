package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultPerPage is the storefront grid size.
	DefaultPerPage = 12
	// MaxPerPage caps any page request.
	MaxPerPage = 100
)

// Params holds page-number pagination inputs.
type Params struct {
	Page    int
	PerPage int
}

// Page describes the returned window.
type Page struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Normalize applies defaults: page starts at 1, per-page falls back to
// fallback and is capped at MaxPerPage.
func Normalize(p Params, fallback int) Params {
	if fallback <= 0 {
		fallback = DefaultPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = fallback
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset of the page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// ParsePage reads a page number from query input; anything invalid is page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Build describes the window for total rows. A page past the end is clamped
// to the last page.
func Build(p Params, total int64) (Params, Page) {
	pages := 0
	if total > 0 && p.PerPage > 0 {
		pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	if pages > 0 && p.Page > pages {
		p.Page = pages
	}
	return p, Page{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}
