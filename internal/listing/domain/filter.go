package domain

import (
	"math"
	"strings"
)

// PageSize is the fixed number of listings per catalog page.
const PageSize = 9

// maxPagesShown caps how many page entries PageNumbers emits, ellipses
// excluded.
const maxPagesShown = 5

// Ellipsis marks a gap in PageNumbers output.
const Ellipsis = 0

// FilterCriteria is the conjunctive set of search constraints. Empty fields
// impose no constraint.
type FilterCriteria struct {
	Location         string
	PropertyType     string
	TenantPreference string
	MaxPrice         *float64
	OwnerID          string
}

// Normalize trims the free-text fields and folds the enum fields to their
// canonical spelling when they match one. Unknown enum text is kept as is so
// it matches nothing rather than everything.
func (c FilterCriteria) Normalize() FilterCriteria {
	c.Location = strings.TrimSpace(c.Location)
	c.PropertyType = strings.TrimSpace(c.PropertyType)
	c.TenantPreference = strings.TrimSpace(c.TenantPreference)
	c.OwnerID = strings.TrimSpace(c.OwnerID)
	if pt, ok := ParsePropertyType(c.PropertyType); ok {
		c.PropertyType = string(pt)
	}
	if tp, ok := ParseTenantPreference(c.TenantPreference); ok {
		c.TenantPreference = string(tp)
	}
	return c
}

func (c FilterCriteria) Validate() error {
	if c.MaxPrice != nil && (math.IsNaN(*c.MaxPrice) || math.IsInf(*c.MaxPrice, 0)) {
		return &ValidationError{Field: "max_price", Reason: "must be a finite number"}
	}
	if c.MaxPrice != nil && *c.MaxPrice < 0 {
		return &ValidationError{Field: "max_price", Reason: "must not be negative"}
	}
	return nil
}

// IsEmpty reports whether no constraint is set.
func (c FilterCriteria) IsEmpty() bool {
	return c.Location == "" && c.PropertyType == "" && c.TenantPreference == "" &&
		c.MaxPrice == nil && c.OwnerID == ""
}

// Matches evaluates the criteria against a single listing with the same
// semantics the stores apply in SQL.
func (c FilterCriteria) Matches(l *Listing) bool {
	if c.Location != "" && !strings.Contains(fold(l.Location), fold(c.Location)) {
		return false
	}
	if c.PropertyType != "" && fold(string(l.PropertyType)) != fold(c.PropertyType) {
		return false
	}
	if c.TenantPreference != "" && fold(string(l.TenantPreference)) != fold(c.TenantPreference) {
		return false
	}
	if c.MaxPrice != nil && l.Price > *c.MaxPrice {
		return false
	}
	if c.OwnerID != "" && l.OwnerID != c.OwnerID {
		return false
	}
	return true
}

// PageWindow selects a slice of the filtered, ordered catalog.
type PageWindow struct {
	Page int
	Size int
}

// NewPageWindow clamps page to 1 and uses the fixed page size.
func NewPageWindow(page int) PageWindow {
	if page < 1 {
		page = 1
	}
	return PageWindow{Page: page, Size: PageSize}
}

// Offset is the first row index of the half-open range [Offset, Offset+Limit).
func (w PageWindow) Offset() int { return (w.Page - 1) * w.Limit() }

func (w PageWindow) Limit() int {
	if w.Size <= 0 {
		return PageSize
	}
	return w.Size
}

// SearchResult pairs a page of listings with the size of the full filtered
// set. The two come from independent queries and may disagree briefly under
// concurrent writes.
type SearchResult struct {
	TotalCount int
	Items      []*Listing
	Window     PageWindow
}

// TotalPages is ceil(TotalCount / size), 0 for an empty result.
func (r SearchResult) TotalPages() int {
	size := r.Window.Limit()
	if r.TotalCount <= 0 {
		return 0
	}
	return (r.TotalCount + size - 1) / size
}

// StartItem is the 1-based position of the first item on the page, 0 when
// the page holds nothing: an empty result or a page past the last one.
func (r SearchResult) StartItem() int {
	if r.pastEnd() {
		return 0
	}
	return r.Window.Offset() + 1
}

func (r SearchResult) EndItem() int {
	if r.pastEnd() {
		return 0
	}
	end := r.Window.Offset() + r.Window.Limit()
	if end > r.TotalCount {
		return r.TotalCount
	}
	return end
}

func (r SearchResult) pastEnd() bool {
	return r.TotalCount <= 0 || r.Window.Offset() >= r.TotalCount
}

func (r SearchResult) HasPrev() bool { return r.Window.Page > 1 }

func (r SearchResult) HasNext() bool { return r.Window.Page < r.TotalPages() }

// PageNumbers lays out the pagination bar: every page when there are at most
// five, otherwise the first and last page around a short run near the
// current one, with Ellipsis marking the gaps.
func (r SearchResult) PageNumbers() []int {
	total := r.TotalPages()
	current := r.Window.Page
	if total <= maxPagesShown {
		pages := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages
	}
	switch {
	case current <= 3:
		return []int{1, 2, 3, 4, Ellipsis, total}
	case current >= total-2:
		return []int{1, Ellipsis, total - 3, total - 2, total - 1, total}
	default:
		return []int{1, Ellipsis, current - 1, current, current + 1, Ellipsis, total}
	}
}

// Without returns a copy of the result with id removed from the held items.
// The total is decremented only when the id was actually present.
func (r SearchResult) Without(id string) SearchResult {
	items := make([]*Listing, 0, len(r.Items))
	for _, l := range r.Items {
		if l.ID != id {
			items = append(items, l)
		}
	}
	if len(items) < len(r.Items) && r.TotalCount > 0 {
		r.TotalCount--
	}
	r.Items = items
	return r
}
