package domain

import "github.com/shopspring/decimal"

// SortKey selects the catalog listing order
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByPriceLow  SortKey = "price-low"
	SortByPriceHigh SortKey = "price-high"
	SortByRating    SortKey = "rating"
	SortByNewest    SortKey = "newest"
)

// Valid reports whether k is a known sort key
func (k SortKey) Valid() bool {
	switch k {
	case SortByName, SortByPriceLow, SortByPriceHigh, SortByRating, SortByNewest:
		return true
	default:
		return false
	}
}

// PriceRange is an inclusive [Min, Max] price window
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Contains reports whether price lies inside the inclusive range
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// FilterCriteria drives the catalog listing
type FilterCriteria struct {
	Category    Category   `json:"category"`
	PriceRange  PriceRange `json:"price_range"`
	InStockOnly bool       `json:"in_stock_only"`
	SortBy      SortKey    `json:"sort_by"`
	SearchText  string     `json:"search_text"`
}

// Validate checks the criteria invariants
func (c FilterCriteria) Validate() error {
	if c.PriceRange.Min.GreaterThan(c.PriceRange.Max) {
		return FieldError(ErrInvalidCriteria, "price_range", "minimum must not exceed maximum")
	}
	if c.Category != CategoryAll && !c.Category.Valid() {
		return FieldError(ErrInvalidCriteria, "category", "unknown category "+string(c.Category))
	}
	if !c.SortBy.Valid() {
		return FieldError(ErrInvalidCriteria, "sort_by", "unknown sort key "+string(c.SortBy))
	}
	return nil
}
