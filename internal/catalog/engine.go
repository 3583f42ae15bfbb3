// Package catalog filters and sorts the product catalog.
package catalog

import (
	"slices"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MaxPrice is the upper bound of the default price filter
var MaxPrice = decimal.NewFromInt(3000)

// DefaultCriteria returns the cleared filter state, keeping searchText
func DefaultCriteria(searchText string) domain.FilterCriteria {
	return domain.FilterCriteria{
		Category:    domain.CategoryAll,
		PriceRange:  domain.PriceRange{Min: decimal.Zero, Max: MaxPrice},
		InStockOnly: false,
		SortBy:      domain.SortByName,
		SearchText:  searchText,
	}
}

// Engine lists products for a set of criteria. It holds no product state and
// can be reused across calls.
type Engine struct {
	locale language.Tag
}

// NewEngine creates an engine that compares names using the given locale
func NewEngine(locale language.Tag) *Engine {
	return &Engine{locale: locale}
}

// List returns the products matching criteria in the requested order. The
// input slice is never modified.
func (e *Engine) List(products []domain.Product, criteria domain.FilterCriteria) ([]domain.Product, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	search := strings.ToLower(criteria.SearchText)
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, criteria, search) {
			filtered = append(filtered, p)
		}
	}

	switch criteria.SortBy {
	case domain.SortByPriceLow:
		slices.SortStableFunc(filtered, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case domain.SortByPriceHigh:
		slices.SortStableFunc(filtered, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	case domain.SortByRating:
		slices.SortStableFunc(filtered, func(a, b domain.Product) int {
			return compareFloat(b.Rating, a.Rating)
		})
	case domain.SortByNewest:
		// No creation timestamp exists; newest is reverse source order.
		slices.Reverse(filtered)
	default:
		// Collators keep internal buffers, so one per call.
		collator := collate.New(e.locale)
		slices.SortStableFunc(filtered, func(a, b domain.Product) int {
			return collator.CompareString(a.Name, b.Name)
		})
	}

	return filtered, nil
}

func matches(p domain.Product, criteria domain.FilterCriteria, search string) bool {
	if criteria.Category != domain.CategoryAll && p.Category != criteria.Category {
		return false
	}
	if !criteria.PriceRange.Contains(p.Price) {
		return false
	}
	if criteria.InStockOnly && !p.InStock() {
		return false
	}
	if search != "" &&
		!strings.Contains(strings.ToLower(p.Name), search) &&
		!strings.Contains(strings.ToLower(p.Description), search) {
		return false
	}
	return true
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
