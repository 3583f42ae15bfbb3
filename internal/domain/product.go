package domain

import (
	"github.com/shopspring/decimal"
)

// Category is one of the fixed catalog categories
type Category string

const (
	CategoryAll         Category = "All"
	CategorySmartphones Category = "Smartphones"
	CategoryLaptops     Category = "Laptops"
	CategoryAudio       Category = "Audio"
	CategoryWearables   Category = "Wearables"
	CategoryTablets     Category = "Tablets"
	CategoryAccessories Category = "Accessories"
)

// Categories lists the sellable categories in display order
var Categories = []Category{
	CategorySmartphones,
	CategoryLaptops,
	CategoryAudio,
	CategoryWearables,
	CategoryTablets,
	CategoryAccessories,
}

// Valid reports whether c is a sellable category. "All" is a filter value, not a category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a product in the catalog
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	ImageURL      string           `json:"image_url"`
	Category      Category         `json:"category"`
	Stock         int              `json:"stock"`
	Rating        float64          `json:"rating"`
	Reviews       int              `json:"reviews"`
	Features      []string         `json:"features,omitempty"`
}

// InStock is derived from the stock level
func (p Product) InStock() bool {
	return p.Stock > 0
}

// OnSale reports whether the product carries a discount badge
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

// DiscountPercent is the badge percentage, rounded to a whole number
func (p Product) DiscountPercent() int64 {
	if !p.OnSale() {
		return 0
	}
	saved := p.OriginalPrice.Sub(p.Price)
	return saved.Div(*p.OriginalPrice).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Validate checks the catalog record invariants
func (p Product) Validate() error {
	switch {
	case p.ID == "":
		return FieldError(ErrInvalidProduct, "id", "product id is required")
	case p.Price.IsNegative():
		return FieldError(ErrInvalidProduct, "price", "price must not be negative")
	case p.OriginalPrice != nil && !p.OriginalPrice.GreaterThan(p.Price):
		return FieldError(ErrInvalidProduct, "original_price", "original price must be greater than price")
	case p.Stock < 0:
		return FieldError(ErrInvalidProduct, "stock", "stock must not be negative")
	case p.Rating < 0 || p.Rating > 5:
		return FieldError(ErrInvalidProduct, "rating", "rating must be between 0 and 5")
	case !p.Category.Valid():
		return FieldError(ErrInvalidProduct, "category", "unknown category "+string(p.Category))
	}
	return nil
}
