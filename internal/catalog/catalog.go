package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Catalog is the read-only product set loaded at process start
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

// New validates products and builds a catalog preserving their order
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		if _, exists := c.byID[p.ID]; exists {
			return nil, fmt.Errorf("product %d: duplicate id %q", i, p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	return c, nil
}

// LoadFile reads a JSON array of products
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return New(products)
}

// Products returns a copy of the catalog in source order
func (c *Catalog) Products() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

// Len is the number of products
func (c *Catalog) Len() int {
	return len(c.products)
}

// FindByID looks up a product
func (c *Catalog) FindByID(id string) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, domain.FieldError(domain.ErrUnknownProduct, "product_id", id)
	}
	return c.products[i], nil
}

// Facets summarizes the catalog for filter controls
type Facets struct {
	InStock    int               `json:"in_stock"`
	OutOfStock int               `json:"out_of_stock"`
	Categories []domain.Category `json:"categories"`
	PriceRange domain.PriceRange `json:"price_range"`
}

// Facets returns availability counts, the categories present and the price span
func (c *Catalog) Facets() Facets {
	f := Facets{Categories: []domain.Category{}}
	present := make(map[domain.Category]bool)

	for i, p := range c.products {
		if p.InStock() {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		present[p.Category] = true

		if i == 0 {
			f.PriceRange = domain.PriceRange{Min: p.Price, Max: p.Price}
			continue
		}
		f.PriceRange.Min = decimal.Min(f.PriceRange.Min, p.Price)
		f.PriceRange.Max = decimal.Max(f.PriceRange.Max, p.Price)
	}

	for _, category := range domain.Categories {
		if present[category] {
			f.Categories = append(f.Categories, category)
		}
	}

	return f
}
