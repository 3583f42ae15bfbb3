package transport

import (
	"net/http"
	"strconv"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductListResponse is a filtered catalog listing
type ProductListResponse struct {
	Products []ProductView         `json:"products"`
	Count    int                   `json:"count"`
	Criteria domain.FilterCriteria `json:"criteria"`
}

// ProductView is a product plus the fields the storefront derives from it
type ProductView struct {
	domain.Product
	InStock         bool  `json:"in_stock"`
	DiscountPercent int64 `json:"discount_percent,omitempty"`
}

func newProductView(p domain.Product) ProductView {
	return ProductView{Product: p, InStock: p.InStock(), DiscountPercent: p.DiscountPercent()}
}

// CatalogHandler serves the read-only product catalog
type CatalogHandler struct {
	catalog *catalog.Catalog
	engine  *catalog.Engine
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(c *catalog.Catalog, engine *catalog.Engine, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: c,
		engine:  engine,
		logger:  logger.Named("catalog"),
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/facets", h.Facets)
		r.Get("/{productID}", h.Get)
	})
}

// List handles GET /api/products. Absent query parameters keep their cleared
// filter value.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	// Parse criteria, starting from the cleared filters
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		respondFailure(w, r, h.logger, "Invalid catalog query", err)
		return
	}

	// Filter and sort a copy of the catalog
	products, err := h.engine.List(h.catalog.Products(), criteria)
	if err != nil {
		respondFailure(w, r, h.logger, "Invalid catalog criteria", err)
		return
	}

	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = newProductView(p)
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: views,
		Count:    len(views),
		Criteria: criteria,
	})
}

// Facets handles GET /api/products/facets
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.catalog.Facets())
}

// Get handles GET /api/products/{productID}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.FindByID(chi.URLParam(r, "productID"))
	if err != nil {
		respondFailure(w, r, h.logger, "Product lookup failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductView(product))
}

func criteriaFromQuery(r *http.Request) (domain.FilterCriteria, error) {
	q := r.URL.Query()
	criteria := catalog.DefaultCriteria(q.Get("q"))

	// Unset parameters keep their defaults

	if v := q.Get("category"); v != "" {
		criteria.Category = domain.Category(v)
	}
	if v := q.Get("sort"); v != "" {
		criteria.SortBy = domain.SortKey(v)
	}
	if v := q.Get("min_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return criteria, domain.FieldError(domain.ErrInvalidCriteria, "min_price", "must be a number")
		}
		criteria.PriceRange.Min = price
	}
	if v := q.Get("max_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return criteria, domain.FieldError(domain.ErrInvalidCriteria, "max_price", "must be a number")
		}
		criteria.PriceRange.Max = price
	}
	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			return criteria, domain.FieldError(domain.ErrInvalidCriteria, "in_stock", "must be true or false")
		}
		criteria.InStockOnly = inStock
	}

	return criteria, nil
}
