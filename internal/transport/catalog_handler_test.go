package transport

import (
	"net/http"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/catalog"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productIDs(resp ProductListResponse) []string {
	ids := make([]string, len(resp.Products))
	for i, p := range resp.Products {
		ids[i] = p.ID
	}
	return ids
}

func TestCatalogHandler_List(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"defaults sort by name", "", []string{"B", "A", "C"}},
		{"price high first", "?sort=price-high", []string{"C", "A", "B"}},
		{"category", "?category=Audio", []string{"A"}},
		{"in stock only", "?in_stock=true&sort=price-low", []string{"B", "A"}},
		{"price window", "?min_price=50&max_price=150", []string{"A"}},
		{"search text", "?q=tablet", []string{"C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodGet, "/api/products"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var resp ProductListResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.want, productIDs(resp))
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}

func TestCatalogHandler_RejectsBadCriteria(t *testing.T) {
	api := newTestAPI(t)

	for _, query := range []string{"?min_price=cheap", "?min_price=500&max_price=10", "?sort=popularity", "?category=Toys", "?in_stock=maybe"} {
		w := api.do(http.MethodGet, "/api/products"+query, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
		assert.Equal(t, "InvalidCriteria", errorOf(t, w).Error.Code, query)
	}
}

func TestCatalogHandler_ProductAndFacets(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/products/A", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var product ProductView
	decode(t, w, &product)
	assert.True(t, product.InStock)
	assert.Equal(t, int64(22), product.DiscountPercent)

	w = api.do(http.MethodGet, "/api/products/Z", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UnknownProduct", errorOf(t, w).Error.Code)

	w = api.do(http.MethodGet, "/api/products/facets", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var facets catalog.Facets
	decode(t, w, &facets)
	assert.Equal(t, 2, facets.InStock)
	assert.Equal(t, 1, facets.OutOfStock)
	assert.Equal(t, "30", facets.PriceRange.Min.String())
}

// Property 1: Cart subtotal equals the sum of line totals after any edit sequence
func TestProperty_CartViewStaysConsistent(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.customer("cart@example.com", "Cart Tester")
	properties := gopter.NewProperties(nil)

	properties.Property("cart view totals match its lines", prop.ForAll(
		func(ops []int) bool {
			api.do(http.MethodDelete, "/api/cart", token, nil)
			for _, op := range ops {
				productID := []string{"A", "B"}[op%2]
				switch op % 3 {
				case 0:
					api.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: productID, Quantity: quantity(op%4 + 1)})
				case 1:
					api.do(http.MethodPut, "/api/cart/items/"+productID, token, SetQuantityRequest{Quantity: op % 5})
				default:
					api.do(http.MethodDelete, "/api/cart/items/"+productID, token, nil)
				}
			}

			w := api.do(http.MethodGet, "/api/cart", token, nil)
			var view CartView
			decode(t, w, &view)

			count := 0
			sum := dec("0")
			for _, line := range view.Items {
				if line.Quantity < 1 || !line.LineTotal.Equal(line.Product.Price.Mul(decInt(line.Quantity))) {
					t.Logf("FAIL: bad line %+v", line)
					return false
				}
				count += line.Quantity
				sum = sum.Add(line.LineTotal)
			}
			return len(view.Items) <= 2 && count == view.ItemCount && sum.Equal(view.Subtotal)
		},
		gen.SliceOf(gen.IntRange(0, 59)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCartHandler_Rejections(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.customer("cart@example.com", "Cart Tester")

	w := api.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: "C"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "OutOfStock", errorOf(t, w).Error.Code)

	w = api.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: "Z"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: "A", Quantity: quantity(0)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: "A", Quantity: quantity(1000)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, "/api/cart/items/A", token, SetQuantityRequest{Quantity: 1000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartHandler_OmittedQuantityAddsOne(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.customer("cart@example.com", "Cart Tester")

	w := api.do(http.MethodPost, "/api/cart/items", token, map[string]string{"product_id": "A"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view CartView
	decode(t, w, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)

	w = api.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: "A"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, dec("200").Equal(view.Subtotal), "subtotal %s", view.Subtotal)
}

func TestCartHandler_LineQuantityIsCapped(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.customer("cart@example.com", "Cart Tester")

	w := api.do(http.MethodPut, "/api/cart/items/B", token, SetQuantityRequest{Quantity: cart.MaxQuantity})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: "B", Quantity: quantity(cart.MaxQuantity)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidQuantity", errorOf(t, w).Error.Code)

	w = api.do(http.MethodGet, "/api/cart", token, nil)
	var view CartView
	decode(t, w, &view)
	assert.Equal(t, cart.MaxQuantity, view.ItemCount)
}

func quantity(n int) *int {
	return &n
}
