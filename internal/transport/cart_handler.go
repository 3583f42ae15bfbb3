package transport

import (
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart payload; an omitted quantity adds one unit
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"notblank"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,gte=1,lte=999"`
}

func (req AddItemRequest) quantity() int {
	if req.Quantity == nil {
		return 1
	}
	return *req.Quantity
}

// SetQuantityRequest represents the quantity update payload; zero removes the line
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=999"`
}

// CartLine is one cart entry with its line total
type CartLine struct {
	Product   domain.Product  `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView is the caller's cart
type CartView struct {
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func newCartView(l *cart.Ledger) CartView {
	entries := l.Entries()
	view := CartView{
		Items:     make([]CartLine, len(entries)),
		ItemCount: l.ItemCount(),
		Subtotal:  l.Subtotal(),
	}
	for i, e := range entries {
		view.Items[i] = CartLine{Product: e.Product, Quantity: e.Quantity, LineTotal: e.LineTotal()}
	}
	return view
}

// CartHandler handles HTTP requests against the caller's session cart
type CartHandler struct {
	sessions session.Registry
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(sessions session.Registry, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		logger:   logger.Named("cart"),
	}
}

// RegisterRoutes registers the cart routes behind authentication
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.SetQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return nil, false
	}
	return h.sessions.Get(identity), true
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartView(sess.Cart))
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	// Decode and validate request
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Add to cart validation failed", err)
		return
	}

	// Add to the ledger
	entry, err := sess.Cart.Add(req.ProductID, req.quantity())
	if err != nil {
		respondFailure(w, r, h.logger, "Add to cart rejected", err)
		return
	}

	h.logger.Debug("Cart line added",
		zap.String("user_id", sess.Identity.ID),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", entry.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, newCartView(sess.Cart))
}

// SetQuantity handles PUT /api/cart/items/{productID}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Cart quantity validation failed", err)
		return
	}

	if err := sess.Cart.SetQuantity(chi.URLParam(r, "productID"), req.Quantity); err != nil {
		respondFailure(w, r, h.logger, "Cart quantity rejected", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCartView(sess.Cart))
}

// RemoveItem handles DELETE /api/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Cart.Remove(chi.URLParam(r, "productID"))
	middleware.RespondWithJSON(w, http.StatusOK, newCartView(sess.Cart))
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Cart.Clear()
	middleware.RespondWithJSON(w, http.StatusOK, newCartView(sess.Cart))
}
