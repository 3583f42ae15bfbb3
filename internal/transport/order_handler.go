package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QuoteRequest represents the quote payload
type QuoteRequest struct {
	VoucherCode string `json:"voucher_code" validate:"omitempty,max=32"`
}

// CheckoutRequest represents the checkout form. The address is checked by the
// order service so every missing field is reported as IncompleteAddress.
type CheckoutRequest struct {
	Address       domain.Address `json:"address" validate:"-"`
	PaymentMethod string         `json:"payment_method" validate:"notblank"`
	VoucherCode   string         `json:"voucher_code" validate:"omitempty,max=32"`
}

// StatusRequest represents an order status change
type StatusRequest struct {
	Status string `json:"status" validate:"notblank"`
}

// OrderListResponse wraps an order listing
type OrderListResponse struct {
	Orders []domain.Order `json:"orders"`
	Count  int            `json:"count"`
}

// OrderHandler handles checkout and the order lifecycle
type OrderHandler struct {
	sessions        session.Registry
	checkoutService service.CheckoutService
	orderService    service.OrderService
	checkoutLimit   Middleware
	logger          *zap.Logger
}

// NewOrderHandler creates a new OrderHandler. checkoutLimit may be nil.
func NewOrderHandler(
	sessions session.Registry,
	checkoutService service.CheckoutService,
	orderService service.OrderService,
	checkoutLimit Middleware,
	logger *zap.Logger,
) *OrderHandler {
	if checkoutLimit == nil {
		checkoutLimit = func(next http.Handler) http.Handler { return next }
	}
	return &OrderHandler{
		sessions:        sessions,
		checkoutService: checkoutService,
		orderService:    orderService,
		checkoutLimit:   checkoutLimit,
		logger:          logger.Named("orders"),
	}
}

// RegisterRoutes registers checkout, customer order and admin order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/api/checkout/quote", h.Quote)
		r.With(h.checkoutLimit).Post("/api/checkout", h.Checkout)
		r.Get("/api/orders", h.ListMine)
		r.Get("/api/orders/{orderID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))
			r.Get("/api/admin/orders", h.ListAll)
			r.Put("/api/admin/orders/{orderID}/status", h.UpdateStatus)
			r.Get("/api/admin/stats", h.Stats)
		})
	})
}

// Quote handles POST /api/checkout/quote
func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Quote validation failed", err)
		return
	}

	// Read-only: the voucher stays unused
	quote, err := h.checkoutService.Quote(r.Context(), h.sessions.Get(identity), req.VoucherCode)
	if err != nil {
		respondFailure(w, r, h.logger, "Quote failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, quote)
}

// Checkout handles POST /api/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	// Decode and validate request
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Checkout validation failed", err)
		return
	}

	// Quote, pay and place in one call; the cart is cleared on success
	order, err := h.checkoutService.Checkout(r.Context(), h.sessions.Get(identity), service.CheckoutInput{
		Address:       req.Address,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		VoucherCode:   req.VoucherCode,
	})
	if err != nil {
		respondFailure(w, r, h.logger, "Checkout failed", err)
		return
	}

	// Return the pending order
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListMine handles GET /api/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.ListForCustomer(r.Context(), identity.ID)
	if err != nil {
		respondFailure(w, r, h.logger, "Listing orders failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, OrderListResponse{Orders: orders, Count: len(orders)})
}

// Get handles GET /api/orders/{orderID}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.orderService.Get(r.Context(), identity, chi.URLParam(r, "orderID"))
	if err != nil {
		respondFailure(w, r, h.logger, "Order lookup failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListAll handles GET /api/admin/orders
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.ListAll(r.Context(), identity)
	if err != nil {
		respondFailure(w, r, h.logger, "Listing all orders failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, OrderListResponse{Orders: orders, Count: len(orders)})
}

// UpdateStatus handles PUT /api/admin/orders/{orderID}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	var req StatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Status validation failed", err)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), identity, chi.URLParam(r, "orderID"), domain.OrderStatus(req.Status))
	if err != nil {
		respondFailure(w, r, h.logger, "Status update failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Stats handles GET /api/admin/stats
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.orderService.Stats(r.Context(), identity)
	if err != nil {
		respondFailure(w, r, h.logger, "Stats failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
