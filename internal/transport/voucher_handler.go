package transport

import (
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VoucherRequest represents the voucher create and update payload. A blank
// code on create asks for a generated one.
type VoucherRequest struct {
	Code          string          `json:"code" validate:"omitempty,alphanum,max=32"`
	Title         string          `json:"title" validate:"max=120"`
	Description   string          `json:"description" validate:"max=500"`
	DiscountType  string          `json:"discount_type" validate:"oneof=percentage fixed"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	ExpiryDate    time.Time       `json:"expiry_date" validate:"required"`
}

func (req VoucherRequest) input() service.VoucherInput {
	return service.VoucherInput{
		Code:          req.Code,
		Title:         req.Title,
		Description:   req.Description,
		DiscountType:  domain.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		MinOrderValue: req.MinOrderValue,
		ExpiryDate:    req.ExpiryDate,
	}
}

// VoucherHandler handles the voucher book
type VoucherHandler struct {
	voucherService service.VoucherService
	logger         *zap.Logger
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(voucherService service.VoucherService, logger *zap.Logger) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
		logger:         logger.Named("vouchers"),
	}
}

// RegisterRoutes registers the customer voucher listing and the admin voucher book
func (h *VoucherHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/vouchers", h.ListAvailable)

		r.Route("/api/admin/vouchers", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/redemptions", h.ListRedemptions)
			r.Get("/{code}", h.Get)
			r.Put("/{code}", h.Update)
			r.Delete("/{code}", h.Delete)
		})
	})
}

// ListAvailable handles GET /api/vouchers
func (h *VoucherHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.voucherService.ListAvailable(r.Context())
	if err != nil {
		respondFailure(w, r, h.logger, "Listing available vouchers failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, vouchers)
}

// List handles GET /api/admin/vouchers
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	vouchers, err := h.voucherService.List(r.Context(), identity)
	if err != nil {
		respondFailure(w, r, h.logger, "Listing vouchers failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, vouchers)
}

// Create handles POST /api/admin/vouchers
func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	// Decode and validate request
	var req VoucherRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Voucher validation failed", err)
		return
	}

	// Call service; a blank code is generated
	voucher, err := h.voucherService.Create(r.Context(), identity, req.input())
	if err != nil {
		respondFailure(w, r, h.logger, "Voucher create failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, voucher)
}

// Get handles GET /api/admin/vouchers/{code}
func (h *VoucherHandler) Get(w http.ResponseWriter, r *http.Request) {
	voucher, err := h.voucherService.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondFailure(w, r, h.logger, "Voucher lookup failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, voucher)
}

// Update handles PUT /api/admin/vouchers/{code}
func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	var req VoucherRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Voucher validation failed", err)
		return
	}

	voucher, err := h.voucherService.Update(r.Context(), identity, chi.URLParam(r, "code"), req.input())
	if err != nil {
		respondFailure(w, r, h.logger, "Voucher update failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, voucher)
}

// Delete handles DELETE /api/admin/vouchers/{code}
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.voucherService.Delete(r.Context(), identity, chi.URLParam(r, "code")); err != nil {
		respondFailure(w, r, h.logger, "Voucher delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRedemptions handles GET /api/admin/vouchers/redemptions
func (h *VoucherHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	redemptions, err := h.voucherService.ListRedemptions(r.Context(), identity)
	if err != nil {
		respondFailure(w, r, h.logger, "Listing redemptions failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, redemptions)
}
