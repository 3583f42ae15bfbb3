package transport

import (
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LoyaltyRuleRequest represents the rule create and update payload.
// IsActive defaults to true when omitted.
type LoyaltyRuleRequest struct {
	CustomerID       string          `json:"customer_id" validate:"notblank"`
	ProductID        string          `json:"product_id" validate:"notblank"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
	StartDate        time.Time       `json:"start_date" validate:"required"`
	EndDate          time.Time       `json:"end_date" validate:"required"`
	IsActive         *bool           `json:"is_active"`
}

func (req LoyaltyRuleRequest) input() service.LoyaltyRuleInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.LoyaltyRuleInput{
		CustomerID:       req.CustomerID,
		ProductID:        req.ProductID,
		PointsMultiplier: req.PointsMultiplier,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		IsActive:         active,
	}
}

// LoyaltyHandler handles the loyalty rule book and points summaries
type LoyaltyHandler struct {
	loyaltyService service.LoyaltyService
	logger         *zap.Logger
}

// NewLoyaltyHandler creates a new LoyaltyHandler
func NewLoyaltyHandler(loyaltyService service.LoyaltyService, logger *zap.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyaltyService: loyaltyService,
		logger:         logger.Named("loyalty"),
	}
}

// RegisterRoutes registers the customer summary and admin rule routes
func (h *LoyaltyHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/loyalty", h.MySummary)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))
			r.Get("/api/admin/customers/{customerID}/loyalty", h.CustomerSummary)
			r.Get("/api/admin/loyalty-rules", h.ListRules)
			r.Post("/api/admin/loyalty-rules", h.CreateRule)
			r.Put("/api/admin/loyalty-rules/{ruleID}", h.UpdateRule)
			r.Post("/api/admin/loyalty-rules/{ruleID}/toggle", h.ToggleRule)
			r.Delete("/api/admin/loyalty-rules/{ruleID}", h.DeleteRule)
		})
	})
}

// MySummary handles GET /api/loyalty
func (h *LoyaltyHandler) MySummary(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.loyaltyService.Summary(r.Context(), identity, identity.ID)
	if err != nil {
		respondFailure(w, r, h.logger, "Loyalty summary failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// CustomerSummary handles GET /api/admin/customers/{customerID}/loyalty
func (h *LoyaltyHandler) CustomerSummary(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.loyaltyService.Summary(r.Context(), identity, chi.URLParam(r, "customerID"))
	if err != nil {
		respondFailure(w, r, h.logger, "Loyalty summary failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// ListRules handles GET /api/admin/loyalty-rules
func (h *LoyaltyHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	rules, err := h.loyaltyService.ListRules(r.Context(), identity)
	if err != nil {
		respondFailure(w, r, h.logger, "Listing loyalty rules failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, rules)
}

// CreateRule handles POST /api/admin/loyalty-rules
func (h *LoyaltyHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	var req LoyaltyRuleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Loyalty rule validation failed", err)
		return
	}

	// Call service
	rule, err := h.loyaltyService.CreateRule(r.Context(), identity, req.input())
	if err != nil {
		respondFailure(w, r, h.logger, "Loyalty rule create failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/admin/loyalty-rules/{ruleID}
func (h *LoyaltyHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	var req LoyaltyRuleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Loyalty rule validation failed", err)
		return
	}

	rule, err := h.loyaltyService.UpdateRule(r.Context(), identity, chi.URLParam(r, "ruleID"), req.input())
	if err != nil {
		respondFailure(w, r, h.logger, "Loyalty rule update failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, rule)
}

// ToggleRule handles POST /api/admin/loyalty-rules/{ruleID}/toggle
func (h *LoyaltyHandler) ToggleRule(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	rule, err := h.loyaltyService.ToggleRule(r.Context(), identity, chi.URLParam(r, "ruleID"))
	if err != nil {
		respondFailure(w, r, h.logger, "Loyalty rule toggle failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/admin/loyalty-rules/{ruleID}
func (h *LoyaltyHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.loyaltyService.DeleteRule(r.Context(), identity, chi.URLParam(r, "ruleID")); err != nil {
		respondFailure(w, r, h.logger, "Loyalty rule delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
