package transport

import (
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"notblank"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest represents the profile update payload
type ProfileRequest struct {
	Name  string `json:"name" validate:"notblank"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	Customer    CustomerProfile `json:"customer"`
}

// CustomerProfile is the public view of an account
type CustomerProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newCustomerProfile(c *domain.Customer) CustomerProfile {
	return CustomerProfile{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		Phone:     c.Phone,
		Role:      string(c.Role),
		CreatedAt: c.CreatedAt,
	}
}

// AccountHandler handles HTTP requests for customer accounts
type AccountHandler struct {
	accountService service.AccountService
	sessions       session.Registry
	logger         *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService service.AccountService, sessions session.Registry, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		sessions:       sessions,
		logger:         logger.Named("accounts"),
	}
}

// RegisterRoutes registers all account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router, authMiddleware Middleware) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authMiddleware).Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/me", h.GetProfile)
		r.Put("/api/me", h.UpdateProfile)

		r.With(middleware.RequireAdmin(h.logger)).Get("/api/admin/customers", h.SearchCustomers)
	})
}

// Register handles customer registration
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	// Decode and validate request
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Registration validation failed", err)
		return
	}

	// Call service
	customer, err := h.accountService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		respondFailure(w, r, h.logger, "Registration failed", err)
		return
	}

	h.logger.Info("Customer registered successfully", zap.String("user_id", customer.ID))
	// Return customer profile
	middleware.RespondWithJSON(w, http.StatusCreated, newCustomerProfile(customer))
}

// Login handles customer authentication
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	// Decode and validate request
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Login validation failed", err)
		return
	}

	// Unknown email and wrong password fail alike
	accessToken, customer, err := h.accountService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondFailure(w, r, h.logger, "Login failed", err)
		return
	}

	h.logger.Info("Customer logged in", zap.String("user_id", customer.ID))
	// Return token and customer profile
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		Customer:    newCustomerProfile(customer),
	})
}

// Logout handles POST /api/auth/logout. The token stays valid until it
// expires; the session and its cart are discarded.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	h.sessions.End(identity.ID)

	h.logger.Info("Customer logged out", zap.String("user_id", identity.ID))
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /api/me
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	customer, err := h.accountService.GetCustomer(r.Context(), identity.ID)
	if err != nil {
		respondFailure(w, r, h.logger, "Failed to get profile", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCustomerProfile(customer))
}

// UpdateProfile handles PUT /api/me
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondFailure(w, r, h.logger, "Profile validation failed", err)
		return
	}

	customer, err := h.accountService.UpdateProfile(r.Context(), identity.ID, req.Name, req.Phone)
	if err != nil {
		respondFailure(w, r, h.logger, "Profile update failed", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newCustomerProfile(customer))
}

// SearchCustomers handles GET /api/admin/customers?q=
func (h *AccountHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerOrUnauthorized(w, r, h.logger)
	if !ok {
		return
	}

	customers, err := h.accountService.SearchCustomers(r.Context(), identity, r.URL.Query().Get("q"))
	if err != nil {
		respondFailure(w, r, h.logger, "Customer search failed", err)
		return
	}

	profiles := make([]CustomerProfile, len(customers))
	for i := range customers {
		profiles[i] = newCustomerProfile(&customers[i])
	}
	middleware.RespondWithJSON(w, http.StatusOK, profiles)
}
