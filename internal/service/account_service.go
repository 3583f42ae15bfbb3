package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 8
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks
var ErrInvalidToken = errors.New("invalid token")

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// AccountService defines the interface for customer accounts and authentication
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (accessToken string, customer *domain.Customer, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, id, name, phone string) (*domain.Customer, error)
	SearchCustomers(ctx context.Context, caller domain.Identity, query string) ([]domain.Customer, error)
	EnsureAdmin(ctx context.Context, email, password, name string) (*domain.Customer, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the caller identity carried by the token
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{ID: c.UserID, Role: domain.Role(c.Role)}
}

type accountService struct {
	store        store.Store
	customerRepo repository.CustomerRepository
	authorizer   Authorizer
	jwtSecret    string
	tokenTTL     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewAccountService creates a new instance of AccountService
func NewAccountService(
	st store.Store,
	customerRepo repository.CustomerRepository,
	authorizer Authorizer,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) AccountService {
	return &accountService{
		store:        st,
		customerRepo: customerRepo,
		authorizer:   authorizer,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		logger:       logger.Named("accounts"),
		now:          time.Now,
	}
}

// Register creates a new customer account with a hashed password
func (s *accountService) Register(ctx context.Context, in RegisterInput) (*domain.Customer, error) {
	return s.create(ctx, in, domain.RoleCustomer)
}

// EnsureAdmin creates the administrator account on first start; an existing
// account with that email is returned unchanged
func (s *accountService) EnsureAdmin(ctx context.Context, email, password, name string) (*domain.Customer, error) {
	customer, err := s.create(ctx, RegisterInput{Email: email, Password: password, Name: name}, domain.RoleAdmin)
	if errors.Is(err, domain.ErrCustomerExists) {
		var existing *domain.Customer
		err = view(ctx, s.store, func(tx store.Tx) error {
			var err error
			existing, err = s.customerRepo.FindByEmail(tx, email)
			return err
		})
		return existing, err
	}
	return customer, err
}

func (s *accountService) create(ctx context.Context, in RegisterInput, role domain.Role) (*domain.Customer, error) {
	if len(in.Password) < MinPasswordLength {
		return nil, domain.FieldError(domain.ErrInvalidCustomer, "password", fmt.Sprintf("Must be at least %d characters long", MinPasswordLength))
	}

	hashedPassword, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	customer := &domain.Customer{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(in.Email),
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hashedPassword,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	err = update(ctx, s.store, func(tx store.Tx) error {
		return s.customerRepo.Create(tx, customer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered", zap.String("customer_id", customer.ID), zap.String("role", string(role)))
	return customer, nil
}

// Login authenticates a customer and returns a signed access token
func (s *accountService) Login(ctx context.Context, email, password string) (string, *domain.Customer, error) {
	var customer *domain.Customer
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		customer, err = s.customerRepo.FindByEmail(tx, strings.TrimSpace(email))
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.verifyPassword(customer.PasswordHash, password); err != nil {
		s.logger.Debug("Password mismatch", zap.String("customer_id", customer.ID))
		return "", nil, domain.ErrInvalidCredentials
	}

	accessToken, err := s.generateAccessToken(customer)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, customer, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *accountService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetCustomer retrieves a customer by id
func (s *accountService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var customer *domain.Customer
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		customer, err = s.customerRepo.FindByID(tx, id)
		return err
	})
	return customer, err
}

// UpdateProfile changes the display name and phone number
func (s *accountService) UpdateProfile(ctx context.Context, id, name, phone string) (*domain.Customer, error) {
	var customer *domain.Customer
	err := update(ctx, s.store, func(tx store.Tx) error {
		var err error
		customer, err = s.customerRepo.FindByID(tx, id)
		if err != nil {
			return err
		}
		customer.Name = strings.TrimSpace(name)
		customer.Phone = strings.TrimSpace(phone)
		customer.UpdatedAt = s.now()
		if err := customer.Validate(); err != nil {
			return err
		}
		return s.customerRepo.Update(tx, customer)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// SearchCustomers matches name or email case-insensitively, or a phone
// substring. An empty query returns every customer.
func (s *accountService) SearchCustomers(ctx context.Context, caller domain.Identity, query string) ([]domain.Customer, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageCustomers); err != nil {
		return nil, err
	}

	var all []domain.Customer
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		all, err = s.customerRepo.FindAll(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}

	matches := make([]domain.Customer, 0)
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			(c.Phone != "" && strings.Contains(c.Phone, q)) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// hashPassword hashes a password using bcrypt
func (s *accountService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func (s *accountService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// generateAccessToken generates a JWT access token with user ID and role claims
func (s *accountService) generateAccessToken(customer *domain.Customer) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: customer.ID,
		Role:   string(customer.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customer.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
