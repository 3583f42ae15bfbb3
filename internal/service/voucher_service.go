package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	voucherCodeLength   = 8
	voucherCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// VoucherInput carries the editable fields of a voucher
type VoucherInput struct {
	Code          string
	Title         string
	Description   string
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
	MinOrderValue decimal.Decimal
	ExpiryDate    time.Time
}

// VoucherService defines the interface for the voucher book
type VoucherService interface {
	Create(ctx context.Context, caller domain.Identity, in VoucherInput) (*domain.Voucher, error)
	Update(ctx context.Context, caller domain.Identity, code string, in VoucherInput) (*domain.Voucher, error)
	Delete(ctx context.Context, caller domain.Identity, code string) error
	Get(ctx context.Context, code string) (*domain.Voucher, error)
	List(ctx context.Context, caller domain.Identity) ([]domain.Voucher, error)
	ListAvailable(ctx context.Context) ([]domain.Voucher, error)
	ListRedemptions(ctx context.Context, caller domain.Identity) ([]domain.VoucherRedemption, error)
}

type voucherService struct {
	store       store.Store
	voucherRepo repository.VoucherRepository
	authorizer  Authorizer
	logger      *zap.Logger
	now         func() time.Time
}

// NewVoucherService creates a new instance of VoucherService
func NewVoucherService(st store.Store, voucherRepo repository.VoucherRepository, authorizer Authorizer, logger *zap.Logger) VoucherService {
	return &voucherService{
		store:       st,
		voucherRepo: voucherRepo,
		authorizer:  authorizer,
		logger:      logger.Named("vouchers"),
		now:         time.Now,
	}
}

// cleanVoucherCode strips surrounding whitespace; codes match case-sensitively
func cleanVoucherCode(code string) string {
	return strings.TrimSpace(code)
}

// Create adds a voucher, generating a code when none is given
func (s *voucherService) Create(ctx context.Context, caller domain.Identity, in VoucherInput) (*domain.Voucher, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageVouchers); err != nil {
		return nil, err
	}

	code := cleanVoucherCode(in.Code)
	if code == "" {
		// only generated codes are uppercase
		generated, err := generateVoucherCode()
		if err != nil {
			return nil, err
		}
		code = generated
	}

	voucher := &domain.Voucher{
		Code:          code,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		MinOrderValue: in.MinOrderValue,
		ExpiryDate:    in.ExpiryDate,
		CreatedAt:     s.now(),
	}
	if err := voucher.Validate(); err != nil {
		return nil, err
	}

	if err := update(ctx, s.store, func(tx store.Tx) error {
		return s.voucherRepo.Create(tx, voucher)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Voucher created", zap.String("code", voucher.Code), zap.String("type", string(voucher.DiscountType)))
	return voucher, nil
}

// Update edits an unused voucher. The code itself cannot change.
func (s *voucherService) Update(ctx context.Context, caller domain.Identity, code string, in VoucherInput) (*domain.Voucher, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageVouchers); err != nil {
		return nil, err
	}

	var voucher *domain.Voucher
	err := update(ctx, s.store, func(tx store.Tx) error {
		var err error
		voucher, err = s.voucherRepo.FindByCode(tx, cleanVoucherCode(code))
		if err != nil {
			return err
		}
		if voucher.IsUsed {
			return domain.WithMessage(domain.ErrVoucherAlreadyUsed, "a used voucher cannot be edited")
		}

		voucher.Title = strings.TrimSpace(in.Title)
		voucher.Description = strings.TrimSpace(in.Description)
		voucher.DiscountType = in.DiscountType
		voucher.DiscountValue = in.DiscountValue
		voucher.MinOrderValue = in.MinOrderValue
		voucher.ExpiryDate = in.ExpiryDate
		if err := voucher.Validate(); err != nil {
			return err
		}
		return s.voucherRepo.Update(tx, voucher)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Voucher updated", zap.String("code", voucher.Code))
	return voucher, nil
}

// Delete removes a voucher; redemption records are kept
func (s *voucherService) Delete(ctx context.Context, caller domain.Identity, code string) error {
	if err := s.authorizer.Authorize(caller, CapabilityManageVouchers); err != nil {
		return err
	}

	err := update(ctx, s.store, func(tx store.Tx) error {
		return s.voucherRepo.Delete(tx, cleanVoucherCode(code))
	})
	if err != nil {
		return err
	}

	s.logger.Info("Voucher deleted", zap.String("code", cleanVoucherCode(code)))
	return nil
}

// Get looks up a voucher by code
func (s *voucherService) Get(ctx context.Context, code string) (*domain.Voucher, error) {
	var voucher *domain.Voucher
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		voucher, err = s.voucherRepo.FindByCode(tx, cleanVoucherCode(code))
		return err
	})
	return voucher, err
}

// List returns the whole voucher book
func (s *voucherService) List(ctx context.Context, caller domain.Identity) ([]domain.Voucher, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageVouchers); err != nil {
		return nil, err
	}

	var vouchers []domain.Voucher
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		vouchers, err = s.voucherRepo.FindAll(tx)
		return err
	})
	return vouchers, err
}

// ListAvailable returns vouchers that are unused and not yet expired
func (s *voucherService) ListAvailable(ctx context.Context) ([]domain.Voucher, error) {
	var vouchers []domain.Voucher
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		vouchers, err = s.voucherRepo.FindAll(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	available := make([]domain.Voucher, 0, len(vouchers))
	for _, v := range vouchers {
		if !v.IsUsed && !v.Expired(now) {
			available = append(available, v)
		}
	}
	return available, nil
}

// ListRedemptions returns the redemption log
func (s *voucherService) ListRedemptions(ctx context.Context, caller domain.Identity) ([]domain.VoucherRedemption, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageVouchers); err != nil {
		return nil, err
	}

	var redemptions []domain.VoucherRedemption
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		redemptions, err = s.voucherRepo.FindRedemptions(tx)
		return err
	})
	return redemptions, err
}

// generateVoucherCode returns eight uniformly drawn uppercase alphanumerics
func generateVoucherCode() (string, error) {
	alphabet := big.NewInt(int64(len(voucherCodeAlphabet)))
	buf := make([]byte, voucherCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("failed to generate voucher code: %w", err)
		}
		buf[i] = voucherCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
