package repository

import (
	"cmp"
	"slices"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// VoucherRepository defines the interface for the voucher book and its redemption log
type VoucherRepository interface {
	Create(tx store.Tx, voucher *domain.Voucher) error
	FindByCode(tx store.Tx, code string) (*domain.Voucher, error)
	FindAll(tx store.Tx) ([]domain.Voucher, error)
	Update(tx store.Tx, voucher *domain.Voucher) error
	Delete(tx store.Tx, code string) error
	AddRedemption(tx store.Tx, redemption *domain.VoucherRedemption) error
	FindRedemptions(tx store.Tx) ([]domain.VoucherRedemption, error)
}

type voucherRepository struct{}

// NewVoucherRepository creates a new instance of VoucherRepository
func NewVoucherRepository() VoucherRepository {
	return &voucherRepository{}
}

// Create adds a voucher; codes are unique
func (r *voucherRepository) Create(tx store.Tx, voucher *domain.Voucher) error {
	vouchers, err := loadMap[domain.Voucher](tx, VouchersKey)
	if err != nil {
		return err
	}
	if _, exists := vouchers[voucher.Code]; exists {
		return domain.FieldError(domain.ErrDuplicateVoucher, "code", voucher.Code)
	}
	vouchers[voucher.Code] = *voucher
	return save(tx, VouchersKey, vouchers)
}

// FindByCode retrieves a voucher by its code
func (r *voucherRepository) FindByCode(tx store.Tx, code string) (*domain.Voucher, error) {
	vouchers, err := loadMap[domain.Voucher](tx, VouchersKey)
	if err != nil {
		return nil, err
	}
	v, ok := vouchers[code]
	if !ok {
		return nil, domain.FieldError(domain.ErrVoucherNotFound, "code", code)
	}
	return &v, nil
}

// FindAll returns every voucher, newest first
func (r *voucherRepository) FindAll(tx store.Tx) ([]domain.Voucher, error) {
	vouchers, err := loadMap[domain.Voucher](tx, VouchersKey)
	if err != nil {
		return nil, err
	}
	list := make([]domain.Voucher, 0, len(vouchers))
	for _, v := range vouchers {
		list = append(list, v)
	}
	slices.SortFunc(list, func(a, b domain.Voucher) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return list, nil
}

// Update replaces an existing voucher
func (r *voucherRepository) Update(tx store.Tx, voucher *domain.Voucher) error {
	vouchers, err := loadMap[domain.Voucher](tx, VouchersKey)
	if err != nil {
		return err
	}
	if _, ok := vouchers[voucher.Code]; !ok {
		return domain.FieldError(domain.ErrVoucherNotFound, "code", voucher.Code)
	}
	vouchers[voucher.Code] = *voucher
	return save(tx, VouchersKey, vouchers)
}

// Delete removes a voucher
func (r *voucherRepository) Delete(tx store.Tx, code string) error {
	vouchers, err := loadMap[domain.Voucher](tx, VouchersKey)
	if err != nil {
		return err
	}
	if _, ok := vouchers[code]; !ok {
		return domain.FieldError(domain.ErrVoucherNotFound, "code", code)
	}
	delete(vouchers, code)
	return save(tx, VouchersKey, vouchers)
}

// AddRedemption appends to the redemption log
func (r *voucherRepository) AddRedemption(tx store.Tx, redemption *domain.VoucherRedemption) error {
	redemptions, err := loadList[domain.VoucherRedemption](tx, VoucherRedemptionsKey)
	if err != nil {
		return err
	}
	redemptions = append(redemptions, *redemption)
	return save(tx, VoucherRedemptionsKey, redemptions)
}

// FindRedemptions returns the redemption log in redemption order
func (r *voucherRepository) FindRedemptions(tx store.Tx) ([]domain.VoucherRedemption, error) {
	return loadList[domain.VoucherRedemption](tx, VoucherRedemptionsKey)
}
