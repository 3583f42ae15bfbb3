package repository

import (
	"encoding/json"
	"fmt"

	"storefront/internal/store"
)

// Collection keys of the persisted layout
const (
	OrdersKey             = "orders"
	VouchersKey           = "vouchers"
	LoyaltyRulesKey       = "loyalty_rules"
	CustomersKey          = "customers"
	TransactionsKey       = "transactions"
	VoucherRedemptionsKey = "voucher_redemptions"
)

// load decodes the collection at key into dst; a missing collection leaves dst untouched
func load(tx store.Tx, key string, dst any) error {
	raw, err := tx.GetCollection(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// save encodes v and stages it as the new value of key
func save(tx store.Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := tx.PutCollection(key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// loadList reads an ordered array collection, never returning nil
func loadList[T any](tx store.Tx, key string) ([]T, error) {
	items := []T{}
	if err := load(tx, key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// loadMap reads an object collection, never returning nil
func loadMap[T any](tx store.Tx, key string) (map[string]T, error) {
	items := map[string]T{}
	if err := load(tx, key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = map[string]T{}
	}
	return items, nil
}
