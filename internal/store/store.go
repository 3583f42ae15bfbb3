// Package store persists named JSON collections with all-or-nothing commits.
package store

import (
	"context"
	"errors"
)

// ErrReadOnly is returned by PutCollection inside View
var ErrReadOnly = errors.New("write attempted in a read-only transaction")

// Tx reads and stages writes against the store. Staged writes become visible
// to other transactions only when the enclosing Update commits.
type Tx interface {
	// GetCollection returns the raw value of key, or nil if the key has never been written
	GetCollection(key string) ([]byte, error)
	// PutCollection stages a new value for key
	PutCollection(key string, value []byte) error
}

// Store is a transactional key/value persistence layer
type Store interface {
	// View runs fn against a consistent read-only view
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn and commits every staged write, or none of them if fn or the commit fails
	Update(ctx context.Context, fn func(Tx) error) error
	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}

// stagedTx buffers writes until the backend commits them
type stagedTx struct {
	read     func(key string) ([]byte, error)
	readOnly bool
	reads    map[string][]byte
	writes   map[string][]byte
	order    []string
}

func newStagedTx(read func(key string) ([]byte, error), readOnly bool) *stagedTx {
	return &stagedTx{
		read:     read,
		readOnly: readOnly,
		reads:    make(map[string][]byte),
		writes:   make(map[string][]byte),
	}
}

func (t *stagedTx) GetCollection(key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		return clone(v), nil
	}
	if v, ok := t.reads[key]; ok {
		return clone(v), nil
	}

	v, err := t.read(key)
	if err != nil {
		return nil, err
	}
	t.reads[key] = v
	return clone(v), nil
}

func (t *stagedTx) PutCollection(key string, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = clone(value)
	return nil
}

// each visits staged writes in first-write order
func (t *stagedTx) each(fn func(key string, value []byte) error) error {
	for _, key := range t.order {
		if err := fn(key, t.writes[key]); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
