package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgres stores collections as JSONB rows of the collections table.
// The schema is created by database.RunMigrations.
func NewPostgres(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT value FROM collections WHERE key = $1`
	if err := fn(newStagedTx(rowReader(ctx, tx, query), true)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *postgresStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT value FROM collections WHERE key = $1 FOR UPDATE`
	staged := newStagedTx(rowReader(ctx, tx, query), false)
	if err := fn(staged); err != nil {
		return err
	}

	upsert := `
		INSERT INTO collections (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	err = staged.each(func(key string, value []byte) error {
		if _, err := tx.ExecContext(ctx, upsert, key, string(value)); err != nil {
			return fmt.Errorf("failed to write collection %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}

func rowReader(ctx context.Context, tx *sql.Tx, query string) func(string) ([]byte, error) {
	return func(key string) ([]byte, error) {
		var value []byte
		err := tx.QueryRowContext(ctx, query, key).Scan(&value)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read collection %s: %w", key, err)
		}
		return value, nil
	}
}
