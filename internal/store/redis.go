package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis stores each collection under prefix:key. Updates use optimistic
// locking; a concurrent write to a key read by fn aborts the commit.
func NewRedis(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) View(ctx context.Context, fn func(Tx) error) error {
	return fn(newStagedTx(func(key string) ([]byte, error) {
		return s.get(ctx, s.client, key)
	}, true))
}

func (s *redisStore) Update(ctx context.Context, fn func(Tx) error) error {
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		staged := newStagedTx(func(key string) ([]byte, error) {
			if err := rtx.Watch(ctx, s.key(key)).Err(); err != nil {
				return nil, fmt.Errorf("failed to watch %s: %w", key, err)
			}
			return s.get(ctx, rtx, key)
		}, false)

		if err := fn(staged); err != nil {
			return err
		}

		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return staged.each(func(key string, value []byte) error {
				return pipe.Set(ctx, s.key(key), value, 0).Err()
			})
		})
		return err
	})

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("concurrent modification, transaction aborted: %w", err)
	}
	return err
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *redisStore) get(ctx context.Context, c redis.Cmdable, key string) ([]byte, error) {
	value, err := c.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}
