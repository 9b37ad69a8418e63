package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/transitdesk/busboard/internal/model"
)

// DefaultRedisKey is the key holding the booking snapshot when no other
// key is configured.
const DefaultRedisKey = "busboard:bookings"

// RedisStore keeps the whole snapshot as one JSON value under a single
// key. This mirrors the key-value storage the ledger was designed
// against and is the default store.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore returns a RedisStore writing to the given key. An empty
// key selects DefaultRedisKey.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// Load fetches and decodes the snapshot. A missing key is an empty
// ledger, not an error.
func (s *RedisStore) Load(ctx context.Context) ([]model.Booking, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return []model.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var bookings []model.Booking
	if err := json.Unmarshal(raw, &bookings); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return bookings, nil
}

// Save encodes the snapshot and overwrites the key. No TTL: the snapshot
// lives until the next save.
func (s *RedisStore) Save(ctx context.Context, bookings []model.Booking) error {
	raw, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
