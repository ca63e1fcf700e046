package persist

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the payload under one redis key without expiry.
type RedisSlot struct {
	client *redis.Client
	key    string
}

// NewRedisSlot wraps client. An empty key uses SlotKey.
func NewRedisSlot(client *redis.Client, key string) *RedisSlot {
	key = strings.TrimSpace(key)
	if key == "" {
		key = SlotKey
	}
	return &RedisSlot{client: client, key: key}
}

// DialRedisSlot connects to addr ("host:port") and checks the connection.
func DialRedisSlot(ctx context.Context, addr, key string) (*RedisSlot, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisSlot(client, key), nil
}

func (s *RedisSlot) Get(ctx context.Context) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *RedisSlot) Put(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *RedisSlot) Close() error {
	return s.client.Close()
}
