// Package redis provides a local-first slot on a Redis key, for deployments that share the
// collection between processes without a relational database.
package redis

import (
	"context"
	"errors"
	"os"

	"github.com/aegiswhistle/aegis/internal/store"
	"github.com/go-redis/redis/v8"
)

// Slot stores the serialized collection under a single Redis key with no expiry.
type Slot struct {
	Client *redis.Client
	Key    string
}

// Open connects to addr (REDIS_ADDR when empty, then localhost:6379) and returns the local-first store.
func Open(ctx context.Context, addr string) (*store.Local, error) {
	slot, err := OpenSlot(ctx, addr)
	if err != nil {
		return nil, err
	}
	return store.NewLocal("redis", slot), nil
}

// OpenSlot connects and pings the server.
func OpenSlot(ctx context.Context, addr string) (*Slot, error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Slot{Client: client, Key: store.SlotKey}, nil
}

func (s *Slot) Get(ctx context.Context) ([]byte, bool, error) {
	b, err := s.Client.Get(ctx, s.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Slot) Put(ctx context.Context, data []byte) error {
	return s.Client.Set(ctx, s.Key, data, 0).Err()
}

func (s *Slot) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
