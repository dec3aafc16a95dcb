package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestSlot_skipIfNoRedisAddr(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis test")
	}
	ctx := context.Background()
	slot, err := OpenSlot(ctx, addr)
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	defer func() { _ = slot.Close() }()
	slot.Key = fmt.Sprintf("aegis_test_%d", time.Now().UnixNano())
	defer slot.Client.Del(ctx, slot.Key)

	if _, ok, err := slot.Get(ctx); err != nil || ok {
		t.Fatalf("Get unset: ok=%v err=%v", ok, err)
	}
	if err := slot.Put(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, ok, err := slot.Get(ctx)
	if err != nil || !ok || string(b) != "[]" {
		t.Fatalf("Get: %q ok=%v err=%v", b, ok, err)
	}
}
