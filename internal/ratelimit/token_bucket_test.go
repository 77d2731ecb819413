package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisTokenBucketValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	if _, err := NewRedisTokenBucket(nil, 10, time.Minute, ""); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisTokenBucket(client, 0, time.Minute, ""); err == nil {
		t.Fatal("expected error for zero capacity")
	}
	if _, err := NewRedisTokenBucket(client, 10, 0, ""); err == nil {
		t.Fatal("expected error for zero window")
	}

	bucket, err := NewRedisTokenBucket(client, 10, time.Minute, "")
	if err != nil {
		t.Fatalf("new bucket: %v", err)
	}
	if bucket.keyPrefix != "pixmap:ratelimit" {
		t.Fatalf("unexpected default key prefix %q", bucket.keyPrefix)
	}

	if _, err := bucket.AllowN(context.Background(), "user", 11); !errors.Is(err, ErrCostExceedsCapacity) {
		t.Fatalf("expected ErrCostExceedsCapacity, got %v", err)
	}
}

func TestToInt64(t *testing.T) {
	for _, in := range []any{int64(3), 3, float64(3), "3"} {
		got, err := toInt64(in)
		if err != nil || got != 3 {
			t.Fatalf("toInt64(%#v) = %d, %v", in, got, err)
		}
	}
	if _, err := toInt64([]byte("3")); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
