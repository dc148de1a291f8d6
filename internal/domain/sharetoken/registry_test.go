package sharetoken

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newRedisRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRegistry(client), mr
}

func TestRedisRegistry_Lookup(t *testing.T) {
	r, mr := newRedisRegistry(t)
	mr.Set(KeyPrefix+"demo-valid-002", "2026-03-30T23:59:59Z")

	exp, ok, err := r.Lookup(context.Background(), "demo-valid-002")
	if err != nil || !ok {
		t.Fatalf("expected token, got ok=%v err=%v", ok, err)
	}
	if !exp.Equal(at("2026-03-30T23:59:59Z")) {
		t.Errorf("unexpected expiry %v", exp)
	}

	_, ok, err = r.Lookup(context.Background(), "missing")
	if err != nil || ok {
		t.Errorf("expected miss without error, got ok=%v err=%v", ok, err)
	}
}

func TestRedisRegistry_BadValue(t *testing.T) {
	r, mr := newRedisRegistry(t)
	mr.Set(KeyPrefix+"broken", "tomorrow")
	if _, _, err := r.Lookup(context.Background(), "broken"); err == nil {
		t.Error("expected parse error")
	}
}

func TestRedisRegistry_Register(t *testing.T) {
	r, mr := newRedisRegistry(t)
	exp := at("2026-12-31T23:59:59Z")
	if err := r.Register(context.Background(), "tok-1", exp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := mr.Get(KeyPrefix + "tok-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2026-12-31T23:59:59Z" {
		t.Errorf("expected RFC3339 value, got %q", got)
	}
	if ttl := mr.TTL(KeyPrefix + "tok-1"); ttl != 0 {
		t.Errorf("expected no ttl, got %v", ttl)
	}
}

func TestRedisRegistry_WithValidator(t *testing.T) {
	r, mr := newRedisRegistry(t)
	mr.Set(KeyPrefix+"lab-temporal-123", "2026-03-10T23:59:59Z")
	v := NewValidator(r, WithClock(fixedClock("2026-03-11T00:00:00Z")))

	if res := v.Validate(context.Background(), "lab-temporal-123"); res.Reason != ReasonExpired {
		t.Errorf("expected expired, got %+v", res)
	}
}

func TestRedisRegistry_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { client.Close() })
	v := NewValidator(NewRedisRegistry(client))

	if res := v.Validate(context.Background(), "demo-valid-001"); res.Valid || res.Reason != ReasonInvalid {
		t.Errorf("expected backend failure to deny as invalid, got %+v", res)
	}
}

func TestStaticRegistry_Register(t *testing.T) {
	r := NewStaticRegistry(nil)
	exp := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := r.Register(context.Background(), "tok", exp); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := r.Lookup(context.Background(), "tok")
	if !ok || !got.Equal(exp) {
		t.Errorf("expected registered token, got %v %v", got, ok)
	}
}
