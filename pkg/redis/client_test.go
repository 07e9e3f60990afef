package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/saastools-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:ip", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected first request allowed with count 1, got allowed=%v count=%d", allowed, count)
	}
	if mock.ttls["st:rate_limit:login:ip"] != time.Second {
		t.Fatalf("expected ttl set on first increment, got %+v", mock.ttls)
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "login:ip", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if mock.ttlSets != 1 {
		t.Fatalf("ttl should not be set again, got %d", mock.ttlSets)
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "login:ip", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestGetDelConsumesKey(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	key := client.PasswordResetKey("tok")
	if err := client.Set(ctx, key, "user-1", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.GetDel(ctx, key)
	if err != nil || got != "user-1" {
		t.Fatalf("expected user-1, got %q err=%v", got, err)
	}
	if _, err := client.GetDel(ctx, key); !IsNil(err) {
		t.Fatalf("expected redis.Nil on second read, got %v", err)
	}
}

func TestDeleteIfValue(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.LockKey("cron-worker:prod")
	_ = client.Set(ctx, key, "host-a:1:x", time.Minute)

	deleted, err := client.DeleteIfValue(ctx, key, "host-b:2:y")
	if err != nil || deleted {
		t.Fatalf("foreign holder must not delete, got %v err=%v", deleted, err)
	}
	deleted, err = client.DeleteIfValue(ctx, key, "host-a:1:x")
	if err != nil || !deleted {
		t.Fatalf("owner should delete, got %v err=%v", deleted, err)
	}
	if ok, _ := client.Exists(ctx, key); ok {
		t.Fatal("expected key removed")
	}
}

func TestExistsAndDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.AccessSessionKey("abc")

	if ok, _ := client.Exists(ctx, key); ok {
		t.Fatal("expected missing key")
	}
	_ = client.Set(ctx, key, "refresh", time.Minute)
	if ok, _ := client.Exists(ctx, key); !ok {
		t.Fatal("expected key to exist")
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if ok, _ := client.Exists(ctx, key); ok {
		t.Fatal("expected key removed")
	}
}

func TestZeroClientReturnsNotInitialized(t *testing.T) {
	var client Client
	if err := client.Ping(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := client.SetNX(context.Background(), "k", "v", time.Second); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("razorpay", "evt_1"): "st:idempotency:razorpay:evt_1",
		client.RateLimitKey("scope"):               "st:rate_limit:scope",
		client.AccessSessionKey("jti"):             "st:session:access:jti",
		client.PasswordResetKey("tok"):             "st:password_reset:tok",
		client.LockKey("cron"):                     "st:lock:cron",
		client.IdempotencyKey("razorpay", ""):      "st:idempotency:razorpay",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s got %s", want, got)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}

type mockCmdable struct {
	data    map[string]string
	counts  map[string]int64
	ttls    map[string]time.Duration
	ttlSets int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:   make(map[string]string),
		counts: make(map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) GetDel(ctx context.Context, key string) *redis.StringCmd {
	cmd := m.Get(ctx, key)
	delete(m.data, key)
	return cmd
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

// Eval understands the two scripts the client sends.
func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case incrExpireScript:
		m.counts[key]++
		if m.counts[key] == 1 {
			m.ttls[key] = time.Duration(args[0].(int64)) * time.Millisecond
			m.ttlSets++
		}
		return redis.NewCmdResult(m.counts[key], nil)
	case deleteIfValueScript:
		if v, ok := m.data[key]; ok && v == args[0] {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}

func (m *mockCmdable) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
