package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/saastools-backend/pkg/config"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) GetDel(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	delete(m.data, key)
	return val, nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(t *testing.T, store *mockStore) *Manager {
	t.Helper()
	manager, err := newManager(store, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestSaveStoresDigestNotToken(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(t, store)

	if err := manager.Save(context.Background(), "access-1", "refresh-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored := store.data["sess:access-1"]
	if stored == "refresh-1" || len(stored) != 64 || strings.Trim(stored, "0123456789abcdef") != "" {
		t.Fatalf("expected hex digest, got %q", stored)
	}
	if store.ttls["sess:access-1"] != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", store.ttls["sess:access-1"])
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, newMockStore())
	_ = manager.Save(ctx, "access-1", "refresh-1")

	if err := manager.Consume(ctx, "access-1", "refresh-1"); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := manager.Consume(ctx, "access-1", "refresh-1"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replay must fail, got %v", err)
	}
}

func TestConsumeMismatchClosesSession(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, newMockStore())
	_ = manager.Save(ctx, "access-1", "refresh-1")

	if err := manager.Consume(ctx, "access-1", "forged"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if ok, _ := manager.HasSession(ctx, "access-1"); ok {
		t.Fatal("a mismatched token should end the session")
	}
	if err := manager.Consume(ctx, "", "refresh-1"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("blank id should be invalid, got %v", err)
	}
}

func TestRevokeAndHasSession(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, newMockStore())

	_ = manager.Save(ctx, "access-2", "refresh-2")
	ok, err := manager.HasSession(ctx, "access-2")
	if err != nil || !ok {
		t.Fatalf("expected live session, ok=%v err=%v", ok, err)
	}
	if err := manager.Revoke(ctx, "access-2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := manager.HasSession(ctx, "access-2"); ok {
		t.Fatal("expected revoked session")
	}
	if _, err := manager.HasSession(ctx, " "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}

func TestNewManagerValidates(t *testing.T) {
	store := newMockStore()
	if _, err := newManager(store, config.JWTConfig{ExpirationMinutes: 30, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatal("expected error when refresh ttl does not exceed access ttl")
	}
	if _, err := NewManager(nil, config.JWTConfig{}); err == nil {
		t.Fatal("expected error for nil client")
	}
	manager := newTestManager(t, store)
	if err := manager.Save(context.Background(), "", "token"); err == nil {
		t.Fatal("expected error for empty access id")
	}
	if err := manager.Save(context.Background(), "id", " "); err == nil {
		t.Fatal("expected error for empty refresh token")
	}
}
