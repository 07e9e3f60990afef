package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/saastools-backend/pkg/auth/session"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
		ResetTokenTTL:    time.Hour,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "access-secret",
		RefreshSecret:          "refresh-secret",
		Issuer:                 "saastools",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60 * 24 * 7,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

// memorySessions mirrors session.Manager semantics without Redis.
type memorySessions struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{data: map[string]string{}}
}

func (m *memorySessions) Save(_ context.Context, accessID, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[accessID] = refreshToken
	return nil
}

func (m *memorySessions) Consume(_ context.Context, accessID, provided string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.data[accessID]
	delete(m.data, accessID)
	if !ok || stored != provided {
		return session.ErrInvalidRefreshToken
	}
	return nil
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, accessID)
	return nil
}

func (m *memorySessions) has(accessID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[accessID]
	return ok
}

// memoryTokens stands in for the Redis client in password reset tests.
type memoryTokens struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryTokens) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryTokens) GetDel(_ context.Context, key string) (string, error) {
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	delete(m.data, key)
	return val, nil
}

func (m *memoryTokens) PasswordResetKey(token string) string {
	return "reset:" + token
}

type recordingMailer struct {
	welcome []string
	resets  []string
}

func (r *recordingMailer) SendWelcome(_ context.Context, to, name, verificationURL string) bool {
	r.welcome = append(r.welcome, verificationURL)
	return true
}

func (r *recordingMailer) SendPasswordReset(_ context.Context, to, name, resetURL string) bool {
	r.resets = append(r.resets, resetURL)
	return true
}

var errBoom = errors.New("boom")
