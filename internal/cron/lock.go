package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Lock keeps two cron workers from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
}

// LeaderLock is a single-holder lease in Redis. The holder token names the
// host so a stuck lease can be traced to the worker that took it.
type LeaderLock struct {
	store lockStore
	key   string
	lease time.Duration
	host  string
	token string
}

// NewLeaderLock builds a lock whose lease outlives one cycle of the given
// interval, so a crashed holder frees the key before the next-but-one tick.
func NewLeaderLock(store lockStore, key string, interval time.Duration) (*LeaderLock, error) {
	if store == nil {
		return nil, errors.New("lock store required")
	}
	if key == "" {
		return nil, errors.New("lock key required")
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return &LeaderLock{store: store, key: key, lease: interval + interval/2, host: host}, nil
}

// Lease reports how long an acquired lock is held before Redis expires it.
func (l *LeaderLock) Lease() time.Duration { return l.lease }

func (l *LeaderLock) Acquire(ctx context.Context) (bool, error) {
	token := fmt.Sprintf("%s:%d:%s", l.host, os.Getpid(), uuid.NewString())
	ok, err := l.store.SetNX(ctx, l.key, token, l.lease)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release deletes the key only while this holder still owns it. A lease that
// expired and was taken by another worker is left alone.
func (l *LeaderLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	if _, err := l.store.DeleteIfValue(ctx, l.key, token); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
