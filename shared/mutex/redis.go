package mutex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/logging"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Options bounds how long a holder may keep a lock and how hard a waiter
// tries to get it
type Options struct {
	TTL           time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	KeyPrefix     string
}

// DefaultOptions matches the settlement worker defaults: 10s TTL, 10 attempts
// 200ms apart
func DefaultOptions() Options {
	return Options{
		TTL:           10 * time.Second,
		MaxRetries:    10,
		RetryInterval: 200 * time.Millisecond,
		KeyPrefix:     "lock:",
	}
}

// Locker is the lock surface the settlement updater depends on
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// RedisMutex is a single-instance Redis lock.
// Ownership is proven by a random token so a holder whose TTL expired can
// never delete a lock taken over by someone else.
type RedisMutex struct {
	client *redis.Client
	opts   Options
	log    logrus.FieldLogger
	// Lua script for atomic compare-and-delete
	releaseScript *redis.Script
}

// NewRedisMutex wraps an existing client; log may be nil
func NewRedisMutex(client *redis.Client, opts Options, log logrus.FieldLogger) *RedisMutex {
	if log == nil {
		log = logging.Discard()
	}
	def := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = def.RetryInterval
	}

	releaseScript := redis.NewScript(`
		-- KEYS[1]: lock key
		-- ARGV[1]: token of the caller
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		end
		return 0
	`)

	return &RedisMutex{
		client:        client,
		opts:          opts,
		log:           log,
		releaseScript: releaseScript,
	}
}

// NewClient connects to Redis and checks the connection
func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// Acquire makes a single attempt to take key for token
func (m *RedisMutex) Acquire(ctx context.Context, key, token string) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.opts.KeyPrefix+key, token, m.opts.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes key only if token still owns it
func (m *RedisMutex) Release(ctx context.Context, key, token string) (bool, error) {
	n, err := m.releaseScript.Run(ctx, m.client, []string{m.opts.KeyPrefix + key}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return n == 1, nil
}

// WithLock runs fn while holding key.
// Acquisition is tried MaxRetries times, RetryInterval apart; running out
// yields ErrLockContention and fn is not called. The lock is released after
// fn even when ctx was cancelled in the meantime.
func (m *RedisMutex) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	var b backoff.BackOff = backoff.NewConstantBackOff(m.opts.RetryInterval)
	b = backoff.WithMaxRetries(b, uint64(max(m.opts.MaxRetries-1, 0)))
	b = backoff.WithContext(b, ctx)

	errBusy := errors.New("lock busy")
	err := backoff.Retry(func() error {
		ok, err := m.Acquire(ctx, key, token)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errBusy
		}
		return nil
	}, b)

	switch {
	case errors.Is(err, errBusy):
		return fmt.Errorf("lock %s: %w", key, biddingerrors.ErrLockContention)
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		released, err := m.Release(releaseCtx, key, token)
		switch {
		case err != nil:
			m.log.WithError(err).WithField("lock", key).Warn("failed to release lock")
		case !released:
			m.log.WithField("lock", key).Warn("lock expired or taken over before release")
		}
	}()

	return fn(ctx)
}
