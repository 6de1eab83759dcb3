package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
)

const (
	keyOrderIntakeUser = "order:intake:user:%s"
	keyIntakeMsgLock   = "order:intake:msg:%s:%s"
)

// OrderIntakeLimiter throttles order creation per seller and deduplicates
// concurrent submissions of the same chat message. A disabled limiter allows
// everything, so callers never need a nil check.
type OrderIntakeLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	userRate  float64
	userBurst int
	lockTTL   time.Duration
}

func NewOrderIntakeLimiter(cfg config.Config) (*OrderIntakeLimiter, error) {
	if !cfg.RateLimitEnabled {
		return &OrderIntakeLimiter{}, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if cfg.OrderIntakeRate <= 0 || cfg.OrderIntakeBurst <= 0 {
		return nil, errors.New("order intake rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return NewOrderIntakeLimiterWithClient(client, cfg), nil
}

// NewOrderIntakeLimiterWithClient wires the limiter against an existing redis
// client. Tests use this with miniredis.
func NewOrderIntakeLimiterWithClient(client *redis.Client, cfg config.Config) *OrderIntakeLimiter {
	lockTTL := time.Duration(cfg.IntakeLockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &OrderIntakeLimiter{
		enabled:   true,
		bucket:    NewTokenBucket(client),
		locker:    NewLocker(client),
		userRate:  cfg.OrderIntakeRate,
		userBurst: cfg.OrderIntakeBurst,
		lockTTL:   lockTTL,
	}
}

func (l *OrderIntakeLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowUser answers whether the seller may create another order right now.
func (l *OrderIntakeLimiter) AllowUser(ctx context.Context, userID snowflake.ID) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyOrderIntakeUser, userID.String()), l.userRate, l.userBurst)
}

// TryLockSourceMessage claims the chat message an order is being created
// from, so a webhook retry cannot produce a duplicate order.
func (l *OrderIntakeLimiter) TryLockSourceMessage(ctx context.Context, userID snowflake.ID, sourceMessageID string) (string, bool, error) {
	if !l.Enabled() || strings.TrimSpace(sourceMessageID) == "" {
		return "", true, nil
	}
	key := fmt.Sprintf(keyIntakeMsgLock, userID.String(), strings.TrimSpace(sourceMessageID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *OrderIntakeLimiter) ReleaseSourceMessage(ctx context.Context, userID snowflake.ID, sourceMessageID, token string) error {
	if !l.Enabled() || token == "" {
		return nil
	}
	key := fmt.Sprintf(keyIntakeMsgLock, userID.String(), strings.TrimSpace(sourceMessageID))
	return l.locker.Release(ctx, key, token)
}
