package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/usecase"
)

const keyPrefix = "settlement:order:"

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client is the subset of the redis client used by the guard.
type Client interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// RedisGuard serializes settlement of one order across service instances.
type RedisGuard struct {
	client Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisGuard constructs RedisGuard. ttl bounds how long a crashed holder
// blocks the order.
func NewRedisGuard(client Client, ttl time.Duration, logger *slog.Logger) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl, logger: logger}
}

// Key returns the redis key guarding orderID.
func Key(orderID int64) string {
	return keyPrefix + strconv.FormatInt(orderID, 10)
}

// Acquire takes the guard or reports a conflict when another attempt holds it.
func (g *RedisGuard) Acquire(ctx context.Context, orderID int64) (func(), error) {
	key := Key(orderID)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domainErrors.ConflictError{Reason: "settlement already in progress"}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			g.logger.Warn("settlement guard release failed", slog.Int64("order_id", orderID), slog.Any("error", err))
		}
	}, nil
}

var _ usecase.SettlementGuard = (*RedisGuard)(nil)
