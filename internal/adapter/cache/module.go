package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/marketplace/internal/config"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// Module provides the settlement guard. Without a configured redis address
// the guard is a no-op and row locks alone serialize settlement.
var Module = fx.Provide(newGuard)

type guardParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newGuard(p guardParams) usecase.SettlementGuard {
	if p.Config.RedisAddress == "" {
		p.Logger.Info("redis address not configured, settlement guard disabled")
		return usecase.NopGuard{}
	}

	client := redis.NewClient(&redis.Options{Addr: p.Config.RedisAddress})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				p.Logger.Warn("redis unavailable, settlement guard degraded", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisGuard(client, p.Config.SettlementLockTTL, p.Logger)
}
