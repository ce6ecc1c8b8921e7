package cache

import (
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/marketplace/internal/config"
	"github.com/polkiloo/marketplace/internal/usecase"
)

func provideDeps(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(func() *slog.Logger { return slog.New(slog.DiscardHandler) }),
	)
}

func TestModuleWithoutRedisProvidesNopGuard(t *testing.T) {
	var guard usecase.SettlementGuard
	app := fxtest.New(t, provideDeps(&config.Config{}), Module, fx.Populate(&guard))
	app.RequireStart()
	app.RequireStop()

	if _, ok := guard.(usecase.NopGuard); !ok {
		t.Fatalf("expected NopGuard, got %T", guard)
	}
}

func TestModuleWithRedisProvidesRedisGuard(t *testing.T) {
	var guard usecase.SettlementGuard
	cfg := &config.Config{RedisAddress: "127.0.0.1:1", SettlementLockTTL: time.Second}
	app := fxtest.New(t, provideDeps(cfg), Module, fx.Populate(&guard))
	app.RequireStart()
	app.RequireStop()

	if _, ok := guard.(*RedisGuard); !ok {
		t.Fatalf("expected *RedisGuard, got %T", guard)
	}
}
