package auth

import (
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/marketplace/internal/config"
)

func TestNewPasswordHasher(t *testing.T) {
	hasher, err := newPasswordHasher(authParams{Config: &config.Config{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bcryptHasher, ok := hasher.(*BcryptHasher)
	if !ok {
		t.Fatalf("expected *BcryptHasher, got %T", hasher)
	}
	if bcryptHasher.cost != bcrypt.DefaultCost {
		t.Fatalf("unexpected cost: %d", bcryptHasher.cost)
	}

	if _, err := newPasswordHasher(authParams{Config: &config.Config{BcryptCost: 99}}); err == nil {
		t.Fatal("expected error for invalid cost")
	}
}

func TestNewTokenStrategy(t *testing.T) {
	strategy := newTokenStrategy(authParams{Config: &config.Config{JWTSecret: "top-secret", TokenTTL: time.Hour}})
	hmacStrategy, ok := strategy.(*HMACStrategy)
	if !ok {
		t.Fatalf("expected *HMACStrategy, got %T", strategy)
	}
	if string(hmacStrategy.secret) != "top-secret" {
		t.Fatalf("unexpected secret: %q", string(hmacStrategy.secret))
	}
	if hmacStrategy.ttl != time.Hour {
		t.Fatalf("unexpected ttl: %s", hmacStrategy.ttl)
	}
}

func TestModuleResolvesPrimitives(t *testing.T) {
	var (
		hasher   PasswordHasher
		strategy Strategy
	)
	app := fxtest.New(t,
		fx.Supply(&config.Config{JWTSecret: "secret", BcryptCost: bcrypt.MinCost}),
		Module,
		fx.Populate(&hasher, &strategy),
	)
	app.RequireStart()
	defer app.RequireStop()

	if hasher == nil || strategy == nil {
		t.Fatal("expected auth primitives to be populated")
	}
}
