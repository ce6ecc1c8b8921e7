package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/marketplace/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Provide(
	newPasswordHasher,
	newTokenStrategy,
)

type authParams struct {
	fx.In

	Config *config.Config
}

func newPasswordHasher(p authParams) (PasswordHasher, error) {
	return NewBcryptHasher(p.Config.BcryptCost)
}

func newTokenStrategy(p authParams) Strategy {
	return NewHMACStrategy(p.Config.JWTSecret, Options{TTL: p.Config.TokenTTL})
}
