package usecase

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/polkiloo/marketplace/internal/config"
	"github.com/polkiloo/marketplace/internal/domain/repository"
	"github.com/polkiloo/marketplace/internal/pkg/metrics"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	NewOrderUseCase,
	NewLoyaltyUseCase,
	newPaymentUseCase,
)

type paymentParams struct {
	fx.In

	UnitOfWork repository.UnitOfWork
	Renderer   ReceiptRenderer
	Notifier   Notifier
	Guard      SettlementGuard `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
	Config     *config.Config
	Logger     *slog.Logger
}

func newPaymentUseCase(p paymentParams) *PaymentUseCase {
	return NewPaymentUseCase(p.UnitOfWork, p.Renderer, p.Notifier, p.Logger, PaymentOptions{
		Guard:       p.Guard,
		LoyaltyRate: decimal.NewFromFloat(p.Config.LoyaltyRate),
		MaxAttempts: p.Config.NotifyMaxAttempts,
		Metrics:     p.Metrics,
	})
}
