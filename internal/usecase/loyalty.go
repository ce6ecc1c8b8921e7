package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
)

// LoyaltyUseCase manages operations with the loyalty points ledger.
type LoyaltyUseCase struct {
	uow repository.UnitOfWork
}

// NewLoyaltyUseCase constructs LoyaltyUseCase.
func NewLoyaltyUseCase(uow repository.UnitOfWork) *LoyaltyUseCase {
	return &LoyaltyUseCase{uow: uow}
}

// Balance returns current and redeemed points of the user.
func (u *LoyaltyUseCase) Balance(ctx context.Context, userID int64) (*model.LoyaltyBalance, error) {
	return u.uow.Loyalty().Balance(ctx, userID)
}

// History returns ledger entries, newest first.
func (u *LoyaltyUseCase) History(ctx context.Context, userID int64) ([]model.LoyaltyTransaction, error) {
	return u.uow.Loyalty().ListByUser(ctx, userID)
}

// Redeem spends points, optionally against an order the requester may access.
// Points spent against an order come from the order owner's balance.
func (u *LoyaltyUseCase) Redeem(ctx context.Context, requester model.Requester, orderID, points int64) (*model.LoyaltyTransaction, error) {
	if points <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	var tx *model.LoyaltyTransaction
	err := u.uow.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		userID := requester.UserID
		if orderID != 0 {
			order, err := repos.Orders().Get(ctx, orderID)
			if err != nil {
				return err
			}
			if !requester.CanAccess(order.UserID) {
				return domainErrors.ErrForbidden
			}
			userID = order.UserID
		}
		var err error
		tx, err = repos.Loyalty().Redeem(ctx, userID, orderID, points)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}
