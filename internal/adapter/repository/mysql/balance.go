package mysql

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/pkg/u256"
)

// BalanceRepository is the payment rail: a per-asset balance ledger that
// answers transfers the way a standard token contract does.
type BalanceRepository struct{ db *gorm.DB }

func NewBalanceRepository(db *gorm.DB) *BalanceRepository { return &BalanceRepository{db: db} }

// TransferFrom returns an ABI false, not an error, when from is short.
func (r *BalanceRepository) TransferFrom(ctx context.Context, asset, from, to common.Address, amount u256.Int) ([]byte, error) {
	if to == (common.Address{}) {
		return nil, payment.ErrZeroRecipient
	}
	src, err := r.locked(ctx, asset, from)
	if err != nil {
		return nil, err
	}
	left, err := src.Amount.Sub(amount)
	if err != nil {
		return payment.ReturnData(false), nil
	}
	src.Amount = left
	if err := r.db.WithContext(ctx).Save(src).Error; err != nil {
		return nil, err
	}
	if err := r.Credit(ctx, asset, to, amount); err != nil {
		return nil, err
	}
	return payment.ReturnData(true), nil
}

func (r *BalanceRepository) BalanceOf(ctx context.Context, asset, account common.Address) (u256.Int, error) {
	var b payment.Balance
	err := r.db.WithContext(ctx).Where("asset = ? AND account = ?", asset, account).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return u256.Int{}, nil
	}
	if err != nil {
		return u256.Int{}, err
	}
	return b.Amount, nil
}

func (r *BalanceRepository) Credit(ctx context.Context, asset, account common.Address, amount u256.Int) error {
	b, err := r.locked(ctx, asset, account)
	if err != nil {
		return err
	}
	if b.Amount, err = b.Amount.Add(amount); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(b).Error
}

// locked reads the balance row under a row lock; a missing row comes back
// unsaved with a zero amount.
func (r *BalanceRepository) locked(ctx context.Context, asset, account common.Address) (*payment.Balance, error) {
	b := payment.Balance{Asset: asset, Account: account}
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("asset = ? AND account = ?", asset, account).
		First(&b).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &b, nil
}
