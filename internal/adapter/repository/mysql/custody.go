package mysql

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/pkg/u256"
)

// CustodyRepository tracks token ownership for escrowed collateral. A token
// seen for the first time is recorded as owned by whoever deposits it.
type CustodyRepository struct {
	db        *gorm.DB
	custodian common.Address
}

func NewCustodyRepository(db *gorm.DB, custodian common.Address) *CustodyRepository {
	return &CustodyRepository{db: db, custodian: custodian}
}

func (r *CustodyRepository) TransferInto(ctx context.Context, contract common.Address, tokenID u256.Int, from common.Address) error {
	h, err := r.holding(ctx, contract, tokenID)
	if err != nil {
		return err
	}
	if h == nil {
		return r.db.WithContext(ctx).Create(&custody.Holding{Contract: contract, TokenID: tokenID, Owner: r.custodian}).Error
	}
	if h.Owner != from {
		return custody.ErrNotOwner
	}
	return r.db.WithContext(ctx).Model(h).Update("owner", r.custodian).Error
}

func (r *CustodyRepository) TransferOut(ctx context.Context, contract common.Address, tokenID u256.Int, to common.Address) error {
	if to == (common.Address{}) {
		return custody.ErrZeroTarget
	}
	h, err := r.holding(ctx, contract, tokenID)
	if err != nil {
		return err
	}
	if h == nil || h.Owner != r.custodian {
		return custody.ErrNotHeld
	}
	return r.db.WithContext(ctx).Model(h).Update("owner", to).Error
}

// OwnerOf returns the recorded owner, or custody.ErrNotHeld for unknown tokens.
func (r *CustodyRepository) OwnerOf(ctx context.Context, contract common.Address, tokenID u256.Int) (common.Address, error) {
	h, err := r.holding(ctx, contract, tokenID)
	if err != nil {
		return common.Address{}, err
	}
	if h == nil {
		return common.Address{}, custody.ErrNotHeld
	}
	return h.Owner, nil
}

func (r *CustodyRepository) holding(ctx context.Context, contract common.Address, tokenID u256.Int) (*custody.Holding, error) {
	var h custody.Holding
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract = ? AND token_id = ?", contract, tokenID).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
