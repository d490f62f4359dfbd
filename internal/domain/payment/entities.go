package payment

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

var ErrZeroRecipient = errors.New("payment: transfer to the zero address")

// Balance is one account's holding of one fungible asset.
type Balance struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Asset     common.Address `gorm:"column:asset;type:bytes;size:20;not null;uniqueIndex:ux_balances_asset_account"`
	Account   common.Address `gorm:"column:account;type:bytes;size:20;not null;uniqueIndex:ux_balances_asset_account"`
	Amount    u256.Int       `gorm:"column:amount;type:string;size:78;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Balance) TableName() string { return "asset_balances" }
