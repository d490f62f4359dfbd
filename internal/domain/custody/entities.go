package custody

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

var (
	ErrNotOwner   = errors.New("custody: transfer from incorrect owner")
	ErrNotHeld    = errors.New("custody: token not in custody")
	ErrZeroTarget = errors.New("custody: transfer to the zero address")
)

// Holding is the last known owner of one non-fungible token.
type Holding struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Contract  common.Address `gorm:"column:contract;type:bytes;size:20;not null;uniqueIndex:ux_holdings_token"`
	TokenID   u256.Int       `gorm:"column:token_id;type:string;size:78;not null;uniqueIndex:ux_holdings_token"`
	Owner     common.Address `gorm:"column:owner;type:bytes;size:20;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Holding) TableName() string { return "collateral_holdings" }
