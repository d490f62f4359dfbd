package ticket

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Kind string

const (
	KindBorrow Kind = "borrow"
	KindLend   Kind = "lend"
)

var (
	ErrNotFound      = errors.New("ticket: nonexistent ticket")
	ErrAlreadyMinted = errors.New("ticket: already minted")
	ErrNotOwner      = errors.New("ticket: transfer from incorrect owner")
	ErrZeroRecipient = errors.New("ticket: transfer to the zero address")
)

// Ticket records who holds the borrow or lend position of one loan. The
// ticket id equals the loan id.
type Ticket struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Kind      Kind           `gorm:"column:kind;type:string;size:8;not null;uniqueIndex:ux_tickets_kind_loan"`
	LoanID    uint64         `gorm:"column:loan_id;not null;uniqueIndex:ux_tickets_kind_loan"`
	Owner     common.Address `gorm:"column:owner;type:bytes;size:20;not null;index"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Ticket) TableName() string { return "tickets" }
