package fee

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

const (
	// MaxOriginationFeeRate is 5% in loan.Scalar units.
	MaxOriginationFeeRate = 50

	DefaultOriginationFeeRate = 10
	DefaultImprovementRate    = 100
)

var (
	ErrNotFound        = errors.New("fee: settings not initialised")
	ErrUnauthorized    = errors.New("fee: admin only")
	ErrFeeTooHigh      = errors.New("fee: max fee 5%")
	ErrImprovementZero = errors.New("fee: improvement rate 0")
	ErrAlreadyBound    = errors.New("fee: ticket contract already set")
	ErrZeroAddress     = errors.New("fee: zero address")
	ErrNothingToBind   = errors.New("fee: no ticket contract given")
)

// settingsRowID pins the singleton row.
const settingsRowID = 1

// Settings are the facilitator-wide parameters. Loans snapshot
// OriginationFeeRate at creation; ImprovementRate is read per buyout.
type Settings struct {
	ID                   uint64         `gorm:"column:id;primaryKey"`
	OriginationFeeRate   u256.Int       `gorm:"column:origination_fee_rate;type:string;size:78;not null"`
	ImprovementRate      u256.Int       `gorm:"column:improvement_rate;type:string;size:78;not null"`
	BorrowTicketContract common.Address `gorm:"column:borrow_ticket_contract;type:bytes;size:20;not null"`
	LendTicketContract   common.Address `gorm:"column:lend_ticket_contract;type:bytes;size:20;not null"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Settings) TableName() string { return "facilitator_settings" }

// Defaults returns the settings used to seed an empty store.
func Defaults(originationFeeRate, improvementRate uint64) *Settings {
	return &Settings{
		ID:                 settingsRowID,
		OriginationFeeRate: u256.New(originationFeeRate),
		ImprovementRate:    u256.New(improvementRate),
	}
}

// IsTicketContract reports whether addr is one of the bound ticket contracts.
// Unbound slots hold the zero address and match nothing.
func (s *Settings) IsTicketContract(addr common.Address) bool {
	if addr == (common.Address{}) {
		return false
	}
	return addr == s.BorrowTicketContract || addr == s.LendTicketContract
}

func ValidateOriginationFeeRate(rate u256.Int) error {
	if u256.New(MaxOriginationFeeRate).Lt(rate) {
		return ErrFeeTooHigh
	}
	return nil
}

func ValidateImprovementRate(rate u256.Int) error {
	if rate.IsZero() {
		return ErrImprovementZero
	}
	return nil
}
