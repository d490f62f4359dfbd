package loan

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

// Field widths of the registry record. Values outside these widths are
// rejected before they reach storage.
const (
	AmountBits    = 128
	FeeRateBits   = 88
	TimestampBits = 40
)

// Loan is one registry entry. ID is allocated by the store and starts at 1.
// LastAccumulatedTimestamp == 0 means the loan was never funded.
type Loan struct {
	ID                       uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Closed                   bool           `gorm:"column:closed;not null;default:false" json:"closed"`
	PerAnnumInterestRate     uint16         `gorm:"column:per_annum_interest_rate;not null" json:"per_annum_interest_rate"`
	DurationSeconds          uint32         `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	LastAccumulatedTimestamp uint64         `gorm:"column:last_accumulated_timestamp;not null;default:0" json:"last_accumulated_timestamp"`
	CollateralContract       common.Address `gorm:"column:collateral_contract;type:bytes;size:20;not null" json:"collateral_contract"`
	CollateralTokenID        u256.Int       `gorm:"column:collateral_token_id;type:string;size:78;not null" json:"collateral_token_id"`
	AllowLoanAmountIncrease  bool           `gorm:"column:allow_loan_amount_increase;not null" json:"allow_loan_amount_increase"`
	OriginationFeeRate       u256.Int       `gorm:"column:origination_fee_rate;type:string;size:78;not null" json:"origination_fee_rate"`
	LoanAssetContract        common.Address `gorm:"column:loan_asset_contract;type:bytes;size:20;not null" json:"loan_asset_contract"`
	AccumulatedInterest      u256.Int       `gorm:"column:accumulated_interest;type:string;size:78;not null" json:"accumulated_interest"`
	LoanAmount               u256.Int       `gorm:"column:loan_amount;type:string;size:78;not null" json:"loan_amount"`
	CreatedAt                time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Funded reports whether a lender has ever advanced principal.
func (l *Loan) Funded() bool { return l.LastAccumulatedTimestamp != 0 }

// EndSeconds is the due time of the current funding. Seizure is allowed
// strictly after it.
func (l *Loan) EndSeconds() uint64 {
	return l.LastAccumulatedTimestamp + uint64(l.DurationSeconds)
}
