package loan

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	domain "nftlend-backend/internal/domain/loan"
	"nftlend-backend/pkg/u256"
)

type CreateLoanInput struct {
	Caller                  common.Address
	CollateralTokenID       u256.Int
	CollateralContract      common.Address
	MaxPerAnnumInterestRate uint16
	AllowLoanAmountIncrease bool
	MinLoanAmount           u256.Int
	LoanAssetContract       common.Address
	MinDurationSeconds      uint32
	BorrowTicketRecipient   common.Address
}

type LendInput struct {
	Caller              common.Address
	LoanID              uint64
	InterestRate        uint16
	Amount              u256.Int
	DurationSeconds     uint32
	LendTicketRecipient common.Address
}

// LendResult reports which path a lend call took.
type LendResult struct {
	Loan *LoanDTO `json:"loan"`
	// Buyout is true when an existing lender was replaced.
	Buyout         bool            `json:"buyout"`
	ReplacedLender *common.Address `json:"replaced_lender,omitempty"`
	InterestPaid   *u256.Int       `json:"interest_paid,omitempty"`
}

type LoanDTO struct {
	LoanID                   uint64         `json:"loan_id"`
	Closed                   bool           `json:"closed"`
	Funded                   bool           `json:"funded"`
	PerAnnumInterestRate     uint16         `json:"per_annum_interest_rate"`
	DurationSeconds          uint32         `json:"duration_seconds"`
	LastAccumulatedTimestamp uint64         `json:"last_accumulated_timestamp"`
	CollateralContract       common.Address `json:"collateral_contract"`
	CollateralTokenID        u256.Int       `json:"collateral_token_id"`
	AllowLoanAmountIncrease  bool           `json:"allow_loan_amount_increase"`
	OriginationFeeRate       u256.Int       `json:"origination_fee_rate"`
	LoanAssetContract        common.Address `json:"loan_asset_contract"`
	AccumulatedInterest      u256.Int       `json:"accumulated_interest"`
	LoanAmount               u256.Int       `json:"loan_amount"`
	CreatedAt                time.Time      `json:"created_at"`
}

func toDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:                   l.ID,
		Closed:                   l.Closed,
		Funded:                   l.Funded(),
		PerAnnumInterestRate:     l.PerAnnumInterestRate,
		DurationSeconds:          l.DurationSeconds,
		LastAccumulatedTimestamp: l.LastAccumulatedTimestamp,
		CollateralContract:       l.CollateralContract,
		CollateralTokenID:        l.CollateralTokenID,
		AllowLoanAmountIncrease:  l.AllowLoanAmountIncrease,
		OriginationFeeRate:       l.OriginationFeeRate,
		LoanAssetContract:        l.LoanAssetContract,
		AccumulatedInterest:      l.AccumulatedInterest,
		LoanAmount:               l.LoanAmount,
		CreatedAt:                l.CreatedAt,
	}
}
