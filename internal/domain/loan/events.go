package loan

import (
	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

const (
	EventTypeCreated          = "loan.created"
	EventTypeClosed           = "loan.closed"
	EventTypeLent             = "loan.lent"
	EventTypeBuyout           = "loan.buyout"
	EventTypeRepaid           = "loan.repaid"
	EventTypeCollateralSeized = "loan.collateral_seized"
)

type CreatedEvent struct {
	LoanID                  uint64         `json:"loan_id"`
	Minter                  common.Address `json:"minter"`
	CollateralTokenID       u256.Int       `json:"collateral_token_id"`
	CollateralContract      common.Address `json:"collateral_contract"`
	MaxPerAnnumInterestRate uint16         `json:"max_per_annum_interest_rate"`
	LoanAssetContract       common.Address `json:"loan_asset_contract"`
	AllowLoanAmountIncrease bool           `json:"allow_loan_amount_increase"`
	MinLoanAmount           u256.Int       `json:"min_loan_amount"`
	MinDurationSeconds      uint32         `json:"min_duration_seconds"`
}

func (CreatedEvent) EventType() string { return EventTypeCreated }

type ClosedEvent struct {
	LoanID uint64 `json:"loan_id"`
}

func (ClosedEvent) EventType() string { return EventTypeClosed }

// LentEvent is emitted for every funding, first or buyout.
type LentEvent struct {
	LoanID          uint64         `json:"loan_id"`
	Lender          common.Address `json:"lender"`
	InterestRate    uint16         `json:"interest_rate"`
	Amount          u256.Int       `json:"amount"`
	DurationSeconds uint32         `json:"duration_seconds"`
}

func (LentEvent) EventType() string { return EventTypeLent }

type BuyoutEvent struct {
	LoanID         uint64         `json:"loan_id"`
	Lender         common.Address `json:"lender"`
	Replaced       common.Address `json:"replaced_lender"`
	InterestEarned u256.Int       `json:"interest_earned"`
	ReplacedAmount u256.Int       `json:"replaced_amount"`
}

func (BuyoutEvent) EventType() string { return EventTypeBuyout }

type RepaidEvent struct {
	LoanID         uint64         `json:"loan_id"`
	Repayer        common.Address `json:"repayer"`
	Lender         common.Address `json:"lender"`
	InterestEarned u256.Int       `json:"interest_earned"`
	LoanAmount     u256.Int       `json:"loan_amount"`
}

func (RepaidEvent) EventType() string { return EventTypeRepaid }

type CollateralSeizedEvent struct {
	LoanID    uint64         `json:"loan_id"`
	Lender    common.Address `json:"lender"`
	Recipient common.Address `json:"collateral_recipient"`
}

func (CollateralSeizedEvent) EventType() string { return EventTypeCollateralSeized }
