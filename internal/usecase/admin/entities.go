package admin

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/pkg/u256"
)

// BindTicketsInput binds the ticket contracts. A nil field leaves that kind
// untouched.
type BindTicketsInput struct {
	Borrow *common.Address
	Lend   *common.Address
}

type WithdrawInput struct {
	Asset  common.Address
	Amount u256.Int
	To     common.Address
}

type CreditInput struct {
	Asset   common.Address
	Account common.Address
	Amount  u256.Int
}

type SettingsDTO struct {
	OriginationFeeRate   u256.Int       `json:"origination_fee_rate"`
	ImprovementRate      u256.Int       `json:"improvement_rate"`
	BorrowTicketContract common.Address `json:"borrow_ticket_contract"`
	LendTicketContract   common.Address `json:"lend_ticket_contract"`
	Facilitator          common.Address `json:"facilitator"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

type BalanceDTO struct {
	Asset   common.Address `json:"asset"`
	Account common.Address `json:"account"`
	Amount  u256.Int       `json:"amount"`
}

func toDTO(s *fee.Settings, facilitator common.Address) *SettingsDTO {
	return &SettingsDTO{
		OriginationFeeRate:   s.OriginationFeeRate,
		ImprovementRate:      s.ImprovementRate,
		BorrowTicketContract: s.BorrowTicketContract,
		LendTicketContract:   s.LendTicketContract,
		Facilitator:          facilitator,
		UpdatedAt:            s.UpdatedAt,
	}
}
