package fee

import (
	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

const (
	EventTypeOriginationFeeRateUpdated = "facilitator.origination_fee_rate_updated"
	EventTypeImprovementRateUpdated    = "facilitator.improvement_rate_updated"
	EventTypeTicketContractBound       = "facilitator.ticket_contract_bound"
	EventTypeFeesWithdrawn             = "facilitator.fees_withdrawn"
)

type OriginationFeeRateUpdatedEvent struct {
	Rate u256.Int `json:"rate"`
}

func (OriginationFeeRateUpdatedEvent) EventType() string { return EventTypeOriginationFeeRateUpdated }

type ImprovementRateUpdatedEvent struct {
	Rate u256.Int `json:"rate"`
}

func (ImprovementRateUpdatedEvent) EventType() string { return EventTypeImprovementRateUpdated }

type TicketContractBoundEvent struct {
	Kind     string         `json:"kind"`
	Contract common.Address `json:"contract"`
}

func (TicketContractBoundEvent) EventType() string { return EventTypeTicketContractBound }

type FeesWithdrawnEvent struct {
	Asset  common.Address `json:"asset"`
	Amount u256.Int       `json:"amount"`
	To     common.Address `json:"to"`
}

func (FeesWithdrawnEvent) EventType() string { return EventTypeFeesWithdrawn }
