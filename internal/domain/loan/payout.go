package loan

import "nftlend-backend/pkg/u256"

// Payout is what one funding payer owes to each party. Every field is
// transferred from the payer; zero fields are skipped by the caller.
type Payout struct {
	FacilitatorTake u256.Int
	OutgoingLender  u256.Int
	Borrower        u256.Int
}

// Total is the sum the payer is charged.
func (p Payout) Total() (u256.Int, error) {
	t, err := p.FacilitatorTake.Add(p.OutgoingLender)
	if err != nil {
		return u256.Int{}, err
	}
	return t.Add(p.Borrower)
}

// OriginationFee is amount * feeRate / Scalar, truncated.
func OriginationFee(amount, feeRate u256.Int) (u256.Int, error) {
	p, err := amount.Mul(feeRate)
	if err != nil {
		return u256.Int{}, err
	}
	return p.Div(scalar), nil
}

// InitialPayout splits a first funding between facilitator and borrower.
func InitialPayout(amount, feeRate u256.Int) (Payout, error) {
	take, err := OriginationFee(amount, feeRate)
	if err != nil {
		return Payout{}, err
	}
	rest, err := amount.Sub(take)
	if err != nil {
		return Payout{}, err
	}
	return Payout{FacilitatorTake: take, Borrower: rest}, nil
}

// BuyoutPayout repays the outgoing lender in full. The fee applies only to
// the new capital, whose remainder goes to the borrower.
func BuyoutPayout(previousAmount, accrued, amountIncrease, feeRate u256.Int) (Payout, error) {
	payoff, err := accrued.Add(previousAmount)
	if err != nil {
		return Payout{}, err
	}
	if amountIncrease.IsZero() {
		return Payout{OutgoingLender: payoff}, nil
	}
	p, err := InitialPayout(amountIncrease, feeRate)
	if err != nil {
		return Payout{}, err
	}
	p.OutgoingLender = payoff
	return p, nil
}
