package loan

import (
	"errors"

	"nftlend-backend/pkg/u256"
)

// Rates are fixed point with InterestRateDecimals digits: a rate of 1 is 0.1%.
const (
	InterestRateDecimals = 3
	Scalar               = 1000
	SecondsPerYear       = 365 * 24 * 60 * 60
)

var (
	scalar = u256.New(Scalar)
	wad    = u256.MustDecimal("1000000000000000000")
	// wad * Scalar
	rateDenominator = u256.MustDecimal("1000000000000000000000")
	secondsPerYear  = u256.New(SecondsPerYear)
)

// ErrClockBehind is returned when now precedes the accrual start.
var ErrClockBehind = errors.New("loan: clock behind last accrual")

// InterestOwed is the total interest owed at now: linear, non-compounding
// accrual on principal at annualRate since the given timestamp, plus the
// interest snapshotted at earlier term changes. Every division truncates.
func InterestOwed(principal u256.Int, since uint64, annualRate uint16, prior u256.Int, now uint64) (u256.Int, error) {
	if now < since {
		return u256.Int{}, ErrClockBehind
	}
	perSecond, err := u256.New(uint64(annualRate)).Mul(wad)
	if err != nil {
		return u256.Int{}, err
	}
	perSecond = perSecond.Div(secondsPerYear)

	owed, err := principal.Mul(u256.New(now - since))
	if err != nil {
		return u256.Int{}, err
	}
	if owed, err = owed.Mul(perSecond); err != nil {
		return u256.Int{}, err
	}
	return owed.Div(rateDenominator).Add(prior)
}

// AccruedFor is InterestOwed over the loan's current terms.
func AccruedFor(l *Loan, now uint64) (u256.Int, error) {
	return InterestOwed(l.LoanAmount, l.LastAccumulatedTimestamp, l.PerAnnumInterestRate, l.AccumulatedInterest, now)
}
