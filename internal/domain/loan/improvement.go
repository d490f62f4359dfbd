package loan

import "nftlend-backend/pkg/u256"

// Terms are the three negotiable dimensions of a funding offer.
type Terms struct {
	Amount          u256.Int
	DurationSeconds uint32
	Rate            uint16
}

// IsValidImprovement reports whether proposed beats previous by at least
// improvementRate/Scalar in one dimension. Thresholds use ceiling division.
//
// When previous.DurationSeconds is 0 the duration branch holds for any
// proposal. Creation forbids a zero duration so this is unreachable through
// the engine, and it is kept as is.
func IsValidImprovement(previous, proposed Terms, improvementRate u256.Int) bool {
	if increase, err := proposed.Amount.Sub(previous.Amount); err == nil {
		if bar, ok := threshold(previous.Amount, improvementRate); ok && !increase.Lt(bar) {
			return true
		}
	}

	prevDuration := u256.New(uint64(previous.DurationSeconds))
	if bar, ok := threshold(prevDuration, improvementRate); ok {
		if minDuration, err := prevDuration.Add(bar); err == nil && !u256.New(uint64(proposed.DurationSeconds)).Lt(minDuration) {
			return true
		}
	}

	if previous.Rate == 0 {
		return false
	}
	prevRate := u256.New(uint64(previous.Rate))
	bar, ok := threshold(prevRate, improvementRate)
	if !ok {
		return false
	}
	maxRate, err := prevRate.Sub(bar)
	if err != nil {
		// improvement larger than the rate itself cannot be met
		return false
	}
	return !maxRate.Lt(u256.New(uint64(proposed.Rate)))
}

// threshold is ceil(value * improvementRate / Scalar).
func threshold(value, improvementRate u256.Int) (u256.Int, bool) {
	p, err := value.Mul(improvementRate)
	if err != nil {
		return u256.Int{}, false
	}
	return p.CeilDiv(scalar), true
}
