package loan

import "errors"

// Validation errors: bad input, resubmit with corrected values.
var (
	ErrZeroDuration     = errors.New("loan: duration 0")
	ErrZeroAmount       = errors.New("loan: loan amount 0")
	ErrTicketCollateral = errors.New("loan: cannot use tickets as collateral")
	ErrInvalidAsset     = errors.New("loan: loan asset is not a contract")
	ErrAmountTooWide    = errors.New("loan: amount exceeds 128 bits")
)

// Authorization errors: the caller does not hold the required ticket.
var (
	ErrNotBorrowTicketHolder = errors.New("loan: borrow ticket holder only")
	ErrNotLendTicketHolder   = errors.New("loan: lend ticket holder only")
)

// State errors.
var (
	ErrNotFound  = errors.New("loan: loan not found")
	ErrClosed    = errors.New("loan: loan closed")
	ErrHasLender = errors.New("loan: has lender")
	ErrNotFunded = errors.New("loan: loan not funded")
	ErrNotLate   = errors.New("loan: payment is not late")
)

// Term errors: propose different terms.
var (
	ErrRateTooHigh             = errors.New("loan: rate too high")
	ErrDurationTooLow          = errors.New("loan: duration too low")
	ErrAmountTooLow            = errors.New("loan: amount too low")
	ErrInvalidAmount           = errors.New("loan: invalid amount")
	ErrInsufficientImprovement = errors.New("loan: insufficient improvement")
	ErrInterestOverflow        = errors.New("loan: interest exceeds uint128")
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindState
	KindTerms
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindTerms:
		return "terms"
	default:
		return "internal"
	}
}

var kinds = map[ErrorKind][]error{
	KindValidation:    {ErrZeroDuration, ErrZeroAmount, ErrTicketCollateral, ErrInvalidAsset, ErrAmountTooWide},
	KindAuthorization: {ErrNotBorrowTicketHolder, ErrNotLendTicketHolder},
	KindNotFound:      {ErrNotFound},
	KindState:         {ErrClosed, ErrHasLender, ErrNotFunded, ErrNotLate},
	KindTerms:         {ErrRateTooHigh, ErrDurationTooLow, ErrAmountTooLow, ErrInvalidAmount, ErrInsufficientImprovement, ErrInterestOverflow},
}

// Kind classifies err. Anything not wrapping a sentinel above is internal.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	for k, list := range kinds {
		for _, target := range list {
			if errors.Is(err, target) {
				return k
			}
		}
	}
	return KindInternal
}
