package loan

import (
	"context"

	domain "nftlend-backend/internal/domain/loan"
	"nftlend-backend/pkg/u256"
)

func (u *Usecase) GetLoan(ctx context.Context, loanID uint64) (*LoanDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

// InterestOwed is the interest accrued so far. Closed and never-funded loans
// owe nothing.
func (u *Usecase) InterestOwed(ctx context.Context, loanID uint64) (u256.Int, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return u256.Int{}, err
	}
	return u.interestOwed(l)
}

// TotalOwed is principal plus InterestOwed.
func (u *Usecase) TotalOwed(ctx context.Context, loanID uint64) (u256.Int, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return u256.Int{}, err
	}
	if l.Closed || !l.Funded() {
		return u256.Int{}, nil
	}
	interest, err := u.interestOwed(l)
	if err != nil {
		return u256.Int{}, err
	}
	return interest.Add(l.LoanAmount)
}

func (u *Usecase) LoanEndSeconds(ctx context.Context, loanID uint64) (uint64, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		return 0, err
	}
	return l.EndSeconds(), nil
}

func (u *Usecase) interestOwed(l *domain.Loan) (u256.Int, error) {
	if l.Closed || !l.Funded() {
		return u256.Int{}, nil
	}
	now, err := u.timestamp()
	if err != nil {
		return u256.Int{}, err
	}
	return domain.AccruedFor(l, now)
}
