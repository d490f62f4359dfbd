package uow

import (
	"context"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/internal/domain/ticket"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans         loan.Repository
	BorrowTickets ticket.Repository
	LendTickets   ticket.Repository
	Custody       custody.Custody
	Payments      payment.Ledger
	Settings      fee.Repository
}

// UnitOfWork commits everything fn does or nothing.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row first, then passes it in.
	WithinLoanTx(ctx context.Context, loanID uint64, fn func(r Repos, l *loan.Loan) error) error
}
