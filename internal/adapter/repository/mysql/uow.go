package mysql

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/internal/domain/ticket"
	"nftlend-backend/internal/domain/uow"
)

// Models lists every table the repositories in this package use.
func Models() []any {
	return []any{&loan.Loan{}, &ticket.Ticket{}, &custody.Holding{}, &payment.Balance{}, &fee.Settings{}}
}

// GormUoW binds every repository to one db transaction, so a failed
// operation rolls back registry, ticket, custody and ledger writes together.
type GormUoW struct {
	db        *gorm.DB
	custodian common.Address
}

func NewGormUoW(db *gorm.DB, custodian common.Address) *GormUoW {
	return &GormUoW{db: db, custodian: custodian}
}

func (u *GormUoW) repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:         &LoanRepository{db: tx},
		BorrowTickets: NewTicketRepository(tx, ticket.KindBorrow),
		LendTickets:   NewTicketRepository(tx, ticket.KindLend),
		Custody:       NewCustodyRepository(tx, u.custodian),
		Payments:      &BalanceRepository{db: tx},
		Settings:      &SettingsRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(u.repos(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := u.repos(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
