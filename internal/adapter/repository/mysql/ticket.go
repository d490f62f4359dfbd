package mysql

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nftlend-backend/internal/domain/ticket"
)

// TicketRepository stores one kind of position ticket in the shared tickets
// table.
type TicketRepository struct {
	db   *gorm.DB
	kind ticket.Kind
}

func NewTicketRepository(db *gorm.DB, kind ticket.Kind) *TicketRepository {
	return &TicketRepository{db: db, kind: kind}
}

func (r *TicketRepository) Mint(ctx context.Context, to common.Address, loanID uint64) error {
	if to == (common.Address{}) {
		return ticket.ErrZeroRecipient
	}
	var n int64
	if err := r.scope(ctx, loanID).Model(&ticket.Ticket{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ticket.ErrAlreadyMinted
	}
	return r.db.WithContext(ctx).Create(&ticket.Ticket{Kind: r.kind, LoanID: loanID, Owner: to}).Error
}

func (r *TicketRepository) Transfer(ctx context.Context, from, to common.Address, loanID uint64) error {
	var t ticket.Ticket
	err := r.scope(ctx, loanID).Clauses(clause.Locking{Strength: "UPDATE"}).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ticket.ErrNotFound
	}
	if err != nil {
		return err
	}
	if t.Owner != from {
		return ticket.ErrNotOwner
	}
	if to == (common.Address{}) {
		return ticket.ErrZeroRecipient
	}
	return r.db.WithContext(ctx).Model(&t).Update("owner", to).Error
}

func (r *TicketRepository) OwnerOf(ctx context.Context, loanID uint64) (common.Address, error) {
	var t ticket.Ticket
	err := r.scope(ctx, loanID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.Address{}, ticket.ErrNotFound
	}
	if err != nil {
		return common.Address{}, err
	}
	return t.Owner, nil
}

func (r *TicketRepository) scope(ctx context.Context, loanID uint64) *gorm.DB {
	return r.db.WithContext(ctx).Where("kind = ? AND loan_id = ?", r.kind, loanID)
}
