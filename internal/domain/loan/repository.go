package loan

import "context"

type Repository interface {
	// Create allocates the next loan id and stores l under it.
	Create(ctx context.Context, l *Loan) error
	// GetByID returns ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate is GetByID holding a row lock until the tx ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
}
