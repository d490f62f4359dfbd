package ticket

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Repository is one ticket kind. The lifecycle engine is its only minter
// and transferrer.
type Repository interface {
	Mint(ctx context.Context, to common.Address, loanID uint64) error
	Transfer(ctx context.Context, from, to common.Address, loanID uint64) error
	OwnerOf(ctx context.Context, loanID uint64) (common.Address, error)
}
