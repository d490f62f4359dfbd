package custody

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

// Custody escrows collateral. Any nil error is treated as success; callers
// verify nothing further.
type Custody interface {
	TransferInto(ctx context.Context, contract common.Address, tokenID u256.Int, from common.Address) error
	TransferOut(ctx context.Context, contract common.Address, tokenID u256.Int, to common.Address) error
}
