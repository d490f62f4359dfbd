package payment

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/pkg/u256"
)

var ErrTransferFailed = errors.New("payment: transfer failed")

// Rail moves fungible assets. TransferFrom returns the raw return data of
// the asset call: empty for tokens that return nothing, otherwise one ABI
// encoded bool word.
type Rail interface {
	TransferFrom(ctx context.Context, asset, from, to common.Address, amount u256.Int) ([]byte, error)
}

// Ledger is a Rail whose balances can be read and credited.
type Ledger interface {
	Rail
	BalanceOf(ctx context.Context, asset, account common.Address) (u256.Int, error)
	Credit(ctx context.Context, asset, account common.Address, amount u256.Int) error
}

var (
	returnTrue  = common.LeftPadBytes([]byte{1}, 32)
	returnFalse = make([]byte, 32)
)

// ReturnData encodes ok the way a standard asset contract returns it.
func ReturnData(ok bool) []byte {
	if ok {
		return append([]byte(nil), returnTrue...)
	}
	return append([]byte(nil), returnFalse...)
}

// SafeTransferFrom calls rail and accepts empty return data or an ABI true.
// A call error, an ABI false, or malformed return data all fail.
func SafeTransferFrom(ctx context.Context, rail Rail, asset, from, to common.Address, amount u256.Int) error {
	ret, err := rail.TransferFrom(ctx, asset, from, to, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if len(ret) == 0 {
		return nil
	}
	if len(ret) != 32 {
		return fmt.Errorf("%w: %d bytes of return data", ErrTransferFailed, len(ret))
	}
	if new(big.Int).SetBytes(ret).Cmp(common.Big1) != 0 {
		return fmt.Errorf("%w: asset returned false", ErrTransferFailed)
	}
	return nil
}
