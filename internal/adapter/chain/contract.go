// Package chain answers "is this address a deployed contract" for the loan
// asset check, either over JSON-RPC or from a configured allow list.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// CodeReader is the slice of ethclient.Client used here.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

type RPCContractChecker struct{ code CodeReader }

func NewRPCContractChecker(code CodeReader) *RPCContractChecker {
	return &RPCContractChecker{code: code}
}

// Dial connects to url. The returned close func releases the client.
func Dial(ctx context.Context, url string) (*RPCContractChecker, func(), error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("chain: dial %s: %w", url, err)
	}
	return NewRPCContractChecker(c), c.Close, nil
}

// IsContract reports whether addr has code at the latest block.
func (r *RPCContractChecker) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	code, err := r.code.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("chain: code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

// StaticContractChecker accepts exactly the configured addresses.
type StaticContractChecker struct {
	known map[common.Address]struct{}
}

func NewStaticContractChecker(addrs []common.Address) *StaticContractChecker {
	known := make(map[common.Address]struct{}, len(addrs))
	for _, a := range addrs {
		known[a] = struct{}{}
	}
	return &StaticContractChecker{known: known}
}

func (s *StaticContractChecker) IsContract(_ context.Context, addr common.Address) (bool, error) {
	_, ok := s.known[addr]
	return ok, nil
}
