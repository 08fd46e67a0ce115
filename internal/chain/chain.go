// Package chain provides the Ethereum node boundary used by the storefront:
// a narrow Backend interface satisfied by go-ethereum's ethclient, an
// instrumented rate-limited wrapper, and amount helpers.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ETHDecimals is the number of decimals of the native currency.
const ETHDecimals = 18

// Reader is the read-only half of the node boundary.
type Reader interface {
	// ChainID returns the network chain ID used for EIP-155 signing.
	ChainID(ctx context.Context) (*big.Int, error)

	// CallContract executes a read-only message call against the given block (nil = latest).
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Transactor submits state-changing transactions.
type Transactor interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// ReceiptReader looks up mined transaction receipts.
// Implementations return ethereum.NotFound while the transaction is pending.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Backend combines every node capability the storefront needs.
type Backend interface {
	Reader
	Transactor
	ReceiptReader
}

// Compile-time interface check
var _ Backend = (*ethclient.Client)(nil)

// Dial connects to an Ethereum node over HTTP, WebSocket or IPC.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, ErrRPCURLRequired
	}
	return ethclient.DialContext(ctx, rpcURL)
}
