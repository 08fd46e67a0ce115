package chain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/metrics"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// ErrRPCURLRequired indicates the RPC URL was not provided.
var ErrRPCURLRequired = &storeerr.StoreError{
	Code:     "ETH_RPC_URL_REQUIRED",
	Message:  "RPC URL is required",
	ExitCode: storeerr.ExitInput,
}

// InstrumentedBackend wraps a Backend with per-endpoint rate limiting,
// Prometheus metrics and debug logging. It adds no retries.
type InstrumentedBackend struct {
	next     Backend
	endpoint string
	limiter  *RateLimiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Compile-time interface check
var _ Backend = (*InstrumentedBackend)(nil)

// NewInstrumentedBackend wraps next. A nil limiter disables rate limiting.
func NewInstrumentedBackend(next Backend, endpoint string, limiter *RateLimiter, m *metrics.Metrics, logger *zap.Logger) *InstrumentedBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedBackend{
		next:     next,
		endpoint: endpoint,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
	}
}

// observe waits for the limiter, runs call and records its outcome.
func (b *InstrumentedBackend) observe(ctx context.Context, method string, call func() error) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx, b.endpoint); err != nil {
			return err
		}
	}

	start := time.Now()
	err := call()
	elapsed := time.Since(start)

	// A pending receipt is an expected answer, not a failed call.
	recorded := err
	if errors.Is(err, ethereum.NotFound) {
		recorded = nil
	}
	b.metrics.RecordRPCCall(method, elapsed, recorded)

	if recorded != nil {
		b.logger.Debug("rpc call failed", zap.String("method", method), zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		b.logger.Debug("rpc call", zap.String("method", method), zap.Duration("elapsed", elapsed))
	}
	return err
}

// ChainID implements Reader.
func (b *InstrumentedBackend) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := b.observe(ctx, "eth_chainId", func() (err error) {
		id, err = b.next.ChainID(ctx)
		return err
	})
	return id, err
}

// CallContract implements Reader.
func (b *InstrumentedBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := b.observe(ctx, "eth_call", func() (err error) {
		out, err = b.next.CallContract(ctx, msg, blockNumber)
		return err
	})
	return out, err
}

// PendingNonceAt implements Transactor.
func (b *InstrumentedBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := b.observe(ctx, "eth_getTransactionCount", func() (err error) {
		nonce, err = b.next.PendingNonceAt(ctx, account)
		return err
	})
	return nonce, err
}

// SuggestGasPrice implements Transactor.
func (b *InstrumentedBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := b.observe(ctx, "eth_gasPrice", func() (err error) {
		price, err = b.next.SuggestGasPrice(ctx)
		return err
	})
	return price, err
}

// EstimateGas implements Transactor.
func (b *InstrumentedBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := b.observe(ctx, "eth_estimateGas", func() (err error) {
		gas, err = b.next.EstimateGas(ctx, msg)
		return err
	})
	return gas, err
}

// SendTransaction implements Transactor.
func (b *InstrumentedBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return b.observe(ctx, "eth_sendRawTransaction", func() error {
		return b.next.SendTransaction(ctx, tx)
	})
}

// TransactionReceipt implements ReceiptReader.
func (b *InstrumentedBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := b.observe(ctx, "eth_getTransactionReceipt", func() (err error) {
		receipt, err = b.next.TransactionReceipt(ctx, txHash)
		return err
	})
	return receipt, err
}
