package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/skillmint/internal/chain"
)

var (
	// ErrMissingMethod indicates the interface description lacks a required method.
	ErrMissingMethod = errors.New("missing method")

	// ErrReverted indicates a mined transaction whose receipt reports failure.
	ErrReverted = errors.New("transaction reverted")

	// ErrUnexpectedOutput indicates a read returned values of the wrong shape.
	ErrUnexpectedOutput = errors.New("unexpected contract output")
)

// DefaultPollInterval is used by Pending.Wait when no interval is given.
const DefaultPollInterval = 2 * time.Second

// Signer signs transactions on behalf of an account.
type Signer interface {
	SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Binding pairs the course-store address with one signing identity.
// A Binding is only valid for the identity it was created with.
type Binding struct {
	address common.Address
	abi     abi.ABI
	backend chain.Backend
	from    common.Address
	signer  Signer
	chainID *big.Int
}

// Bind creates a binding for the identity from. signer may be nil for a read-only binding.
func Bind(address common.Address, parsed abi.ABI, backend chain.Backend, from common.Address, signer Signer, chainID *big.Int) *Binding {
	return &Binding{
		address: address,
		abi:     parsed,
		backend: backend,
		from:    from,
		signer:  signer,
		chainID: chainID,
	}
}

// Address returns the contract address.
func (b *Binding) Address() common.Address { return b.address }

// From returns the identity this binding signs for.
func (b *Binding) From() common.Address { return b.from }

// ChainID returns the chain the binding signs for.
func (b *Binding) ChainID() *big.Int { return b.chainID }

// CoursePrice reads getCoursePrice(courseId) in wei.
func (b *Binding) CoursePrice(ctx context.Context, courseID uint64) (*big.Int, error) {
	out, err := b.call(ctx, MethodCoursePrice, new(big.Int).SetUint64(courseID))
	if err != nil {
		return nil, err
	}
	price, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: %w", MethodCoursePrice, ErrUnexpectedOutput)
	}
	return price, nil
}

// HasAccess reads hasAccess(account, courseId).
func (b *Binding) HasAccess(ctx context.Context, account common.Address, courseID uint64) (bool, error) {
	out, err := b.call(ctx, MethodHasAccess, account, new(big.Int).SetUint64(courseID))
	if err != nil {
		return false, err
	}
	owned, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s: %w", MethodHasAccess, ErrUnexpectedOutput)
	}
	return owned, nil
}

func (b *Binding) call(ctx context.Context, method string, args ...any) ([]any, error) {
	input, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	to := b.address
	raw, err := b.backend.CallContract(ctx, ethereum.CallMsg{From: b.from, To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := b.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: %w", method, ErrUnexpectedOutput)
	}
	return out, nil
}

// TxOpts tunes transaction construction.
type TxOpts struct {
	// GasLimit is used as-is when non-zero; otherwise the node estimates it.
	GasLimit uint64
}

// PurchaseCourse signs and sends purchaseCourse(courseId) paying value wei.
// The returned Pending resolves once the transaction is mined.
func (b *Binding) PurchaseCourse(ctx context.Context, courseID uint64, value *big.Int, opts TxOpts) (*Pending, error) {
	if b.signer == nil {
		return nil, ErrReadOnly
	}

	input, err := b.abi.Pack(MethodPurchase, new(big.Int).SetUint64(courseID))
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", MethodPurchase, err)
	}

	nonce, err := b.backend.PendingNonceAt(ctx, b.from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := b.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}

	to := b.address
	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit, err = b.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  b.from,
			To:    &to,
			Value: value,
			Data:  input,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     input,
	})

	signed, err := b.signer.SignTx(ctx, b.from, tx, b.chainID)
	if err != nil {
		return nil, err
	}

	if err := b.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	return &Pending{tx: signed, backend: b.backend}, nil
}

// ErrReadOnly indicates a purchase attempted through a binding without a signer.
var ErrReadOnly = errors.New("binding has no signer")

// Pending is a submitted transaction awaiting confirmation.
type Pending struct {
	tx      *types.Transaction
	backend chain.ReceiptReader
}

// Hash returns the submitted transaction hash.
func (p *Pending) Hash() common.Hash { return p.tx.Hash() }

// Transaction returns the signed transaction.
func (p *Pending) Transaction() *types.Transaction { return p.tx }

// Wait polls for the receipt of this exact transaction until it is mined.
// A reverted receipt returns ErrReverted alongside the receipt.
func (p *Pending) Wait(ctx context.Context, pollInterval time.Duration) (*types.Receipt, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, p.tx.Hash())
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, ErrReverted
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("get receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
