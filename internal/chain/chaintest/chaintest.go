// Package chaintest provides an in-memory course-store node for tests.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrExecutionReverted mimics a node rejecting a call that would revert.
var ErrExecutionReverted = errors.New("execution reverted")

type callKey struct {
	method string
	course uint64
}

// Backend simulates a node hosting the course-store contract.
// It implements chain.Backend.
type Backend struct {
	mu sync.Mutex

	abi      abi.ABI
	chainID  *big.Int
	gasPrice *big.Int

	prices  map[uint64]*big.Int
	owners  map[common.Address]map[uint64]bool
	nonces  map[common.Address]uint64
	pending map[common.Hash]*types.Transaction
	mined   map[common.Hash]*types.Receipt

	readErr    error
	callErrs   map[callKey]error
	sendErr    error
	receiptErr error
	hold       bool
	gate       chan struct{}
	delay      chan struct{}
	calls      int
	sent       []*types.Transaction
}

// New creates a backend for chainID speaking the given interface description.
func New(chainID int64, parsed abi.ABI) *Backend {
	return &Backend{
		abi:      parsed,
		chainID:  big.NewInt(chainID),
		gasPrice: big.NewInt(1_000_000_000),
		prices:   make(map[uint64]*big.Int),
		owners:   make(map[common.Address]map[uint64]bool),
		nonces:   make(map[common.Address]uint64),
		pending:  make(map[common.Hash]*types.Transaction),
		mined:    make(map[common.Hash]*types.Receipt),
		callErrs: make(map[callKey]error),
	}
}

// SetPrice sets the on-chain price of a course in wei.
func (b *Backend) SetPrice(course uint64, wei *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prices[course] = new(big.Int).Set(wei)
}

// SetOwned grants or revokes access to a course for account.
func (b *Backend) SetOwned(account common.Address, course uint64, owned bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setOwnedLocked(account, course, owned)
}

func (b *Backend) setOwnedLocked(account common.Address, course uint64, owned bool) {
	if b.owners[account] == nil {
		b.owners[account] = make(map[uint64]bool)
	}
	b.owners[account][course] = owned
}

// Owned reports the on-chain access flag.
func (b *Backend) Owned(account common.Address, course uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owners[account][course]
}

// FailReads makes every contract read fail with err. nil restores reads.
func (b *Backend) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

// FailCall makes reads of method for one course fail with err. nil restores it.
func (b *Backend) FailCall(method string, course uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.callErrs, callKey{method, course})
		return
	}
	b.callErrs[callKey{method, course}] = err
}

// FailSend makes SendTransaction fail with err.
func (b *Backend) FailSend(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = err
}

// FailReceipts makes TransactionReceipt fail with err.
func (b *Backend) FailReceipts(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receiptErr = err
}

// HoldReceipts keeps sent transactions pending until Mine is called.
func (b *Backend) HoldReceipts(hold bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hold = hold
}

// BlockReads makes every read wait until the returned release func is called.
func (b *Backend) BlockReads() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gate == gate {
				b.gate = nil
			}
			b.mu.Unlock()
			close(gate)
		})
	}
}

// DelayReads answers every read against the state at call time but
// returns the answer only once the returned release func is called.
func (b *Backend) DelayReads() (release func()) {
	delay := make(chan struct{})
	b.mu.Lock()
	b.delay = delay
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.delay == delay {
				b.delay = nil
			}
			b.mu.Unlock()
			close(delay)
		})
	}
}

// Mine executes every pending transaction.
func (b *Backend) Mine() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for hash, tx := range b.pending {
		b.executeLocked(tx)
		delete(b.pending, hash)
	}
}

// Calls returns the number of contract reads served.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Sent returns the transactions accepted so far.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// ChainID implements chain.Reader.
func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

// CallContract implements chain.Reader.
func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if err := wait(ctx, gate); err != nil {
		return nil, err
	}

	b.mu.Lock()
	out, err := b.answerLocked(msg)
	delay := b.delay
	b.mu.Unlock()
	if werr := wait(ctx, delay); werr != nil {
		return nil, werr
	}
	return out, err
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Backend) answerLocked(msg ethereum.CallMsg) ([]byte, error) {
	b.calls++

	if b.readErr != nil {
		return nil, b.readErr
	}
	if len(msg.Data) < 4 {
		return nil, ErrExecutionReverted
	}
	method, err := b.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "getCoursePrice":
		course := args[0].(*big.Int).Uint64()
		if err := b.callErrs[callKey{method.Name, course}]; err != nil {
			return nil, err
		}
		price := b.prices[course]
		if price == nil {
			price = new(big.Int)
		}
		return method.Outputs.Pack(price)
	case "hasAccess":
		account := args[0].(common.Address)
		course := args[1].(*big.Int).Uint64()
		if err := b.callErrs[callKey{method.Name, course}]; err != nil {
			return nil, err
		}
		return method.Outputs.Pack(b.owners[account][course])
	default:
		return nil, fmt.Errorf("%w: %s is not a view", ErrExecutionReverted, method.Name)
	}
}

// PendingNonceAt implements chain.Transactor.
func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

// SuggestGasPrice implements chain.Transactor.
func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.gasPrice), nil
}

// EstimateGas implements chain.Transactor.
func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 90_000, nil
}

// SendTransaction implements chain.Transactor.
func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sendErr != nil {
		return b.sendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return err
	}
	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce mismatch: have %d want %d", tx.Nonce(), b.nonces[from])
	}
	b.nonces[from]++
	b.sent = append(b.sent, tx)

	if b.hold {
		b.pending[tx.Hash()] = tx
		return nil
	}
	b.executeLocked(tx)
	return nil
}

// TransactionReceipt implements chain.ReceiptReader.
func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.receiptErr != nil {
		return nil, b.receiptErr
	}
	receipt, ok := b.mined[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// executeLocked applies purchaseCourse semantics: the payment must match the
// price of a priced course not yet owned by the sender.
func (b *Backend) executeLocked(tx *types.Transaction) {
	receipt := &types.Receipt{
		TxHash:      tx.Hash(),
		Status:      types.ReceiptStatusFailed,
		BlockNumber: big.NewInt(int64(len(b.mined) + 1)),
		GasUsed:     tx.Gas(),
	}
	defer func() { b.mined[tx.Hash()] = receipt }()

	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil || len(tx.Data()) < 4 {
		return
	}
	method, err := b.abi.MethodById(tx.Data()[:4])
	if err != nil || method.Name != "purchaseCourse" {
		return
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return
	}

	course := args[0].(*big.Int).Uint64()
	price := b.prices[course]
	if price == nil || price.Sign() == 0 || tx.Value().Cmp(price) != 0 || b.owners[from][course] {
		return
	}

	b.setOwnedLocked(from, course, true)
	receipt.Status = types.ReceiptStatusSuccessful
}
