package purchase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/chain"
	"github.com/mrz1836/skillmint/internal/contract"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Submitter sends purchaseCourse transactions.
type Submitter interface {
	PurchaseCourse(ctx context.Context, courseID uint64, value *big.Int, opts contract.TxOpts) (*contract.Pending, error)
}

// Options tunes a purchase.
type Options struct {
	GasLimit     uint64
	PollInterval time.Duration

	// OnSubmitted, when set, is called once the node accepted the transaction.
	OnSubmitted func(hash common.Hash)
}

// Result describes a confirmed purchase.
type Result struct {
	Item    catalog.ItemID
	TxHash  common.Hash
	Receipt *types.Receipt
}

// Preconditions is the local state a purchase is checked against.
type Preconditions struct {
	Connected bool
	Listed    bool
	Owned     bool
	Price     *big.Int
	MaxValue  *big.Int // nil means unlimited
}

// Check returns the first violated precondition, in a fixed order:
// not connected, unknown item, already owned, purchase in flight, price
// unknown, price above the configured maximum.
func (p Preconditions) Check(item catalog.ItemID, g *Guard) error {
	details := map[string]string{"course": fmt.Sprint(item)}
	switch {
	case !p.Connected:
		return storeerr.ErrNotConnected
	case !p.Listed:
		return storeerr.WithDetails(storeerr.ErrUnknownItem, details)
	case p.Owned:
		return storeerr.WithDetails(storeerr.ErrAlreadyOwned, details)
	case g.Busy(item):
		return storeerr.WithDetails(storeerr.ErrPurchaseInFlight, details)
	case p.Price == nil:
		return storeerr.WithDetails(storeerr.ErrPriceUnknown, details)
	case p.MaxValue != nil && p.Price.Cmp(p.MaxValue) > 0:
		details["price"] = chain.FormatETH(p.Price) + " ETH"
		details["max"] = chain.FormatETH(p.MaxValue) + " ETH"
		return storeerr.WithDetails(storeerr.ErrPriceLimit, details)
	default:
		return nil
	}
}

// Submit pays price for item and waits until that exact transaction is
// mined. Wallet refusal surfaces as ErrUserRejected; every other failure,
// including a reverted receipt, as ErrSubmissionFailure. Nothing is retried.
func Submit(ctx context.Context, s Submitter, item catalog.ItemID, price *big.Int, opts Options) (Result, error) {
	pending, err := s.PurchaseCourse(ctx, uint64(item), price, contract.TxOpts{GasLimit: opts.GasLimit})
	if err != nil {
		if errors.Is(err, storeerr.ErrUserRejected) {
			return Result{Item: item}, err
		}
		return Result{Item: item}, storeerr.WithCause(storeerr.ErrSubmissionFailure, err)
	}

	res := Result{Item: item, TxHash: pending.Hash()}
	if opts.OnSubmitted != nil {
		opts.OnSubmitted(res.TxHash)
	}

	receipt, err := pending.Wait(ctx, opts.PollInterval)
	res.Receipt = receipt
	if err != nil {
		return res, storeerr.WithDetails(
			storeerr.WithCause(storeerr.ErrSubmissionFailure, err),
			map[string]string{"tx": res.TxHash.Hex()},
		)
	}
	return res, nil
}

// SuccessMessage is the banner shown after a confirmed purchase.
func SuccessMessage(item catalog.ItemID) string {
	return fmt.Sprintf("Successfully purchased course %d!", item)
}

// FailureMessage is the banner shown after a failed purchase.
func FailureMessage(item catalog.ItemID, err error) string {
	return fmt.Sprintf("Failed to purchase course %d: %v", item, err)
}
