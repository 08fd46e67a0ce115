package storefront

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/contract"
	"github.com/mrz1836/skillmint/internal/metrics"
	"github.com/mrz1836/skillmint/internal/notify"
	"github.com/mrz1836/skillmint/internal/purchase"
)

// ticket is an admitted purchase.
type ticket struct {
	item     catalog.ItemID
	price    *big.Int
	binding  *contract.Binding
	identity common.Address
	epoch    uint64
}

// Purchase buys item and returns once its transaction is confirmed or has
// failed. Precondition failures return immediately without side effects.
func (c *Client) Purchase(ctx context.Context, item catalog.ItemID) (purchase.Result, error) {
	t, err := c.admit(item)
	if err != nil {
		return purchase.Result{Item: item}, err
	}
	return c.execute(ctx, t)
}

// StartPurchase admits item and completes the purchase in the background.
func (c *Client) StartPurchase(item catalog.ItemID) error {
	t, err := c.admit(item)
	if err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.execute(c.ctx, t)
	}()
	return nil
}

// admit checks preconditions and claims the guard atomically.
func (c *Client) admit(item catalog.ItemID) (ticket, error) {
	st := c.sess.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	current := st.Connected() && st.Epoch == c.epoch
	pre := purchase.Preconditions{
		Connected: current,
		Listed:    c.catalog.Contains(item),
		MaxValue:  c.maxValue,
	}
	if current {
		pre.Owned = c.owned[item]
		pre.Price = c.prices[item]
	}
	if err := pre.Check(item, c.guard); err != nil {
		return ticket{}, err
	}
	if !c.guard.TryAcquire(item) {
		return ticket{}, pre.Check(item, c.guard)
	}

	c.lastError, c.lastSuccess, c.successItem = "", "", 0
	c.pending[item] = st.Epoch
	c.metrics.PurchaseStarted()
	return ticket{
		item:     item,
		price:    new(big.Int).Set(pre.Price),
		binding:  st.Binding,
		identity: st.Identity,
		epoch:    st.Epoch,
	}, nil
}

func (c *Client) execute(ctx context.Context, t ticket) (purchase.Result, error) {
	c.logger.Info("purchase submitting", zap.Uint64("course", uint64(t.item)), zap.String("value", t.price.String()))

	res, err := purchase.Submit(ctx, t.binding, t.item, t.price, purchase.Options{
		GasLimit:     c.gasLimit,
		PollInterval: c.poll,
		OnSubmitted: func(hash common.Hash) {
			c.bus.Publish(notify.Notification{
				Kind:    notify.KindPurchaseSubmitted,
				Message: "Transaction submitted, waiting for confirmation",
				Item:    uint64(t.item),
				Account: t.identity.Hex(),
				TxHash:  hash.Hex(),
			})
		},
	})

	c.mu.Lock()
	c.guard.Release(t.item)
	delete(c.pending, t.item)
	sameIdentity := c.epoch == t.epoch
	if err == nil && sameIdentity {
		if c.owned == nil {
			c.owned = make(catalog.OwnershipMap)
		}
		c.owned[t.item] = true
		c.confirmed[t.item] = struct{}{}
		c.lastSuccess, c.successItem = purchase.SuccessMessage(t.item), t.item
	}
	if err != nil && sameIdentity {
		c.lastError = purchase.FailureMessage(t.item, err)
	}
	c.mu.Unlock()
	c.metrics.PurchaseFinished()

	n := notify.Notification{Item: uint64(t.item), Account: t.identity.Hex(), TxHash: hashOrEmpty(res.TxHash)}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Info("purchase wait abandoned", zap.Uint64("course", uint64(t.item)))
		}
		c.metrics.RecordPurchase(metrics.ResultError)
		c.logger.Error("purchase failed", zap.Uint64("course", uint64(t.item)), zap.Error(err))
		n.Kind, n.Message = notify.KindPurchaseFailed, purchase.FailureMessage(t.item, err)
	} else {
		c.metrics.RecordPurchase(metrics.ResultSuccess)
		c.logger.Info("purchase confirmed", zap.Uint64("course", uint64(t.item)), zap.String("tx", res.TxHash.Hex()))
		n.Kind, n.Message = notify.KindPurchaseSucceeded, purchase.SuccessMessage(t.item)
	}
	c.bus.Publish(n)
	return res, err
}

func hashOrEmpty(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}
