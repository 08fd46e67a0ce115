package storefront

import (
	"context"

	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/metrics"
	"github.com/mrz1836/skillmint/internal/notify"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Refresh runs one catalog round for the current identity. A failed round
// leaves previously loaded values in place; a round that finishes after
// the identity changed is dropped. Purchases confirmed while the round was
// reading stay owned.
func (c *Client) Refresh(ctx context.Context) error {
	st := c.sess.Current()
	if !st.Connected() {
		return storeerr.ErrNotConnected
	}

	c.mu.Lock()
	c.refreshing++
	c.mu.Unlock()

	round, err := catalog.Query(ctx, st.Binding, st.Identity, c.catalog)

	c.mu.Lock()
	c.refreshing--
	if c.epoch != st.Epoch {
		c.mu.Unlock()
		c.metrics.RecordRefresh(metrics.ResultStale)
		c.logger.Debug("discarding stale catalog round", zap.Uint64("round_epoch", st.Epoch))
		return nil
	}
	if err != nil {
		c.lastError = "Failed to load course data: " + err.Error()
		c.mu.Unlock()

		c.metrics.RecordRefresh(metrics.ResultError)
		c.logger.Error("catalog refresh failed", zap.Error(err))
		c.bus.Publish(notify.Notification{
			Kind:    notify.KindReadFailed,
			Message: "Failed to load course data",
			Account: st.Identity.Hex(),
		})
		return err
	}
	for id := range c.confirmed {
		round.Owned[id] = true
	}
	c.prices, c.owned = round.Prices, round.Owned
	c.loadedEpoch = st.Epoch
	c.mu.Unlock()

	c.metrics.RecordRefresh(metrics.ResultSuccess)
	c.logger.Info("catalog refreshed", zap.String("account", st.Identity.Hex()), zap.Int("items", len(round.Prices)))
	c.bus.Publish(notify.Notification{
		Kind:    notify.KindRefreshed,
		Message: "Course data loaded",
		Account: st.Identity.Hex(),
	})
	return nil
}
