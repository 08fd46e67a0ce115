package storefront

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/skillmint/internal/catalog"
)

// RequestState describes purchase activity for the current identity.
type RequestState struct {
	InFlight    []catalog.ItemID
	LastError   string
	LastSuccess string
	SuccessItem catalog.ItemID
}

// Processing reports whether item has a purchase awaiting confirmation.
func (r RequestState) Processing(item catalog.ItemID) bool {
	for _, id := range r.InFlight {
		if id == item {
			return true
		}
	}
	return false
}

// Snapshot is an immutable copy of the storefront state.
type Snapshot struct {
	ProviderAvailable bool
	Connected         bool
	Identity          common.Address
	Epoch             uint64
	Catalog           catalog.Catalog
	Prices            catalog.PriceMap
	Owned             catalog.OwnershipMap
	Loaded            bool
	Refreshing        bool
	Mode              string
	Request           RequestState

	// Busy is set while any purchase is in flight, including one started
	// under an earlier identity.
	Busy bool
}

// Snapshot copies the current state. Prices and ownership belong to
// Identity; they are empty until the first round for it completes.
func (c *Client) Snapshot() Snapshot {
	st := c.sess.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		ProviderAvailable: c.sess.Provider() != nil,
		Connected:         st.Connected() && st.Epoch == c.epoch,
		Epoch:             c.epoch,
		Catalog:           c.catalog,
		Prices:            c.prices.Clone(),
		Owned:             c.owned.Clone(),
		Loaded:            c.loadedEpoch == c.epoch && c.prices != nil,
		Refreshing:        c.refreshing > 0,
		Mode:              c.guard.Mode(),
		Busy:              len(c.guard.InFlight()) > 0,
		Request: RequestState{
			InFlight:    c.inFlightLocked(),
			LastError:   c.lastError,
			LastSuccess: c.lastSuccess,
			SuccessItem: c.successItem,
		},
	}
	if s.Connected {
		s.Identity = c.identity
	}
	return s
}

// inFlightLocked lists purchases started under the current identity.
func (c *Client) inFlightLocked() []catalog.ItemID {
	ids := make([]catalog.ItemID, 0, len(c.pending))
	for _, id := range c.guard.InFlight() {
		if epoch, ok := c.pending[id]; ok && epoch == c.epoch {
			ids = append(ids, id)
		}
	}
	return ids
}
