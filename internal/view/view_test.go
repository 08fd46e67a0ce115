package view_test

import (
	"bytes"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/storefront"
	"github.com/mrz1836/skillmint/internal/view"
)

var account = common.HexToAddress("0xABCD000000000000000000000000000000261234")

func connected(mode string) storefront.Snapshot {
	return storefront.Snapshot{
		ProviderAvailable: true,
		Connected:         true,
		Identity:          account,
		Catalog:           catalog.Default(),
		Mode:              mode,
	}
}

func loaded(mode string) storefront.Snapshot {
	s := connected(mode)
	s.Loaded = true
	s.Prices = catalog.PriceMap{}
	s.Owned = catalog.OwnershipMap{}
	for _, id := range s.Catalog.IDs() {
		s.Prices[id] = new(big.Int).Mul(big.NewInt(int64(id)), big.NewInt(250_000_000_000_000_000))
		s.Owned[id] = false
	}
	return s
}

func TestRender_Disconnected(t *testing.T) {
	t.Parallel()
	m := view.Render(storefront.Snapshot{ProviderAvailable: true, Catalog: catalog.Default()})
	assert.False(t, m.Connected)
	assert.Empty(t, m.Cards)
	assert.Empty(t, m.AccountShort)
	assert.Equal(t, view.Title, m.Title)
}

func TestRender_PlaceholdersBeforeFirstRound(t *testing.T) {
	t.Parallel()
	m := view.Render(connected(config.PurchaseSingle))

	assert.Equal(t, "0xABCD...1234", m.AccountShort)
	assert.True(t, m.Loading)
	require.Len(t, m.Cards, 5)
	for i, c := range m.Cards {
		assert.Equal(t, uint64(i+1), c.ID)
		assert.Equal(t, view.LoadingLabel, c.PriceDisplay)
		assert.False(t, c.CanBuy)
	}
	assert.Equal(t, "Buy Course 1", m.Cards[0].Action)
}

func TestRender_PricesAndOwnership(t *testing.T) {
	t.Parallel()
	s := loaded(config.PurchaseSingle)
	s.Owned[2] = true

	m := view.Render(s)
	assert.False(t, m.Loading)
	require.Len(t, m.Cards, 5)

	assert.Equal(t, "0.25 ETH", m.Cards[0].PriceDisplay)
	assert.Equal(t, "250000000000000000", m.Cards[0].PriceWei)
	assert.True(t, m.Cards[0].CanBuy)

	owned := m.Cards[1]
	assert.True(t, owned.Owned)
	assert.False(t, owned.CanBuy)
	assert.Equal(t, view.OwnedLabel, owned.Action)

	assert.Equal(t, "1 ETH", m.Cards[3].PriceDisplay)
	assert.Equal(t, "Buy Course 4", m.Cards[3].Action)
}

func TestRender_InFlight(t *testing.T) {
	t.Parallel()

	t.Run("single mode disables every card", func(t *testing.T) {
		t.Parallel()
		s := loaded(config.PurchaseSingle)
		s.Owned[1] = true
		s.Request.InFlight = []catalog.ItemID{3}
		s.Busy = true

		m := view.Render(s)
		assert.Equal(t, view.OwnedLabel, m.Cards[0].Action)
		for _, c := range m.Cards[1:] {
			assert.False(t, c.CanBuy, "course %d", c.ID)
			assert.Equal(t, view.ProcessingLabel, c.Action)
		}
		assert.True(t, m.Cards[2].Processing)
		assert.False(t, m.Cards[1].Processing)
	})

	t.Run("single mode stays disabled for a purchase by another account", func(t *testing.T) {
		t.Parallel()
		s := loaded(config.PurchaseSingle)
		s.Busy = true

		for _, c := range view.Render(s).Cards {
			assert.False(t, c.CanBuy, "course %d", c.ID)
			assert.False(t, c.Processing, "course %d", c.ID)
			assert.Equal(t, view.ProcessingLabel, c.Action)
		}
	})

	t.Run("per item mode disables only the pending card", func(t *testing.T) {
		t.Parallel()
		s := loaded(config.PurchasePerItem)
		s.Request.InFlight = []catalog.ItemID{3}
		s.Busy = true

		m := view.Render(s)
		assert.Equal(t, view.ProcessingLabel, m.Cards[2].Action)
		assert.False(t, m.Cards[2].CanBuy)
		assert.True(t, m.Cards[1].CanBuy)
		assert.Equal(t, "Buy Course 2", m.Cards[1].Action)
	})
}

func TestRender_Banners(t *testing.T) {
	t.Parallel()
	s := loaded(config.PurchaseSingle)
	s.Request.LastError = "Failed to purchase course 2: request rejected by user"
	s.Request.LastSuccess = "Successfully purchased course 3!"

	m := view.Render(s)
	assert.Equal(t, s.Request.LastError, m.Error)
	assert.Equal(t, s.Request.LastSuccess, m.Success)
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	t.Run("connected", func(t *testing.T) {
		t.Parallel()
		s := loaded(config.PurchaseSingle)
		s.Owned[5] = true
		s.Request.LastSuccess = "Successfully purchased course 5!"

		var buf bytes.Buffer
		require.NoError(t, view.WriteText(&buf, view.Render(s)))
		out := buf.String()
		assert.Contains(t, out, "Connected Account: 0xABCD...1234")
		assert.Contains(t, out, "ID  COURSE")
		assert.Contains(t, out, "Buy Course 1")
		assert.Contains(t, out, "1.25 ETH  Owned")
		assert.Contains(t, out, "Successfully purchased course 5!")
	})

	t.Run("disconnected", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, view.WriteText(&buf, view.Render(storefront.Snapshot{ProviderAvailable: true})))
		assert.Contains(t, buf.String(), view.ConnectLabel)
		assert.NotContains(t, buf.String(), "COURSE")
	})

	t.Run("no wallet", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		m := view.Render(storefront.Snapshot{Request: storefront.RequestState{LastError: "Failed to connect wallet: no wallet provider available"}})
		require.NoError(t, view.WriteText(&buf, m))
		assert.Contains(t, buf.String(), "skillmint wallet create")
		assert.Contains(t, buf.String(), "Failed to connect wallet")
	})
}

func writeHTML(w io.Writer, m view.Model) error {
	tmpl, err := view.Templates()
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, view.PageTemplate, m)
}

func TestPageTemplate(t *testing.T) {
	t.Parallel()
	s := loaded(config.PurchaseSingle)
	s.Owned[2] = true
	s.Request.LastError = "<script>alert(1)</script>"

	var buf bytes.Buffer
	require.NoError(t, writeHTML(&buf, view.Render(s)))
	page := buf.String()

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "0xABCD...1234")
	assert.Contains(t, page, `data-post="/api/purchase/1"`)
	assert.Contains(t, page, "Buy Course 1")
	assert.Contains(t, page, "Owned")
	assert.NotContains(t, page, "<script>alert(1)</script>")
}

func TestPageTemplate_Disconnected(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, writeHTML(&buf, view.Render(storefront.Snapshot{ProviderAvailable: true})))
	assert.Contains(t, buf.String(), `data-post="/api/connect"`)
	assert.Contains(t, buf.String(), "Connect Wallet")
}
