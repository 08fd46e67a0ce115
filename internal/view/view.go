// Package view projects storefront snapshots into display models for the
// terminal and the browser.
package view

import (
	"fmt"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/chain"
	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/storefront"
)

// Display labels.
const (
	LoadingLabel    = "Loading..."
	OwnedLabel      = "Owned"
	ProcessingLabel = "Processing..."
	ConnectLabel    = "Connect Wallet"
	Title           = "SkillMint Course Store"
)

// Card is one catalog item as displayed.
type Card struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	PriceDisplay string `json:"price"`
	PriceWei     string `json:"price_wei,omitempty"`
	Owned        bool   `json:"owned"`
	Processing   bool   `json:"processing"`
	CanBuy       bool   `json:"can_buy"`
	Action       string `json:"action"`
}

// Model is everything a storefront page shows.
type Model struct {
	Title             string `json:"title"`
	ProviderAvailable bool   `json:"provider_available"`
	Connected         bool   `json:"connected"`
	Account           string `json:"account,omitempty"`
	AccountShort      string `json:"account_short,omitempty"`
	Mode              string `json:"mode"`
	Loading           bool   `json:"loading"`
	Cards             []Card `json:"cards"`
	Error             string `json:"error,omitempty"`
	Success           string `json:"success,omitempty"`
}

// Render builds the display model for s. It has no side effects.
func Render(s storefront.Snapshot) Model {
	m := Model{
		Title:             Title,
		ProviderAvailable: s.ProviderAvailable,
		Connected:         s.Connected,
		Mode:              s.Mode,
		Cards:             []Card{},
		Error:             s.Request.LastError,
		Success:           s.Request.LastSuccess,
	}
	if !s.Connected {
		return m
	}

	m.Account = s.Identity.Hex()
	m.AccountShort = storefront.Abbreviate(s.Identity)
	m.Loading = !s.Loaded || s.Refreshing
	busy := s.Mode != config.PurchasePerItem && s.Busy

	m.Cards = make([]Card, 0, len(s.Catalog))
	for _, item := range s.Catalog {
		m.Cards = append(m.Cards, card(item, s, busy))
	}
	return m
}

func card(item catalog.Item, s storefront.Snapshot, busy bool) Card {
	c := Card{
		ID:           uint64(item.ID),
		Title:        item.Title,
		PriceDisplay: LoadingLabel,
		Owned:        s.Owned[item.ID],
		Processing:   s.Request.Processing(item.ID),
	}
	price, known := s.Prices[item.ID]
	if known {
		c.PriceDisplay = chain.FormatETH(price) + " ETH"
		c.PriceWei = price.String()
	}

	switch {
	case c.Owned:
		c.Action = OwnedLabel
	case c.Processing || busy:
		c.Action = ProcessingLabel
	default:
		c.Action = fmt.Sprintf("Buy Course %d", item.ID)
		c.CanBuy = known
	}
	return c
}
