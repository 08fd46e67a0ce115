// Package wallettest provides a scriptable in-memory wallet provider for tests.
package wallettest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Provider holds freshly generated keys and answers requests from its fields.
// It implements wallet.Provider and wallet.Switcher.
type Provider struct {
	mu         sync.Mutex
	keys       []*ecdsa.PrivateKey
	addrs      []common.Address
	active     int
	granted    bool
	requestErr error
	decline    bool
	signed     int
	nextID     int
	handlers   map[int]wallet.AccountsHandler
}

var (
	_ wallet.Provider = (*Provider)(nil)
	_ wallet.Switcher = (*Provider)(nil)
)

// New creates a provider with n accounts that approves every signature.
func New(n int) *Provider {
	p := &Provider{handlers: make(map[int]wallet.AccountsHandler)}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			panic(err)
		}
		p.keys = append(p.keys, key)
		p.addrs = append(p.addrs, crypto.PubkeyToAddress(key.PublicKey))
	}
	return p
}

// Address returns account i.
func (p *Provider) Address(i int) common.Address {
	return p.addrs[i]
}

// FailRequests makes RequestAccounts return err. nil restores it.
func (p *Provider) FailRequests(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestErr = err
}

// DeclineSigning makes SignTx return ErrUserRejected.
func (p *Provider) DeclineSigning(decline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decline = decline
}

// Signed returns the number of transactions signed.
func (p *Provider) Signed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signed
}

// Subscribers returns the number of live account-change handlers.
func (p *Provider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

// RequestAccounts grants access to every account, active first.
func (p *Provider) RequestAccounts(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	p.granted = true
	return p.listLocked(), nil
}

// Accounts returns the granted accounts.
func (p *Provider) Accounts() []common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.granted {
		return nil
	}
	return p.listLocked()
}

func (p *Provider) listLocked() []common.Address {
	if len(p.addrs) == 0 {
		return nil
	}
	out := []common.Address{p.addrs[p.active]}
	for i, a := range p.addrs {
		if i != p.active {
			out = append(out, a)
		}
	}
	return out
}

// SignTx signs with the key for account unless signing is declined.
func (p *Provider) SignTx(_ context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.decline {
		return nil, storeerr.ErrUserRejected
	}
	for i, a := range p.addrs {
		if a == account {
			p.signed++
			return types.SignTx(tx, types.LatestSignerForChainID(chainID), p.keys[i])
		}
	}
	return nil, storeerr.ErrProviderError
}

// Subscribe registers handler.
func (p *Provider) Subscribe(handler wallet.AccountsHandler) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

// Emit delivers accounts to every handler as an account change.
func (p *Provider) Emit(accounts []common.Address) {
	p.mu.Lock()
	handlers := make([]wallet.AccountsHandler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(accounts)
	}
}

// Select makes account index active and emits the change.
func (p *Provider) Select(_ context.Context, index int) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.addrs) {
		p.mu.Unlock()
		return storeerr.ErrInvalidInput
	}
	p.active = index
	list := p.listLocked()
	p.mu.Unlock()

	p.Emit(list)
	return nil
}

// Lock revokes access and emits an empty account list.
func (p *Provider) Lock() {
	p.mu.Lock()
	p.granted = false
	p.mu.Unlock()
	p.Emit(nil)
}
