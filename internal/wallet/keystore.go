package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/fileutil"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// KeystoreOptions configures a KeystoreProvider.
type KeystoreOptions struct {
	Dir      string
	Prompter Prompter
	Logger   *zap.Logger

	// ScryptN and ScryptP default to the standard keystore cost.
	ScryptN int
	ScryptP int
}

// KeystoreProvider serves accounts from a go-ethereum keystore directory.
// Only the active account is unlocked. Key files appearing or disappearing
// in the directory are reported as account changes.
type KeystoreProvider struct {
	mu       sync.Mutex
	ks       *keystore.KeyStore
	opts     KeystoreOptions
	active   common.Address
	unlocked bool
	subs     subscribers

	watch event.Subscription
	done  chan struct{}
}

var (
	_ Provider = (*KeystoreProvider)(nil)
	_ Switcher = (*KeystoreProvider)(nil)
)

// NewKeystoreProvider opens opts.Dir. A missing directory yields ErrProviderUnavailable.
func NewKeystoreProvider(opts KeystoreOptions) (*KeystoreProvider, error) {
	if !fileutil.Exists(opts.Dir) {
		return nil, storeerr.WithDetails(storeerr.ErrProviderUnavailable, map[string]string{"path": opts.Dir})
	}
	if opts.ScryptN == 0 {
		opts.ScryptN, opts.ScryptP = keystore.StandardScryptN, keystore.StandardScryptP
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	p := &KeystoreProvider{
		ks:   keystore.NewKeyStore(opts.Dir, opts.ScryptN, opts.ScryptP),
		opts: opts,
		done: make(chan struct{}),
	}

	events := make(chan accounts.WalletEvent, 8)
	p.watch = p.ks.Subscribe(events)
	go p.forward(events)
	return p, nil
}

// KeyStore exposes the underlying keystore for account management.
func (p *KeystoreProvider) KeyStore() *keystore.KeyStore { return p.ks }

// Close stops watching the keystore directory and locks the active account.
func (p *KeystoreProvider) Close() {
	p.watch.Unsubscribe()
	close(p.done)
	p.Lock()
}

func (p *KeystoreProvider) forward(events <-chan accounts.WalletEvent) {
	for {
		select {
		case <-p.done:
			return
		case ev := <-events:
			if ev.Kind == accounts.WalletOpened {
				continue
			}
			p.opts.Logger.Debug("keystore changed", zap.String("url", ev.Wallet.URL().String()))
			p.reconcile()
		}
	}
}

// reconcile drops the session when the active key file vanished and
// otherwise reports the refreshed list.
func (p *KeystoreProvider) reconcile() {
	p.mu.Lock()
	if !p.unlocked {
		p.mu.Unlock()
		return
	}
	if !p.ks.HasAddress(p.active) {
		p.unlocked = false
		p.active = common.Address{}
		p.mu.Unlock()
		p.subs.emit(nil)
		return
	}
	list := p.listLocked()
	p.mu.Unlock()
	p.subs.emit(list)
}

func (p *KeystoreProvider) listLocked() []common.Address {
	all := p.ks.Accounts()
	addrs := make([]common.Address, 0, len(all))
	active := 0
	for i, a := range all {
		if a.Address == p.active {
			active = i
		}
		addrs = append(addrs, a.Address)
	}
	return activeFirst(addrs, active)
}

// RequestAccounts unlocks the first key with the user's passphrase.
// An empty keystore returns no accounts.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := p.ks.Accounts()
	if len(all) == 0 {
		return nil, nil
	}
	if !p.unlocked {
		if err := p.unlockLocked(ctx, all[0]); err != nil {
			return nil, err
		}
	}
	return p.listLocked(), nil
}

func (p *KeystoreProvider) unlockLocked(ctx context.Context, account accounts.Account) error {
	if p.opts.Prompter == nil {
		return storeerr.WithCause(storeerr.ErrProviderError, errNoPrompter)
	}
	passphrase, err := p.opts.Prompter.Passphrase(ctx, fmt.Sprintf("Passphrase for %s", account.Address.Hex()))
	if err != nil {
		return err
	}
	if err := p.ks.Unlock(account, passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return storeerr.WithCause(storeerr.ErrDecryptionFailed, err)
		}
		return storeerr.WithCause(storeerr.ErrProviderError, err)
	}
	p.active, p.unlocked = account.Address, true
	p.opts.Logger.Info("keystore account unlocked", zap.String("account", account.Address.Hex()))
	return nil
}

// Accounts returns the key addresses, active first, or nil while locked.
func (p *KeystoreProvider) Accounts() []common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unlocked {
		return nil
	}
	return p.listLocked()
}

// SignTx asks for approval and signs with the unlocked active key.
func (p *KeystoreProvider) SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	p.mu.Lock()
	ok := p.unlocked && p.active == account
	p.mu.Unlock()
	if !ok {
		return nil, storeerr.WithCause(storeerr.ErrProviderError, fmt.Errorf("%w: %s", errUnknownAccount, account.Hex()))
	}

	if err := approve(ctx, p.opts.Prompter, account, tx, chainID); err != nil {
		return nil, err
	}
	signed, err := p.ks.SignTx(accounts.Account{Address: account}, tx, chainID)
	if err != nil {
		return nil, storeerr.WithCause(storeerr.ErrProviderError, err)
	}
	return signed, nil
}

// Subscribe registers an account-change handler.
func (p *KeystoreProvider) Subscribe(handler AccountsHandler) func() {
	return p.subs.add(handler)
}

// Select unlocks key index (prompting for its passphrase) and makes it active.
func (p *KeystoreProvider) Select(ctx context.Context, index int) error {
	p.mu.Lock()
	all := p.ks.Accounts()
	if index < 0 || index >= len(all) {
		p.mu.Unlock()
		return storeerr.WithDetails(storeerr.ErrInvalidInput, map[string]string{
			"index": fmt.Sprint(index),
			"keys":  fmt.Sprint(len(all)),
		})
	}
	target := all[index]
	if p.unlocked && p.active == target.Address {
		p.mu.Unlock()
		return nil
	}

	previous, wasUnlocked := p.active, p.unlocked
	if err := p.unlockLocked(ctx, target); err != nil {
		p.mu.Unlock()
		return err
	}
	if wasUnlocked {
		_ = p.ks.Lock(previous)
	}
	list := p.listLocked()
	p.mu.Unlock()

	p.subs.emit(list)
	return nil
}

// Lock relocks the active key and reports an empty account list.
func (p *KeystoreProvider) Lock() {
	p.mu.Lock()
	wasUnlocked, active := p.unlocked, p.active
	p.unlocked, p.active = false, common.Address{}
	p.mu.Unlock()

	if wasUnlocked {
		_ = p.ks.Lock(active)
		p.subs.emit(nil)
	}
}
