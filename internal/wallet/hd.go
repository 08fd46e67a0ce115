package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/fileutil"
	"github.com/mrz1836/skillmint/internal/secret"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// ethCoinType is the SLIP-44 coin type for Ether.
const ethCoinType = 60

var (
	errNoPrompter     = errors.New("no prompter configured")
	errUnknownAccount = errors.New("account not managed by this wallet")
)

// HDOptions configures an HDProvider.
type HDOptions struct {
	Path     string // age-encrypted mnemonic file
	Accounts int    // number of derived accounts offered
	Prompter Prompter
	Logger   *zap.Logger
}

// HDProvider derives accounts m/44'/60'/0'/0/i from an encrypted mnemonic.
// Keys stay in memory only between a granted RequestAccounts and Lock.
type HDProvider struct {
	mu       sync.Mutex
	opts     HDOptions
	keys     []*ecdsa.PrivateKey
	addrs    []common.Address
	active   int
	unlocked bool
	subs     subscribers
}

var (
	_ Provider = (*HDProvider)(nil)
	_ Switcher = (*HDProvider)(nil)
)

// NewHDProvider opens the wallet at opts.Path. A missing file means no
// wallet is installed and yields ErrProviderUnavailable.
func NewHDProvider(opts HDOptions) (*HDProvider, error) {
	if !fileutil.Exists(opts.Path) {
		return nil, storeerr.WithDetails(storeerr.ErrProviderUnavailable, map[string]string{"path": opts.Path})
	}
	if opts.Accounts < 1 {
		opts.Accounts = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &HDProvider{opts: opts}, nil
}

// RequestAccounts unlocks the wallet with the user's passphrase on first use.
func (p *HDProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.unlocked {
		if err := p.unlockLocked(ctx); err != nil {
			return nil, err
		}
	}
	return activeFirst(p.addrs, p.active), nil
}

func (p *HDProvider) unlockLocked(ctx context.Context) error {
	if p.opts.Prompter == nil {
		return storeerr.WithCause(storeerr.ErrProviderError, errNoPrompter)
	}
	passphrase, err := p.opts.Prompter.Passphrase(ctx, "Wallet passphrase")
	if err != nil {
		return err
	}

	mnemonic, err := LoadMnemonic(p.opts.Path, passphrase)
	if err != nil {
		return err
	}
	defer mnemonic.Wipe()

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic.String(), "")
	if err != nil {
		return storeerr.WithCause(storeerr.ErrInvalidMnemonic, err)
	}
	seedBuf := secret.NewBuffer(seed)
	defer seedBuf.Wipe()

	keys := make([]*ecdsa.PrivateKey, 0, p.opts.Accounts)
	addrs := make([]common.Address, 0, p.opts.Accounts)
	for i := 0; i < p.opts.Accounts; i++ {
		key, err := DeriveKey(seedBuf.Bytes(), uint32(i)) //nolint:gosec // bounded by config
		if err != nil {
			return storeerr.WithCause(storeerr.ErrProviderError, err)
		}
		keys = append(keys, key)
		addrs = append(addrs, crypto.PubkeyToAddress(key.PublicKey))
	}

	p.keys, p.addrs, p.unlocked = keys, addrs, true
	if p.active >= len(addrs) {
		p.active = 0
	}
	p.opts.Logger.Info("hd wallet unlocked", zap.Int("accounts", len(addrs)))
	return nil
}

// Accounts returns the granted accounts, active first, or nil while locked.
func (p *HDProvider) Accounts() []common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unlocked {
		return nil
	}
	return activeFirst(p.addrs, p.active)
}

// SignTx asks for approval, then signs with the key derived for account.
func (p *HDProvider) SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	p.mu.Lock()
	known := p.keyLocked(account) != nil
	p.mu.Unlock()
	if !known {
		return nil, storeerr.WithCause(storeerr.ErrProviderError, fmt.Errorf("%w: %s", errUnknownAccount, account.Hex()))
	}
	if err := approve(ctx, p.opts.Prompter, account, tx, chainID); err != nil {
		return nil, err
	}

	// Lock zeroes keys in place, so signing happens under the mutex.
	p.mu.Lock()
	defer p.mu.Unlock()
	key := p.keyLocked(account)
	if key == nil {
		return nil, storeerr.WithCause(storeerr.ErrProviderError, fmt.Errorf("%w: %s", errUnknownAccount, account.Hex()))
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
}

func (p *HDProvider) keyLocked(account common.Address) *ecdsa.PrivateKey {
	if !p.unlocked {
		return nil
	}
	for i, a := range p.addrs {
		if a == account {
			return p.keys[i]
		}
	}
	return nil
}

// Subscribe registers an account-change handler.
func (p *HDProvider) Subscribe(handler AccountsHandler) func() {
	return p.subs.add(handler)
}

// Select makes derived account index the active one and notifies subscribers.
func (p *HDProvider) Select(_ context.Context, index int) error {
	p.mu.Lock()
	if !p.unlocked {
		p.mu.Unlock()
		return storeerr.ErrNotConnected
	}
	if index < 0 || index >= len(p.addrs) {
		p.mu.Unlock()
		return storeerr.WithDetails(storeerr.ErrInvalidInput, map[string]string{
			"index": fmt.Sprint(index),
			"max":   fmt.Sprint(len(p.addrs) - 1),
		})
	}
	changed := p.active != index
	p.active = index
	accounts := activeFirst(p.addrs, p.active)
	p.mu.Unlock()

	if changed {
		p.subs.emit(accounts)
	}
	return nil
}

// Lock forgets the derived keys and reports an empty account list.
func (p *HDProvider) Lock() {
	p.mu.Lock()
	wasUnlocked := p.unlocked
	for _, k := range p.keys {
		k.D.SetInt64(0)
	}
	p.keys, p.addrs, p.unlocked = nil, nil, false
	p.mu.Unlock()

	if wasUnlocked {
		p.opts.Logger.Info("hd wallet locked")
		p.subs.emit(nil)
	}
}

// DeriveKey derives the Ethereum key at m/44'/60'/0'/0/index.
func DeriveKey(seed []byte, index uint32) (*ecdsa.PrivateKey, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + ethCoinType,
		bip32.FirstHardenedChild,
		0,
		index,
	}
	key := master
	for _, child := range path {
		if key, err = key.NewChildKey(child); err != nil {
			return nil, fmt.Errorf("derive child %d: %w", child, err)
		}
	}
	return crypto.ToECDSA(key.Key)
}

// CreateHD generates a mnemonic, seals it under passphrase at path and
// returns the phrase for the user to back up.
func CreateHD(path, passphrase string, words int) (string, error) {
	mnemonic, err := GenerateMnemonic(words)
	if err != nil {
		return "", err
	}
	if err := SaveMnemonic(path, mnemonic, passphrase); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// RestoreHD validates mnemonic and seals it under passphrase at path.
func RestoreHD(path, mnemonic, passphrase string) error {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return err
	}
	return SaveMnemonic(path, NormalizeMnemonic(mnemonic), passphrase)
}

// SaveMnemonic seals mnemonic to a new file. An existing wallet is never replaced.
func SaveMnemonic(path, mnemonic, passphrase string) error {
	if passphrase == "" {
		return storeerr.WithDetails(storeerr.ErrInvalidInput, map[string]string{"passphrase": "must not be empty"})
	}
	sealed, err := secret.Seal([]byte(mnemonic), passphrase)
	if err != nil {
		return err
	}
	if err := fileutil.WriteNew(path, sealed, fileutil.PrivateFile); err != nil {
		if errors.Is(err, fileutil.ErrExists) {
			return storeerr.WithDetails(storeerr.ErrWalletExists, map[string]string{"path": path})
		}
		return err
	}
	return nil
}

// LoadMnemonic opens the sealed mnemonic at path.
func LoadMnemonic(path, passphrase string) (*secret.Buffer, error) {
	// #nosec G304 -- wallet path comes from user config
	sealed, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storeerr.WithDetails(storeerr.ErrWalletNotFound, map[string]string{"path": path})
		}
		return nil, err
	}
	buf, err := secret.Open(sealed, passphrase)
	if err != nil {
		return nil, storeerr.WithCause(storeerr.ErrDecryptionFailed, err)
	}
	return buf, nil
}
