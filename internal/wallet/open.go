package wallet

import (
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/config"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Open builds the provider selected by cfg.Wallet.Type. Keystore providers
// must be closed by the caller.
func Open(cfg *config.Config, prompter Prompter, logger *zap.Logger) (Provider, error) {
	switch cfg.Wallet.Type {
	case config.WalletHD:
		p, err := NewHDProvider(HDOptions{
			Path:     cfg.MnemonicPath(),
			Accounts: cfg.Wallet.Accounts,
			Prompter: prompter,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.WalletKeystore:
		p, err := NewKeystoreProvider(KeystoreOptions{
			Dir:      cfg.KeystorePath(),
			Prompter: prompter,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, storeerr.WithDetails(storeerr.ErrConfigInvalid, map[string]string{"wallet.type": cfg.Wallet.Type})
	}
}
