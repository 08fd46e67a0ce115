package cli

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/chain"
	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/contract"
	"github.com/mrz1836/skillmint/internal/metrics"
	"github.com/mrz1836/skillmint/internal/notify"
	"github.com/mrz1836/skillmint/internal/storefront"
	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Construction hooks replaced in tests.
//
//nolint:gochecknoglobals // replaced in tests
var (
	dialBackend = func(ctx context.Context, c *config.Config) (chain.Backend, error) {
		return chain.Dial(ctx, c.Network.RPC)
	}
	openProvider = func(c *config.Config, p wallet.Prompter, l *zap.Logger) (wallet.Provider, error) {
		return wallet.Open(c, p, l)
	}
)

// storeEnv bundles a started storefront client with what must be released
// after it.
type storeEnv struct {
	client   *storefront.Client
	metrics  *metrics.Metrics
	provider wallet.Provider
}

// close stops the client and releases the wallet.
func (e *storeEnv) close() {
	e.client.Close()
	if c, ok := e.provider.(interface{ Close() }); ok {
		c.Close()
	}
}

// prompter answers wallet prompts for the current invocation.
func prompter() wallet.Prompter {
	return terminalPrompter{secret: cfg.Wallet.Passphrase, autoApprove: cfg.Wallet.AutoApprove}
}

// newStore validates the configuration, dials the node, opens the wallet
// and starts a storefront client. A missing wallet leaves the client
// without a provider so it can still render its disconnected state.
func newStore(ctx context.Context) (*storeEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parsed, err := loadABI(cfg)
	if err != nil {
		return nil, err
	}

	node, err := dialBackend(ctx, cfg)
	if err != nil {
		return nil, storeerr.WithSuggestion(storeerr.WithCause(storeerr.ErrProviderUnavailable, err),
			"check network.rpc or set "+config.EnvETHRPC)
	}

	m := metrics.New()
	limiter := chain.NewRateLimiter(cfg.Network.RequestsPerSecond, cfg.Network.Burst)
	backend := chain.NewInstrumentedBackend(node, config.SanitizeURL(cfg.Network.RPC), limiter, m, logger)

	provider, err := openProvider(cfg, prompter(), logger)
	switch {
	case err == nil:
	case errors.Is(err, storeerr.ErrWalletNotFound), errors.Is(err, storeerr.ErrProviderUnavailable):
		logger.Debug("no wallet available", zap.Error(err))
		provider = nil
	default:
		return nil, err
	}

	client, err := storefront.NewClient(cfg, storefront.Deps{
		Provider: provider,
		Backend:  backend,
		ABI:      parsed,
		Metrics:  m,
		Bus:      notify.NewBus(m, logger),
		Logger:   logger,
	})
	if err != nil {
		if c, ok := provider.(interface{ Close() }); ok {
			c.Close()
		}
		return nil, err
	}
	client.Start()

	return &storeEnv{client: client, metrics: m, provider: provider}, nil
}

func loadABI(c *config.Config) (abi.ABI, error) {
	if c.Contract.ABIFile != "" {
		return contract.LoadABI(config.ExpandPath(c.Contract.ABIFile))
	}
	return contract.DefaultABI()
}
