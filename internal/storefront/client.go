// Package storefront is the session-owning store client: it connects the
// wallet, keeps prices and ownership for the current identity, runs
// purchases and exposes immutable snapshots for rendering.
package storefront

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/chain"
	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/metrics"
	"github.com/mrz1836/skillmint/internal/notify"
	"github.com/mrz1836/skillmint/internal/purchase"
	"github.com/mrz1836/skillmint/internal/session"
	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// errNoSwitcher indicates the wallet cannot change accounts on request.
var errNoSwitcher = errors.New("wallet does not support account switching")

// Deps are the collaborators a Client is built from.
type Deps struct {
	Provider wallet.Provider // nil when no wallet is installed
	Backend  chain.Backend
	ABI      abi.ABI
	Metrics  *metrics.Metrics
	Bus      *notify.Bus
	Logger   *zap.Logger
}

// Client is the storefront state machine. All methods are safe for
// concurrent use.
type Client struct {
	catalog  catalog.Catalog
	contract common.Address
	maxValue *big.Int
	gasLimit uint64
	poll     time.Duration

	sess    *session.Manager
	guard   *purchase.Guard
	bus     *notify.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	identity    common.Address
	epoch       uint64
	prices      catalog.PriceMap
	owned       catalog.OwnershipMap
	loadedEpoch uint64
	refreshing  int
	lastError   string
	lastSuccess string
	successItem catalog.ItemID
	pending     map[catalog.ItemID]uint64   // item to the epoch it was bought under
	confirmed   map[catalog.ItemID]struct{} // purchases confirmed under the current epoch
}

// NewClient builds a disconnected client from cfg.
func NewClient(cfg *config.Config, deps Deps) (*Client, error) {
	address, err := chain.ParseAddress(cfg.Contract.Address)
	if err != nil {
		return nil, err
	}

	var maxValue *big.Int
	if cfg.Purchase.MaxValue != "" {
		if maxValue, err = chain.ParseETH(cfg.Purchase.MaxValue); err != nil {
			return nil, storeerr.WithDetails(storeerr.ErrConfigInvalid, map[string]string{
				"field": "purchase.max_value",
				"value": cfg.Purchase.MaxValue,
			})
		}
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Bus == nil {
		deps.Bus = notify.NewBus(deps.Metrics, deps.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		catalog:   catalog.FromConfig(cfg.Catalog.Items),
		contract:  address,
		maxValue:  maxValue,
		gasLimit:  cfg.Purchase.GasLimit,
		poll:      cfg.Purchase.ConfirmPollInterval,
		guard:     purchase.NewGuard(cfg.Purchase.Mode),
		bus:       deps.Bus,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[catalog.ItemID]uint64),
		confirmed: make(map[catalog.ItemID]struct{}),
	}
	c.sess = session.New(session.Options{
		Provider: deps.Provider,
		Backend:  deps.Backend,
		Contract: address,
		ABI:      deps.ABI,
		ChainID:  cfg.Network.ChainID,
		Listener: c.onSession,
		Logger:   deps.Logger,
	})
	return c, nil
}

// Start subscribes to wallet account changes.
func (c *Client) Start() {
	c.sess.Start()
}

// Close unsubscribes from the wallet and waits for background work.
// Confirmation waits in progress are abandoned locally; the submitted
// transactions themselves are unaffected.
func (c *Client) Close() {
	c.sess.Close()
	c.cancel()
	c.wg.Wait()
}

// Wait blocks until every background refresh and purchase has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Notifications subscribes to transient storefront messages.
func (c *Client) Notifications(buffer int) (<-chan notify.Notification, func()) {
	return c.bus.Subscribe(buffer)
}

// Catalog returns the offered courses.
func (c *Client) Catalog() catalog.Catalog {
	return c.catalog
}

// Connect asks the wallet for access. Success triggers a background refresh.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.sess.Connect(ctx); err != nil {
		c.mu.Lock()
		c.lastError = "Failed to connect wallet: " + err.Error()
		c.mu.Unlock()
		c.bus.Publish(notify.Notification{Kind: notify.KindError, Message: "Failed to connect wallet: " + err.Error()})
		return err
	}
	return nil
}

// SelectAccount asks the wallet to make account index active.
func (c *Client) SelectAccount(ctx context.Context, index int) error {
	sw, ok := c.sess.Provider().(wallet.Switcher)
	if !ok {
		return storeerr.WithCause(storeerr.ErrInvalidInput, errNoSwitcher)
	}
	return sw.Select(ctx, index)
}

// LockWallet asks the wallet to lock, which disconnects the storefront.
func (c *Client) LockWallet() error {
	sw, ok := c.sess.Provider().(wallet.Switcher)
	if !ok {
		return storeerr.WithCause(storeerr.ErrInvalidInput, errNoSwitcher)
	}
	sw.Lock()
	return nil
}

// onSession applies session transitions. Events from an older epoch are
// ignored; an identity change discards everything derived from the old one.
func (c *Client) onSession(ev session.Event) {
	c.mu.Lock()
	if ev.Epoch < c.epoch {
		c.mu.Unlock()
		return
	}
	if ev.Epoch != c.epoch {
		c.epoch = ev.Epoch
		c.identity = ev.Identity
		c.prices, c.owned = nil, nil
		clear(c.confirmed)
		c.lastError, c.lastSuccess, c.successItem = "", "", 0
	}
	c.mu.Unlock()

	n := notify.Notification{Account: ev.Identity.Hex()}
	switch ev.Kind {
	case session.EventConnected:
		n.Kind, n.Message = notify.KindConnected, "Wallet connected: "+Abbreviate(ev.Identity)
	case session.EventAccountChanged:
		n.Kind, n.Message = notify.KindAccountChanged, "Account changed to "+Abbreviate(ev.Identity)
	case session.EventDisconnected:
		n.Kind, n.Message, n.Account = notify.KindDisconnected, "Wallet disconnected", ""
	}
	c.bus.Publish(n)

	if ev.Connected() {
		c.refreshInBackground()
	}
}

func (c *Client) refreshInBackground() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Refresh(c.ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Debug("background refresh failed", zap.Error(err))
		}
	}()
}

// Abbreviate renders an address as its first six and last four characters.
func Abbreviate(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
