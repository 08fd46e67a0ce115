// Package session owns the link between the wallet's active account and a
// contract binding for that account.
package session

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/chain"
	"github.com/mrz1836/skillmint/internal/contract"
	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// EventKind identifies a session transition.
type EventKind int

// Session transitions.
const (
	EventConnected EventKind = iota + 1
	EventAccountChanged
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventAccountChanged:
		return "account_changed"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// State is a consistent view of the session.
type State struct {
	Identity common.Address
	Binding  *contract.Binding
	Epoch    uint64
}

// Connected reports whether an identity is set.
func (s State) Connected() bool {
	return s.Binding != nil
}

// Event describes a transition and the state it produced.
type Event struct {
	Kind     EventKind
	Previous common.Address
	State
}

// Listener observes session transitions. It runs on the goroutine that
// caused the transition and must not call back into the Manager.
type Listener func(Event)

// Options configures a Manager.
type Options struct {
	Provider wallet.Provider // nil means no wallet is installed
	Backend  chain.Backend
	Contract common.Address
	ABI      abi.ABI

	// ChainID, when non-zero, must match the node's chain.
	ChainID int64

	Listener Listener
	Logger   *zap.Logger
}

// Manager tracks the active identity. Every identity change, including
// disconnect, advances the epoch so work started for an older identity can
// be recognized as stale.
type Manager struct {
	opts Options

	mu          sync.Mutex
	state       State
	chainID     *big.Int
	unsubscribe func()
}

// New creates a disconnected Manager.
func New(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Listener == nil {
		opts.Listener = func(Event) {}
	}
	return &Manager{opts: opts}
}

// errChainMismatch indicates the node serves a different chain than configured.
var errChainMismatch = errors.New("node chain id does not match configuration")

// Connect requests account access and binds the first account.
// On failure the current identity is left untouched.
func (m *Manager) Connect(ctx context.Context) (State, error) {
	if m.opts.Provider == nil {
		return State{}, storeerr.ErrProviderUnavailable
	}

	accounts, err := m.opts.Provider.RequestAccounts(ctx)
	if err != nil {
		m.opts.Logger.Error("wallet connect failed", zap.Error(err))
		return State{}, classify(err)
	}
	if len(accounts) == 0 {
		m.opts.Logger.Error("wallet returned no accounts")
		return State{}, storeerr.WithDetails(storeerr.ErrProviderUnavailable, map[string]string{"accounts": "0"})
	}

	chainID, err := m.resolveChainID(ctx)
	if err != nil {
		m.opts.Logger.Error("chain id lookup failed", zap.Error(err))
		return State{}, storeerr.WithCause(storeerr.ErrProviderError, err)
	}

	ev := m.adopt(accounts[0], chainID, EventConnected)
	m.opts.Logger.Info("wallet connected", zap.String("account", ev.Identity.Hex()), zap.Uint64("epoch", ev.Epoch))
	m.opts.Listener(ev)
	return ev.State, nil
}

func (m *Manager) resolveChainID(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	cached := m.chainID
	m.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	id, err := m.opts.Backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	if m.opts.ChainID != 0 && id.Int64() != m.opts.ChainID {
		return nil, storeerr.WithDetails(storeerr.WithCause(storeerr.ErrProviderError, errChainMismatch), map[string]string{
			"node":       id.String(),
			"configured": big.NewInt(m.opts.ChainID).String(),
		})
	}

	m.mu.Lock()
	m.chainID = id
	m.mu.Unlock()
	return id, nil
}

// adopt installs identity with a fresh binding. The epoch only advances
// when the identity actually changes.
func (m *Manager) adopt(identity common.Address, chainID *big.Int, kind EventKind) Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state
	if prev.Binding == nil || prev.Identity != identity {
		m.state.Epoch++
	}
	m.state.Identity = identity
	m.state.Binding = contract.Bind(m.opts.Contract, m.opts.ABI, m.opts.Backend, identity, m.opts.Provider, chainID)
	return Event{Kind: kind, Previous: prev.Identity, State: m.state}
}

// OnAccountsChanged applies a provider account-change notification.
func (m *Manager) OnAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		m.mu.Lock()
		if m.state.Binding == nil {
			m.mu.Unlock()
			return
		}
		prev := m.state.Identity
		m.state = State{Epoch: m.state.Epoch + 1}
		ev := Event{Kind: EventDisconnected, Previous: prev, State: m.state}
		m.mu.Unlock()

		m.opts.Logger.Info("wallet disconnected", zap.String("previous", prev.Hex()))
		m.opts.Listener(ev)
		return
	}

	m.mu.Lock()
	current, chainID := m.state, m.chainID
	m.mu.Unlock()
	if current.Binding != nil && current.Identity == accounts[0] {
		return
	}
	if chainID == nil {
		// Never connected: nothing is bound yet, so there is nothing to switch.
		m.opts.Logger.Debug("account change before connect ignored")
		return
	}

	ev := m.adopt(accounts[0], chainID, EventAccountChanged)
	m.opts.Logger.Info("wallet account changed",
		zap.String("previous", ev.Previous.Hex()),
		zap.String("account", ev.Identity.Hex()),
		zap.Uint64("epoch", ev.Epoch))
	m.opts.Listener(ev)
}

// Start subscribes to provider account changes. Repeated calls keep a
// single subscription.
func (m *Manager) Start() {
	if m.opts.Provider == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = m.opts.Provider.Subscribe(m.OnAccountsChanged)
}

// Close removes the subscription installed by Start.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Current returns the identity, binding and epoch atomically.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Provider returns the wallet provider, which may be nil.
func (m *Manager) Provider() wallet.Provider {
	return m.opts.Provider
}

// classify maps provider failures onto the connect error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, storeerr.ErrUserRejected), errors.Is(err, storeerr.ErrProviderUnavailable):
		return err
	case errors.Is(err, storeerr.ErrProviderError):
		return err
	default:
		return storeerr.WithCause(storeerr.ErrProviderError, err)
	}
}
