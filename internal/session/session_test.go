package session_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/chain/chaintest"
	"github.com/mrz1836/skillmint/internal/contract"
	"github.com/mrz1836/skillmint/internal/session"
	"github.com/mrz1836/skillmint/internal/wallet/wallettest"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

var (
	storeAddress = common.HexToAddress("0x390BdF96BE37813D2f078bbA98479545134151c6")
	errBroken    = errors.New("provider exploded")
)

type recorder struct {
	mu     sync.Mutex
	events []session.Event
}

func (r *recorder) listen(ev session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []session.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newManager(t *testing.T, provider *wallettest.Provider, chainID int64) (*session.Manager, *recorder) {
	t.Helper()
	parsed, err := contract.DefaultABI()
	require.NoError(t, err)

	rec := &recorder{}
	opts := session.Options{
		Backend:  chaintest.New(1337, parsed),
		Contract: storeAddress,
		ABI:      parsed,
		ChainID:  chainID,
		Listener: rec.listen,
	}
	if provider != nil {
		opts.Provider = provider
	}
	return session.New(opts), rec
}

func TestConnect_NoProvider(t *testing.T) {
	t.Parallel()
	m, rec := newManager(t, nil, 0)

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, storeerr.ErrProviderUnavailable)
	assert.False(t, m.Current().Connected())
	assert.Empty(t, rec.kinds())
}

func TestConnect_ZeroAccounts(t *testing.T) {
	t.Parallel()
	m, rec := newManager(t, wallettest.New(0), 0)

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, storeerr.ErrProviderUnavailable)
	assert.Equal(t, common.Address{}, m.Current().Identity)
	assert.Empty(t, rec.kinds())
}

func TestConnect_ErrorClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rejected", storeerr.ErrUserRejected, storeerr.ErrUserRejected},
		{"wrapped rejection", storeerr.Wrap(storeerr.ErrUserRejected, "passphrase prompt"), storeerr.ErrUserRejected},
		{"decryption", storeerr.ErrDecryptionFailed, storeerr.ErrProviderError},
		{"plain", errBroken, storeerr.ErrProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider := wallettest.New(1)
			provider.FailRequests(tt.err)
			m, _ := newManager(t, provider, 0)

			_, err := m.Connect(context.Background())
			require.ErrorIs(t, err, tt.want)
			assert.False(t, m.Current().Connected())
		})
	}
}

func TestConnect_ChainMismatch(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t, wallettest.New(1), 1)

	_, err := m.Connect(context.Background())
	require.ErrorIs(t, err, storeerr.ErrProviderError)
	assert.False(t, m.Current().Connected())
}

func TestConnect_BindsFirstAccount(t *testing.T) {
	t.Parallel()
	provider := wallettest.New(2)
	m, rec := newManager(t, provider, 1337)

	state, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, provider.Address(0), state.Identity)
	require.NotNil(t, state.Binding)
	assert.Equal(t, provider.Address(0), state.Binding.From())
	assert.Equal(t, storeAddress, state.Binding.Address())
	assert.Equal(t, 0, big.NewInt(1337).Cmp(state.Binding.ChainID()))
	assert.Equal(t, uint64(1), state.Epoch)
	assert.Equal(t, []session.EventKind{session.EventConnected}, rec.kinds())

	again, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.Epoch, again.Epoch, "same identity keeps the epoch")
}

func TestOnAccountsChanged(t *testing.T) {
	t.Parallel()
	provider := wallettest.New(2)
	m, rec := newManager(t, provider, 0)

	m.OnAccountsChanged([]common.Address{provider.Address(1)})
	assert.False(t, m.Current().Connected(), "changes before connect are ignored")

	first, err := m.Connect(context.Background())
	require.NoError(t, err)

	m.OnAccountsChanged([]common.Address{provider.Address(0), provider.Address(1)})
	assert.Equal(t, first, m.Current(), "unchanged first account is a no-op")

	m.OnAccountsChanged([]common.Address{provider.Address(1)})
	switched := m.Current()
	assert.Equal(t, provider.Address(1), switched.Identity)
	assert.Equal(t, provider.Address(1), switched.Binding.From(), "binding is rebuilt for the new identity")
	assert.NotSame(t, first.Binding, switched.Binding)
	assert.Greater(t, switched.Epoch, first.Epoch)

	m.OnAccountsChanged(nil)
	cleared := m.Current()
	assert.False(t, cleared.Connected())
	assert.Equal(t, common.Address{}, cleared.Identity)
	assert.Greater(t, cleared.Epoch, switched.Epoch)

	m.OnAccountsChanged(nil)

	assert.Equal(t, []session.EventKind{
		session.EventConnected,
		session.EventAccountChanged,
		session.EventDisconnected,
	}, rec.kinds())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, provider.Address(0), rec.events[1].Previous)
	assert.Equal(t, provider.Address(1), rec.events[2].Previous)
}

func TestStartClose_SymmetricSubscription(t *testing.T) {
	t.Parallel()
	provider := wallettest.New(2)
	m, rec := newManager(t, provider, 0)

	m.Start()
	m.Start()
	assert.Equal(t, 1, provider.Subscribers())

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	provider.Emit([]common.Address{provider.Address(1)})
	assert.Equal(t, provider.Address(1), m.Current().Identity)

	m.Close()
	m.Close()
	assert.Zero(t, provider.Subscribers())

	provider.Emit(nil)
	assert.True(t, m.Current().Connected(), "closed manager ignores provider events")
	assert.Len(t, rec.kinds(), 2)

	m.Start()
	assert.Equal(t, 1, provider.Subscribers(), "restart after close registers again")
	m.Close()
}

func TestEventKind_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "connected", session.EventConnected.String())
	assert.Equal(t, "account_changed", session.EventAccountChanged.String())
	assert.Equal(t, "disconnected", session.EventDisconnected.String())
	assert.Equal(t, "unknown", session.EventKind(0).String())
}
