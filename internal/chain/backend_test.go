package chain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/chain"
	"github.com/mrz1836/skillmint/internal/metrics"
)

var errNodeDown = errors.New("node down")

type stubBackend struct {
	calls   int
	callErr error
}

func (s *stubBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1337), nil }

func (s *stubBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	s.calls++
	return []byte{0x01}, s.callErr
}

func (s *stubBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }

func (s *stubBackend) SuggestGasPrice(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (s *stubBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (s *stubBackend) SendTransaction(context.Context, *types.Transaction) error { return nil }

func (s *stubBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func TestInstrumentedBackend_PassesThrough(t *testing.T) {
	t.Parallel()
	inner := &stubBackend{}
	m := metrics.New()
	b := chain.NewInstrumentedBackend(inner, "local", chain.NewRateLimiter(1000, 100), m, nil)

	ctx := context.Background()
	id, err := b.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1337), id.Int64())

	out, err := b.CallContract(ctx, ethereum.CallMsg{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, out)
	assert.Equal(t, 1, inner.calls)

	nonce, err := b.PendingNonceAt(ctx, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)

	series, err := testutil.GatherAndCount(m.Registry(), "skillmint_rpc_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
}

func TestInstrumentedBackend_PropagatesErrors(t *testing.T) {
	t.Parallel()
	inner := &stubBackend{callErr: errNodeDown}
	b := chain.NewInstrumentedBackend(inner, "local", nil, nil, nil)

	_, err := b.CallContract(context.Background(), ethereum.CallMsg{}, nil)
	require.ErrorIs(t, err, errNodeDown)
}

func TestInstrumentedBackend_ReceiptNotFound(t *testing.T) {
	t.Parallel()
	b := chain.NewInstrumentedBackend(&stubBackend{}, "local", nil, metrics.New(), nil)

	_, err := b.TransactionReceipt(context.Background(), common.Hash{})
	require.ErrorIs(t, err, ethereum.NotFound)
}

func TestInstrumentedBackend_CanceledWhileLimited(t *testing.T) {
	t.Parallel()
	inner := &stubBackend{}
	limiter := chain.NewRateLimiter(0.001, 1)
	require.True(t, limiter.Allow("local"))

	b := chain.NewInstrumentedBackend(inner, "local", limiter, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.CallContract(ctx, ethereum.CallMsg{}, nil)
	require.Error(t, err)
	assert.Zero(t, inner.calls)
}

func TestDial_RequiresURL(t *testing.T) {
	t.Parallel()
	_, err := chain.Dial(context.Background(), "")
	require.ErrorIs(t, err, chain.ErrRPCURLRequired)
}
