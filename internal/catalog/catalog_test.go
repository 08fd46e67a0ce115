package catalog_test

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/chain/chaintest"
	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/contract"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

var (
	storeAddress = common.HexToAddress("0x390BdF96BE37813D2f078bbA98479545134151c6")
	buyer        = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	errTimeout   = errors.New("i/o timeout")
)

func setup(t *testing.T) (*chaintest.Backend, *contract.Binding) {
	t.Helper()
	parsed, err := contract.DefaultABI()
	require.NoError(t, err)
	backend := chaintest.New(1337, parsed)
	for id := uint64(1); id <= 5; id++ {
		backend.SetPrice(id, new(big.Int).Mul(big.NewInt(int64(id)), big.NewInt(1e16)))
	}
	return backend, contract.Bind(storeAddress, parsed, backend, buyer, nil, big.NewInt(1337))
}

func TestDefault(t *testing.T) {
	t.Parallel()
	c := catalog.Default()
	require.Len(t, c, 5)
	assert.Equal(t, []catalog.ItemID{1, 2, 3, 4, 5}, c.IDs())
	assert.Equal(t, "Course 3", c[2].Title)
	assert.True(t, c.Contains(5))
	assert.False(t, c.Contains(6))
}

func TestFromConfig_DefaultTitles(t *testing.T) {
	t.Parallel()
	c := catalog.FromConfig([]config.CatalogItem{{ID: 7}, {ID: 9, Title: "Solidity 101"}})
	assert.Equal(t, "Course 7", c[0].Title)
	assert.Equal(t, "Solidity 101", c[1].Title)
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()
	prices := catalog.PriceMap{1: big.NewInt(10)}
	clone := prices.Clone()
	clone[1].SetInt64(99)
	assert.Equal(t, int64(10), prices[1].Int64())

	owned := catalog.OwnershipMap{1: true}
	ownedClone := owned.Clone()
	ownedClone[1] = false
	assert.True(t, owned[1])

	assert.Nil(t, catalog.PriceMap(nil).Clone())
}

func TestQuery_FullRound(t *testing.T) {
	t.Parallel()
	backend, binding := setup(t)
	backend.SetOwned(buyer, 2, true)

	round, err := catalog.Query(context.Background(), binding, buyer, catalog.Default())
	require.NoError(t, err)
	require.Len(t, round.Prices, 5)
	require.Len(t, round.Owned, 5)
	assert.Equal(t, "30000000000000000", round.Prices[3].String())
	assert.True(t, round.Owned[2])
	assert.False(t, round.Owned[3])
	assert.Equal(t, 10, backend.Calls())
}

func TestQuery_PartialFailureDiscardsRound(t *testing.T) {
	t.Parallel()
	backend, binding := setup(t)
	backend.FailCall(contract.MethodHasAccess, 4, errTimeout)

	round, err := catalog.Query(context.Background(), binding, buyer, catalog.Default())
	require.ErrorIs(t, err, storeerr.ErrReadFailure)
	require.ErrorIs(t, err, errTimeout)
	assert.Contains(t, err.Error(), "ownership of course 4")
	assert.Nil(t, round.Prices)
	assert.Nil(t, round.Owned)
	assert.Equal(t, 10, backend.Calls(), "every read in the round settles")
}

func TestQuery_JoinsEveryCause(t *testing.T) {
	t.Parallel()
	backend, binding := setup(t)
	errRevert := errors.New("reverted")
	backend.FailCall(contract.MethodHasAccess, 2, errTimeout)
	backend.FailCall(contract.MethodCoursePrice, 5, errRevert)

	_, err := catalog.Query(context.Background(), binding, buyer, catalog.Default())
	require.ErrorIs(t, err, storeerr.ErrReadFailure)
	require.ErrorIs(t, err, errTimeout)
	require.ErrorIs(t, err, errRevert)
	assert.Contains(t, err.Error(), "ownership of course 2")
	assert.Contains(t, err.Error(), "price of course 5")
	assert.Equal(t, 10, backend.Calls())
}

type slowReader struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowReader) enter() func() {
	n := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	// Hold until the whole round is outstanding, or give up after a second.
	deadline := time.Now().Add(time.Second)
	for s.peak.Load() < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	return func() { s.inFlight.Add(-1) }
}

func (s *slowReader) CoursePrice(context.Context, uint64) (*big.Int, error) {
	defer s.enter()()
	return big.NewInt(1), nil
}

func (s *slowReader) HasAccess(context.Context, common.Address, uint64) (bool, error) {
	defer s.enter()()
	return false, nil
}

func TestQuery_ReadsAreConcurrent(t *testing.T) {
	t.Parallel()
	r := &slowReader{}

	_, err := catalog.Query(context.Background(), r, buyer, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, int32(10), r.peak.Load(), "all ten reads outstanding at once")
}
