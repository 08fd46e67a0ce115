package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Reader is the read side of the course-store contract.
type Reader interface {
	CoursePrice(ctx context.Context, courseID uint64) (*big.Int, error)
	HasAccess(ctx context.Context, account common.Address, courseID uint64) (bool, error)
}

// Round is the result of one complete refresh.
type Round struct {
	Prices PriceMap
	Owned  OwnershipMap
}

// Query reads the price and ownership of every item concurrently and waits
// for all of them. If any read fails the round is discarded and the error
// wraps ErrReadFailure with every individual cause.
func Query(ctx context.Context, r Reader, identity common.Address, items Catalog) (Round, error) {
	prices := make([]*big.Int, len(items))
	owned := make([]bool, len(items))
	errs := make([]error, 2*len(items))

	var g errgroup.Group
	for i, item := range items {
		id := item.ID
		g.Go(func() error {
			price, err := r.CoursePrice(ctx, uint64(id))
			if err != nil {
				errs[2*i] = fmt.Errorf("price of course %d: %w", id, err)
				return errs[2*i]
			}
			prices[i] = price
			return nil
		})
		g.Go(func() error {
			has, err := r.HasAccess(ctx, identity, uint64(id))
			if err != nil {
				errs[2*i+1] = fmt.Errorf("ownership of course %d: %w", id, err)
				return errs[2*i+1]
			}
			owned[i] = has
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Round{}, storeerr.WithCause(storeerr.ErrReadFailure, errors.Join(errs...))
	}

	round := Round{
		Prices: make(PriceMap, len(items)),
		Owned:  make(OwnershipMap, len(items)),
	}
	for i, item := range items {
		round.Prices[item.ID] = prices[i]
		round.Owned[item.ID] = owned[i]
	}
	return round, nil
}
