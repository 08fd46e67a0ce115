package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mrz1836/skillmint/internal/chain"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Prompter asks the user for wallet secrets and approvals.
// Implementations return ErrUserRejected when the user declines.
type Prompter interface {
	Passphrase(ctx context.Context, prompt string) (string, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// StaticPrompter answers prompts from configuration, for non-interactive use.
type StaticPrompter struct {
	Secret  string
	Approve bool
}

// Passphrase returns the configured secret.
func (p StaticPrompter) Passphrase(context.Context, string) (string, error) {
	return p.Secret, nil
}

// Confirm returns the configured approval.
func (p StaticPrompter) Confirm(context.Context, string) (bool, error) {
	return p.Approve, nil
}

// approve asks prompter to confirm signing tx and maps a refusal to ErrUserRejected.
func approve(ctx context.Context, prompter Prompter, account common.Address, tx *types.Transaction, chainID *big.Int) error {
	if prompter == nil {
		return storeerr.WithCause(storeerr.ErrProviderError, errNoPrompter)
	}
	ok, err := prompter.Confirm(ctx, describeTx(account, tx, chainID))
	if err != nil {
		return err
	}
	if !ok {
		return storeerr.ErrUserRejected
	}
	return nil
}

func describeTx(account common.Address, tx *types.Transaction, chainID *big.Int) string {
	to := "contract creation"
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	return fmt.Sprintf("Sign transaction from %s to %s paying %s ETH (nonce %d, gas %d, chain %s)?",
		account.Hex(), to, chain.FormatETH(tx.Value()), tx.Nonce(), tx.Gas(), chainID)
}
