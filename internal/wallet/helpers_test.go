package wallet_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"filippo.io/age"
	"github.com/stretchr/testify/require"

	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

const (
	testMnemonic   = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testPassphrase = "correct horse"
	// First account of testMnemonic at m/44'/60'/0'/0/0.
	testAccount0 = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

// writeSealed writes mnemonic sealed at a low scrypt cost so unlocks stay fast.
func writeSealed(t *testing.T, mnemonic, passphrase string) string {
	t.Helper()
	recipient, err := age.NewScryptRecipient(passphrase)
	require.NoError(t, err)
	recipient.SetWorkFactor(10)

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	require.NoError(t, err)
	_, err = w.Write([]byte(mnemonic))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "wallet.age")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// scriptedPrompter records prompts and answers from fixed values.
type scriptedPrompter struct {
	mu          sync.Mutex
	passphrase  string
	rejectAsk   bool
	approve     bool
	confirms    []string
	passphrases int
}

func (p *scriptedPrompter) Passphrase(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passphrases++
	if p.rejectAsk {
		return "", storeerr.ErrUserRejected
	}
	return p.passphrase, nil
}

func (p *scriptedPrompter) Confirm(_ context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, prompt)
	return p.approve, nil
}
