package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/output"
	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// useRealWallet restores the production provider factory for the test.
func useRealWallet(t *testing.T) {
	t.Helper()
	orig := openProvider
	t.Cleanup(func() { openProvider = orig })
	openProvider = func(c *config.Config, p wallet.Prompter, l *zap.Logger) (wallet.Provider, error) {
		return wallet.Open(c, p, l)
	}
}

func TestRunWalletCreate_HD(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	withMockPrompts(t, []byte(testPassphrase), true, "")
	origWords := walletWords
	t.Cleanup(func() { walletWords = origWords })
	walletWords = 12

	var stdout, stderr bytes.Buffer
	require.NoError(t, runWalletCreate(newTestCmd(&stdout, &stderr), nil))

	text := stdout.String()
	assert.Contains(t, text, "RECOVERY PHRASE")
	assert.Contains(t, text, "12. ")
	assert.Contains(t, text, "Wallet created successfully.")
	assert.FileExists(t, cfg.MnemonicPath())

	err := runWalletCreate(newTestCmd(&stdout, &stderr), nil)
	require.ErrorIs(t, err, storeerr.ErrWalletExists)
}

func TestRunWalletCreate_InvalidWordCount(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	withMockPrompts(t, []byte(testPassphrase), true, "")
	origWords := walletWords
	t.Cleanup(func() { walletWords = origWords })
	walletWords = 15

	var stdout, stderr bytes.Buffer
	err := runWalletCreate(newTestCmd(&stdout, &stderr), nil)
	require.ErrorIs(t, err, storeerr.ErrInvalidInput)
	assert.NoFileExists(t, cfg.MnemonicPath())
}

func TestRunWalletCreate_Keystore(t *testing.T) {
	buf := setupTestEnv(t, output.FormatJSON)
	withMockPrompts(t, []byte(testPassphrase), true, "")
	cfg.Wallet.Type = config.WalletKeystore

	var stdout, stderr bytes.Buffer
	require.NoError(t, runWalletCreate(newTestCmd(&stdout, &stderr), nil))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, config.WalletKeystore, got["type"])
	assert.True(t, strings.HasPrefix(got["address"], "0x"))
	assert.FileExists(t, got["path"])
}

func TestRunWalletRestore_AndAccounts(t *testing.T) {
	buf := setupTestEnv(t, output.FormatText)
	withMockPrompts(t, []byte(testPassphrase), true, "1. "+testMnemonic)
	useRealWallet(t)
	origInput, origQR := walletInput, walletQR
	t.Cleanup(func() { walletInput, walletQR = origInput, origQR })
	walletInput, walletQR = "", true

	var stdout, stderr bytes.Buffer
	require.NoError(t, runWalletRestore(newTestCmd(&stdout, &stderr), nil))
	assert.Contains(t, stdout.String(), "Wallet restored to")

	stdout.Reset()
	require.NoError(t, runWalletAccounts(newTestCmd(&stdout, &stderr), nil))
	text := stdout.String()
	assert.Contains(t, text, testAccount0)
	assert.Contains(t, text, "active")
	assert.Contains(t, text, "ethereum:"+testAccount0)
	assert.Empty(t, buf.String())
}

func TestRunWalletAccounts_JSON(t *testing.T) {
	buf := setupTestEnv(t, output.FormatJSON)
	withMockPrompts(t, []byte(testPassphrase), true, "")
	useRealWallet(t)
	cfg.Wallet.Accounts = 2
	require.NoError(t, wallet.RestoreHD(cfg.MnemonicPath(), testMnemonic, testPassphrase))

	var stdout, stderr bytes.Buffer
	require.NoError(t, runWalletAccounts(newTestCmd(&stdout, &stderr), nil))

	var rows []accountJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, testAccount0, rows[0].Address)
	assert.True(t, rows[0].Active)
	assert.False(t, rows[1].Active)
}

func TestRunWalletAccounts_NoWallet(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	useRealWallet(t)

	var stdout, stderr bytes.Buffer
	err := runWalletAccounts(newTestCmd(&stdout, &stderr), nil)
	require.ErrorIs(t, err, storeerr.ErrProviderUnavailable)
}

func TestRunWalletRestore_FromFileWithTypo(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	withMockPrompts(t, []byte(testPassphrase), true, "")
	origInput := walletInput
	t.Cleanup(func() { walletInput = origInput })

	walletInput = filepath.Join(t.TempDir(), "backup.txt")
	typo := strings.Replace(testMnemonic, "about", "abuot", 1)
	require.NoError(t, os.WriteFile(walletInput, []byte(typo+"\n"), 0o600))

	var stdout, stderr bytes.Buffer
	err := runWalletRestore(newTestCmd(&stdout, &stderr), nil)
	require.ErrorIs(t, err, storeerr.ErrInvalidMnemonic)
	assert.Contains(t, output.Describe(err).Suggestion, "'abuot'")
	assert.NoFileExists(t, cfg.MnemonicPath())
}

func TestRunWalletRestore_KeystoreUnsupported(t *testing.T) {
	setupTestEnv(t, output.FormatText)
	cfg.Wallet.Type = config.WalletKeystore

	var stdout, stderr bytes.Buffer
	err := runWalletRestore(newTestCmd(&stdout, &stderr), nil)
	require.ErrorIs(t, err, storeerr.ErrInvalidInput)
}
