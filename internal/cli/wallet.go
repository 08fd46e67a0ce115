package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/output"
	"github.com/mrz1836/skillmint/internal/secret"
	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// walletCmd is the parent command for wallet operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the purchasing wallet",
	Long: `Create, restore and inspect the wallet used to buy courses.

The wallet type is set by wallet.type in the configuration: "hd" keeps an
encrypted BIP39 recovery phrase, "keystore" keeps go-ethereum key files.`,
}

// walletCreateCmd creates a new wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet",
	Long: `Create a new wallet protected by a passphrase.

For HD wallets a recovery phrase is generated and shown once. Write it
down: it is the only way to recover the wallet. For keystore wallets a
new key file is added to the keystore directory.`,
	Example: `  skillmint wallet create
  skillmint wallet create --words 24`,
	Args: cobra.NoArgs,
	RunE: runWalletCreate,
}

// walletRestoreCmd restores an HD wallet from a recovery phrase.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore an HD wallet from its recovery phrase",
	Long: `Restore an HD wallet from a 12 or 24 word BIP39 recovery phrase.

The phrase is read from --input or prompted for. Numbering, bullets and
commas from copied backups are ignored; misspelled words get suggestions.`,
	Example: `  skillmint wallet restore
  skillmint wallet restore --input backup.txt`,
	Args: cobra.NoArgs,
	RunE: runWalletRestore,
}

// walletAccountsCmd lists wallet accounts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List wallet accounts",
	Long: `Unlock the wallet and list its accounts. The first account is the
one the storefront buys with.

With --qr a payment QR code for the active account is drawn so it can be
funded from a mobile wallet.`,
	Example: `  skillmint wallet accounts
  skillmint wallet accounts --qr`,
	Args: cobra.NoArgs,
	RunE: runWalletAccounts,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	walletWords int
	walletInput string
	walletQR    bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletRestoreCmd)
	walletCmd.AddCommand(walletAccountsCmd)

	walletCreateCmd.Flags().IntVar(&walletWords, "words", 12, "recovery phrase length: 12 or 24")
	walletRestoreCmd.Flags().StringVar(&walletInput, "input", "", "read the recovery phrase from this file")
	walletAccountsCmd.Flags().BoolVar(&walletQR, "qr", false, "draw a payment QR code for the active account")
}

// newPassphrase returns the configured passphrase or prompts for a new one.
// The caller zeroes the result.
func newPassphrase() ([]byte, error) {
	if cfg.Wallet.Passphrase != "" {
		return []byte(cfg.Wallet.Passphrase), nil
	}
	return promptNewPasswordFn()
}

func runWalletCreate(cmd *cobra.Command, _ []string) error {
	switch cfg.Wallet.Type {
	case config.WalletHD:
		return createHD(cmd)
	case config.WalletKeystore:
		return createKeystoreAccount(cmd)
	default:
		return storeerr.WithDetails(storeerr.ErrConfigInvalid, map[string]string{"wallet.type": cfg.Wallet.Type})
	}
}

func createHD(cmd *cobra.Command) error {
	path := cfg.MnemonicPath()
	if _, err := os.Stat(path); err == nil {
		return storeerr.WithSuggestion(
			storeerr.WithDetails(storeerr.ErrWalletExists, map[string]string{"path": path}),
			"remove the existing wallet file first if you really want a new one")
	}

	passphrase, err := newPassphrase()
	if err != nil {
		return err
	}
	defer secret.Zero(passphrase)

	mnemonic, err := wallet.CreateHD(path, string(passphrase), walletWords)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]any{
			"type":     config.WalletHD,
			"path":     path,
			"mnemonic": mnemonic,
		})
	}

	displayMnemonic(mnemonic, cmd)
	w := cmd.OutOrStdout()
	out(w, "Wallet created successfully.\n")
	outln(w, "Wallet file: "+path)
	return nil
}

func createKeystoreAccount(cmd *cobra.Command) error {
	dir := cfg.KeystorePath()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating keystore directory: %w", err)
	}

	passphrase, err := newPassphrase()
	if err != nil {
		return err
	}
	defer secret.Zero(passphrase)

	provider, err := wallet.NewKeystoreProvider(wallet.KeystoreOptions{
		Dir:      dir,
		Prompter: prompter(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer provider.Close()

	account, err := provider.KeyStore().NewAccount(string(passphrase))
	if err != nil {
		return fmt.Errorf("creating key: %w", err)
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]any{
			"type":    config.WalletKeystore,
			"path":    account.URL.Path,
			"address": account.Address.Hex(),
		})
	}

	w := cmd.OutOrStdout()
	out(w, "Key created: %s\n", account.Address.Hex())
	outln(w, "Key file: "+account.URL.Path)
	return nil
}

// displayMnemonic shows the recovery phrase once, numbered.
func displayMnemonic(mnemonic string, cmd *cobra.Command) {
	w := cmd.OutOrStdout()
	outln(w)
	outln(w, "===================================================================")
	outln(w, "                    RECOVERY PHRASE")
	outln(w, "===================================================================")
	outln(w)
	outln(w, "Write down these words in order and store them securely.")
	outln(w, "This is the ONLY way to recover your wallet.")
	outln(w)

	for i, word := range strings.Fields(mnemonic) {
		out(w, "%2d. %s\n", i+1, word)
	}

	outln(w)
	outln(w, "===================================================================")
	outln(w)
}

func runWalletRestore(cmd *cobra.Command, _ []string) error {
	if cfg.Wallet.Type != config.WalletHD {
		return storeerr.WithSuggestion(storeerr.ErrInvalidInput, "restore is only available for hd wallets")
	}

	phrase, err := readMnemonic()
	if err != nil {
		return err
	}
	if err := wallet.ValidateMnemonic(phrase); err != nil {
		return err
	}

	passphrase, err := newPassphrase()
	if err != nil {
		return err
	}
	defer secret.Zero(passphrase)

	path := cfg.MnemonicPath()
	if err := wallet.RestoreHD(path, phrase, string(passphrase)); err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]any{"type": config.WalletHD, "path": path})
	}
	out(cmd.OutOrStdout(), "Wallet restored to %s\n", path)
	return nil
}

func readMnemonic() (string, error) {
	if walletInput == "" {
		return promptMnemonicFn()
	}
	// #nosec G304 -- path is supplied by the user on the command line
	data, err := os.ReadFile(filepath.Clean(walletInput))
	if err != nil {
		return "", storeerr.WithCause(storeerr.ErrInvalidInput, err)
	}
	defer secret.Zero(data)
	return string(data), nil
}

// accountJSON is one row of `wallet accounts -o json`.
type accountJSON struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

func runWalletAccounts(cmd *cobra.Command, _ []string) error {
	provider, err := openProvider(cfg, prompter(), logger)
	if err != nil {
		return err
	}
	if c, ok := provider.(interface{ Close() }); ok {
		defer c.Close()
	}

	accounts, err := provider.RequestAccounts(cmd.Context())
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		rows := make([]accountJSON, 0, len(accounts))
		for i, a := range accounts {
			rows = append(rows, accountJSON{Index: i, Address: a.Hex(), Active: i == 0})
		}
		return formatter.Print(rows)
	}

	w := cmd.OutOrStdout()
	table := output.NewTable("#", "ADDRESS", "")
	for i, a := range accounts {
		marker := ""
		if i == 0 {
			marker = "active"
		}
		table.AddRow(strconv.Itoa(i), a.Hex(), marker)
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if walletQR && len(accounts) > 0 {
		showPaymentQR(cmd, accounts[0])
	}
	return nil
}

// showPaymentQR draws an EIP-681 payment request for addr on a terminal.
func showPaymentQR(cmd *cobra.Command, addr common.Address) {
	w := cmd.OutOrStdout()
	uri := output.PaymentURI(addr.Hex(), cfg.Network.ChainID)
	outln(w)
	if !output.IsTerminal(w) {
		outln(w, uri)
		return
	}
	output.RenderQR(w, uri)
	outln(w, uri)
}
