package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrz1836/skillmint/internal/config"
	"github.com/mrz1836/skillmint/internal/secret"
	"github.com/mrz1836/skillmint/internal/wallet"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// minPassphraseLen is the shortest wallet encryption passphrase accepted.
const minPassphraseLen = 8

// Prompt functions are variables so tests can script them.
//
//nolint:gochecknoglobals // replaced in tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptConfirmFn     = promptConfirmation
	promptMnemonicFn    = promptMnemonic
	stdin               = bufio.NewReader(os.Stdin)
)

// terminalPrompter answers wallet prompts from configuration first and the
// terminal second.
type terminalPrompter struct {
	secret      string
	autoApprove bool
}

var _ wallet.Prompter = terminalPrompter{}

// Passphrase returns the configured passphrase or asks for it.
func (p terminalPrompter) Passphrase(_ context.Context, prompt string) (string, error) {
	if p.secret != "" {
		return p.secret, nil
	}
	pw, err := promptPasswordFn(prompt + ": ")
	if err != nil {
		return "", err
	}
	defer secret.Zero(pw)
	return string(pw), nil
}

// Confirm approves automatically when configured, otherwise asks y/N.
func (p terminalPrompter) Confirm(_ context.Context, prompt string) (bool, error) {
	if p.autoApprove {
		return true, nil
	}
	return promptConfirmFn(prompt), nil
}

// promptPassword reads a line with echo disabled.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.ReadPassword
	if !term.IsTerminal(fd) {
		return nil, storeerr.WithSuggestion(storeerr.ErrInvalidInput,
			"stdin is not a terminal; set "+config.EnvWalletPassphrase)
	}

	out(os.Stderr, "%s", prompt)
	password, err := term.ReadPassword(fd)
	outln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// promptNewPassword asks for a new passphrase twice.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPasswordFn("Enter wallet passphrase: ")
	if err != nil {
		return nil, err
	}
	if len(password) < minPassphraseLen {
		secret.Zero(password)
		return nil, storeerr.WithSuggestion(storeerr.ErrInvalidInput,
			fmt.Sprintf("passphrase must be at least %d characters", minPassphraseLen))
	}

	confirm, err := promptPasswordFn("Confirm passphrase: ")
	if err != nil {
		secret.Zero(password)
		return nil, err
	}
	defer secret.Zero(confirm)

	if string(password) != string(confirm) {
		secret.Zero(password)
		return nil, storeerr.WithSuggestion(storeerr.ErrInvalidInput, "passphrases do not match")
	}
	return password, nil
}

// promptConfirmation asks a yes/no question; anything but y or yes is no.
func promptConfirmation(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes"
}

// promptMnemonic reads a recovery phrase from one line of input.
func promptMnemonic() (string, error) {
	out(os.Stderr, "Enter your recovery phrase (all words on one line): ")
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", storeerr.WithSuggestion(storeerr.ErrInvalidInput, "no input provided")
	}
	return strings.TrimSpace(line), nil
}


// out is a helper for CLI output.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}
