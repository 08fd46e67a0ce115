// Package errors provides structured error handling for SkillMint.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess     = 0 // Successful execution
	ExitGeneral     = 1 // General/unknown error
	ExitInput       = 2 // Invalid input
	ExitRejected    = 3 // User declined a wallet request
	ExitNotFound    = 4 // Resource not found
	ExitUnavailable = 5 // Wallet or chain unavailable
	ExitConflict    = 6 // Purchase not allowed in the current state
)

// StoreError is the structured error type for SkillMint.
type StoreError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *StoreError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for StoreError.
func (e *StoreError) Is(target error) bool {
	var t *StoreError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &StoreError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &StoreError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// Wallet provider errors.
	ErrProviderUnavailable = &StoreError{
		Code:       "PROVIDER_UNAVAILABLE",
		Message:    "no wallet provider available",
		Suggestion: "create a wallet with 'skillmint wallet create' or configure a keystore",
		ExitCode:   ExitUnavailable,
	}

	ErrUserRejected = &StoreError{
		Code:     "USER_REJECTED",
		Message:  "request rejected by user",
		ExitCode: ExitRejected,
	}

	ErrProviderError = &StoreError{
		Code:     "PROVIDER_ERROR",
		Message:  "wallet provider error",
		ExitCode: ExitGeneral,
	}

	// Contract interaction errors.
	ErrReadFailure = &StoreError{
		Code:     "READ_FAILURE",
		Message:  "contract read failed",
		ExitCode: ExitGeneral,
	}

	ErrSubmissionFailure = &StoreError{
		Code:     "SUBMISSION_FAILURE",
		Message:  "transaction failed",
		ExitCode: ExitGeneral,
	}

	// Storefront state errors.
	ErrNotConnected = &StoreError{
		Code:       "NOT_CONNECTED",
		Message:    "wallet not connected",
		Suggestion: "connect a wallet first",
		ExitCode:   ExitConflict,
	}

	ErrUnknownItem = &StoreError{
		Code:     "UNKNOWN_ITEM",
		Message:  "course not in catalog",
		ExitCode: ExitNotFound,
	}

	ErrAlreadyOwned = &StoreError{
		Code:     "ALREADY_OWNED",
		Message:  "course already purchased",
		ExitCode: ExitConflict,
	}

	ErrPurchaseInFlight = &StoreError{
		Code:     "PURCHASE_IN_FLIGHT",
		Message:  "a purchase is already being processed",
		ExitCode: ExitConflict,
	}

	ErrPriceUnknown = &StoreError{
		Code:       "PRICE_UNKNOWN",
		Message:    "course price not loaded",
		Suggestion: "refresh the catalog and try again",
		ExitCode:   ExitConflict,
	}

	ErrPriceLimit = &StoreError{
		Code:     "PRICE_LIMIT",
		Message:  "course price exceeds configured maximum",
		ExitCode: ExitConflict,
	}

	// Wallet storage errors.
	ErrWalletNotFound = &StoreError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &StoreError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &StoreError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &StoreError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong passphrase or corrupted file",
		ExitCode: ExitRejected,
	}

	// Config errors.
	ErrConfigInvalid = &StoreError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration is invalid",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &StoreError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}
)

// New creates a new StoreError with the given code and message.
func New(code, message string) *StoreError {
	return &StoreError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *StoreError
	if errors.As(err, &se) {
		return &StoreError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &StoreError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of a sentinel carrying cause as its underlying error.
// The result matches both the sentinel and the cause under errors.Is.
func WithCause(sentinel *StoreError, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &StoreError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *StoreError
	if errors.As(err, &se) {
		return &StoreError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &StoreError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *StoreError
	if errors.As(err, &se) {
		return &StoreError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &StoreError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *StoreError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
