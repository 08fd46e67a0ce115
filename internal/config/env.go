package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome             = "SKILLMINT_HOME"
	EnvETHRPC           = "SKILLMINT_ETH_RPC"
	EnvChainID          = "SKILLMINT_CHAIN_ID"
	EnvContract         = "SKILLMINT_CONTRACT"
	EnvWallet           = "SKILLMINT_WALLET"
	EnvWalletPassphrase = "SKILLMINT_WALLET_PASSPHRASE" // #nosec G101 -- false positive, this is a const name not a credential
	EnvListen           = "SKILLMINT_LISTEN"
	EnvOutputFormat     = "SKILLMINT_OUTPUT_FORMAT"
	EnvVerbose          = "SKILLMINT_VERBOSE"
	EnvLogLevel         = "SKILLMINT_LOG_LEVEL"
	EnvNoColor          = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvETHRPC); v != "" {
		cfg.Network.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvChainID); v != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && id > 0 {
			cfg.Network.ChainID = id
		}
	}

	if v := os.Getenv(EnvContract); v != "" {
		cfg.Contract.Address = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvWallet); v != "" {
		cfg.Wallet.Type = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := os.LookupEnv(EnvWalletPassphrase); ok {
		cfg.Wallet.Passphrase = v
	}

	if v := os.Getenv(EnvListen); v != "" {
		cfg.Server.Listen = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// This is useful for cleaning user-provided RPC URLs that may contain copy-paste artifacts.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
