// Package config provides configuration management for SkillMint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/skillmint/internal/fileutil"
	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// Wallet provider types.
const (
	WalletHD       = "hd"
	WalletKeystore = "keystore"
)

// Purchase concurrency modes.
const (
	PurchaseSingle  = "single"
	PurchasePerItem = "per_item"
)

// addressRegex validates hex contract addresses.
var addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	Network  NetworkConfig  `yaml:"network"`
	Contract ContractConfig `yaml:"contract"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Purchase PurchaseConfig `yaml:"purchase"`
	Server   ServerConfig   `yaml:"server"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// NetworkConfig defines the Ethereum node connection.
type NetworkConfig struct {
	RPC               string  `yaml:"rpc"`
	ChainID           int64   `yaml:"chain_id"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// ContractConfig identifies the deployed course store.
type ContractConfig struct {
	Address string `yaml:"address"`
	ABIFile string `yaml:"abi_file,omitempty"`
}

// CatalogConfig lists the purchasable courses in display order.
type CatalogConfig struct {
	Items []CatalogItem `yaml:"items"`
}

// CatalogItem is a single course entry.
type CatalogItem struct {
	ID    uint64 `yaml:"id"`
	Title string `yaml:"title"`
}

// WalletConfig selects and configures the wallet provider.
type WalletConfig struct {
	Type         string `yaml:"type"`
	MnemonicFile string `yaml:"mnemonic_file"`
	KeystoreDir  string `yaml:"keystore_dir"`
	Accounts     int    `yaml:"accounts"`
	AutoApprove  bool   `yaml:"auto_approve"`
	Passphrase   string `yaml:"-"`
}

// PurchaseConfig defines purchase submission settings.
type PurchaseConfig struct {
	Mode                string        `yaml:"mode"`
	ConfirmPollInterval time.Duration `yaml:"confirm_poll_interval"`
	GasLimit            uint64        `yaml:"gas_limit"`
	MaxValue            string        `yaml:"max_value,omitempty"`
}

// ServerConfig defines the HTTP storefront settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, fileutil.PrivateFile)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks that the configuration can drive a storefront session.
func (c *Config) Validate() error {
	invalid := func(field, reason string) error {
		return storeerr.WithDetails(storeerr.ErrConfigInvalid, map[string]string{
			"field":  field,
			"reason": reason,
		})
	}

	if c.Network.RPC == "" {
		return invalid("network.rpc", "required")
	}
	if !addressRegex.MatchString(c.Contract.Address) {
		return invalid("contract.address", "must be a 0x-prefixed 20-byte hex address")
	}
	if len(c.Catalog.Items) == 0 {
		return invalid("catalog.items", "at least one course is required")
	}

	seen := make(map[uint64]struct{}, len(c.Catalog.Items))
	for _, item := range c.Catalog.Items {
		if item.ID == 0 {
			return invalid("catalog.items", "course ids start at 1")
		}
		if _, dup := seen[item.ID]; dup {
			return invalid("catalog.items", fmt.Sprintf("duplicate course id %d", item.ID))
		}
		seen[item.ID] = struct{}{}
	}

	switch c.Wallet.Type {
	case WalletHD, WalletKeystore:
	default:
		return invalid("wallet.type", "must be hd or keystore")
	}
	if c.Wallet.Accounts < 1 {
		return invalid("wallet.accounts", "must be at least 1")
	}

	switch c.Purchase.Mode {
	case PurchaseSingle, PurchasePerItem:
	default:
		return invalid("purchase.mode", "must be single or per_item")
	}
	if c.Purchase.ConfirmPollInterval <= 0 {
		return invalid("purchase.confirm_poll_interval", "must be positive")
	}

	return nil
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// MnemonicPath returns the resolved path of the encrypted mnemonic file.
func (c *Config) MnemonicPath() string {
	if c.Wallet.MnemonicFile != "" {
		return ExpandPath(c.Wallet.MnemonicFile)
	}
	return filepath.Join(ExpandPath(c.Home), "wallet.age")
}

// KeystorePath returns the resolved keystore directory.
func (c *Config) KeystorePath() string {
	if c.Wallet.KeystoreDir != "" {
		return ExpandPath(c.Wallet.KeystoreDir)
	}
	return filepath.Join(ExpandPath(c.Home), "keystore")
}

// DefaultHome returns the default skillmint home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skillmint"
	}
	return filepath.Join(home, ".skillmint")
}
