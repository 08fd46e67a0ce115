package config

import (
	"fmt"
	"time"
)

// DefaultETHRPCURL is the default Ethereum RPC endpoint (a local development node).
const DefaultETHRPCURL = "http://127.0.0.1:8545"

// DefaultContractAddress is the deployed SkillMint course store.
const DefaultContractAddress = "0x390BdF96BE37813D2f078bbA98479545134151c6"

// DefaultCourseCount is the size of the built-in catalog.
const DefaultCourseCount = 5

// DefaultListen is the default HTTP storefront address.
const DefaultListen = "127.0.0.1:8080"

// DefaultCatalog returns courses 1..DefaultCourseCount.
func DefaultCatalog() []CatalogItem {
	items := make([]CatalogItem, 0, DefaultCourseCount)
	for id := uint64(1); id <= DefaultCourseCount; id++ {
		items = append(items, CatalogItem{ID: id, Title: fmt.Sprintf("Course %d", id)})
	}
	return items
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.skillmint",
		Network: NetworkConfig{
			RPC:               DefaultETHRPCURL,
			ChainID:           0, // detected from the node
			RequestsPerSecond: 20,
			Burst:             10,
		},
		Contract: ContractConfig{
			Address: DefaultContractAddress,
		},
		Catalog: CatalogConfig{
			Items: DefaultCatalog(),
		},
		Wallet: WalletConfig{
			Type:     WalletHD,
			Accounts: 5,
		},
		Purchase: PurchaseConfig{
			Mode:                PurchaseSingle,
			ConfirmPollInterval: 2 * time.Second,
			GasLimit:            200000,
		},
		Server: ServerConfig{
			Listen: DefaultListen,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.skillmint/skillmint.log",
		},
	}
}
