// Package contract binds the SkillMint course-store contract to a chain backend.
package contract

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/mrz1836/skillmint/internal/config"
)

// Contract method names.
const (
	MethodCoursePrice = "getCoursePrice"
	MethodHasAccess   = "hasAccess"
	MethodPurchase    = "purchaseCourse"
)

//go:embed abi.json
var defaultABI []byte

// DefaultABI parses the built-in course-store interface description.
func DefaultABI() (abi.ABI, error) {
	return ParseABI(defaultABI)
}

// ParseABI parses an interface description and checks it exposes the
// methods the storefront calls.
func ParseABI(data []byte) (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract abi: %w", err)
	}
	for _, name := range []string{MethodCoursePrice, MethodHasAccess, MethodPurchase} {
		if _, ok := parsed.Methods[name]; !ok {
			return abi.ABI{}, fmt.Errorf("contract abi: %w: %s", ErrMissingMethod, name)
		}
	}
	return parsed, nil
}

// LoadABI reads the interface description from path, or returns the
// built-in one when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	if path == "" {
		return DefaultABI()
	}
	// #nosec G304 -- abi path comes from user config
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read contract abi: %w", err)
	}
	return ParseABI(data)
}
