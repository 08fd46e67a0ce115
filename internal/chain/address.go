package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// ErrInvalidChecksum indicates a mixed-case address whose EIP-55 checksum is wrong.
var ErrInvalidChecksum = &storeerr.StoreError{
	Code:     "INVALID_CHECKSUM",
	Message:  "address checksum mismatch",
	ExitCode: storeerr.ExitInput,
}

// ParseAddress parses a 0x-prefixed hex address. Mixed-case input must carry
// a valid EIP-55 checksum; all-lower and all-upper input is accepted as is.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) || !strings.HasPrefix(s, "0x") {
		return common.Address{}, storeerr.WithDetails(storeerr.ErrInvalidAddress, map[string]string{"address": s})
	}

	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if want := common.HexToAddress(s).Hex(); s != want {
			return common.Address{}, storeerr.WithDetails(ErrInvalidChecksum, map[string]string{
				"expected": want,
				"actual":   s,
			})
		}
	}
	return common.HexToAddress(s), nil
}
