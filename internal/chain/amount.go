package chain

import (
	"math/big"
	"strings"

	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

// ErrInvalidAmount indicates a malformed decimal amount.
var ErrInvalidAmount = &storeerr.StoreError{
	Code:     "INVALID_AMOUNT",
	Message:  "invalid amount",
	ExitCode: storeerr.ExitInput,
}

// ParseETH parses a decimal ETH string ("0.05") into wei.
func ParseETH(amount string) (*big.Int, error) {
	return ParseDecimalAmount(amount, ETHDecimals)
}

// FormatETH renders a wei amount as a decimal ETH string without trailing zeros.
// A nil amount renders as "0".
func FormatETH(wei *big.Int) string {
	return FormatDecimalAmount(wei, ETHDecimals)
}

// ParseDecimalAmount parses a non-negative decimal string into base units.
// Digits past decimalPlaces are truncated.
func ParseDecimalAmount(amount string, decimalPlaces int) (*big.Int, error) {
	if amount == "" || strings.HasPrefix(amount, "-") {
		return nil, ErrInvalidAmount
	}

	intPart, decPart, _ := strings.Cut(amount, ".")
	if strings.Contains(decPart, ".") {
		return nil, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(decPart) {
		return nil, ErrInvalidAmount
	}

	if len(decPart) > decimalPlaces {
		decPart = decPart[:decimalPlaces]
	}
	decPart += strings.Repeat("0", decimalPlaces-len(decPart))

	result, ok := new(big.Int).SetString(intPart+decPart, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	return result, nil
}

// FormatDecimalAmount renders base units with the given decimal places.
// For example, 1500000000000000000 with 18 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}

	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
		amount = new(big.Int).Abs(amount)
	}

	str := amount.String()
	if len(str) <= decimalPlaces {
		str = strings.Repeat("0", decimalPlaces-len(str)+1) + str
	}

	point := len(str) - decimalPlaces
	whole, frac := str[:point], strings.TrimRight(str[point:], "0")
	if frac == "" {
		return sign + whole
	}
	return sign + whole + "." + frac
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
