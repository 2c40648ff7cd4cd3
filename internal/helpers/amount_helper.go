package helpers

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cyphera/cyphera-agent/internal/constants"
)

// ParseAmount parses a base-unit integer amount from its decimal string form.
// Negative values and fractional values are rejected.
func ParseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

// ParsePositiveAmount is ParseAmount that also rejects zero.
func ParsePositiveAmount(value string) (*big.Int, error) {
	amount, err := ParseAmount(value)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	return amount, nil
}

// AmountString renders nil amounts as "0".
func AmountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

// CloneAmount returns an independent copy, treating nil as zero.
func CloneAmount(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(amount)
}

// ApplySlippage returns amount * (10000 - bps) / 10000, rounded down.
func ApplySlippage(amount *big.Int, bps uint32) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	if bps >= constants.BasisPointsDenominator {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, big.NewInt(int64(constants.BasisPointsDenominator-bps)))
	return out.Quo(out, big.NewInt(constants.BasisPointsDenominator))
}
