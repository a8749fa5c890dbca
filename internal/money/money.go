package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrAmountTooLarge  = errors.New("amount is too large")
)

// Balances are stored as int64 minor units (cents). The bound matches a
// numeric(14,2) column.
var maxMajor = decimal.New(1, 12)

// MaxMinor is the first minor-unit amount that no longer fits the column.
var MaxMinor = maxMajor.Shift(2).IntPart()

// CheckMinor rejects amounts whose magnitude does not fit the column.
func CheckMinor(amountMinor int64) error {
	if amountMinor >= MaxMinor || amountMinor <= -MaxMinor {
		return ErrAmountTooLarge
	}
	return nil
}

func ParseMinor(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	if strings.ContainsAny(trimmed, "eE") {
		return 0, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if value.Exponent() < -2 {
		return 0, ErrTooManyDecimals
	}
	if value.Abs().GreaterThanOrEqual(maxMajor) {
		return 0, ErrAmountTooLarge
	}
	return value.Shift(2).IntPart(), nil
}

// ParsePositiveMinor parses an amount that must be strictly greater than zero.
func ParsePositiveMinor(input string) (int64, error) {
	amount, err := ParseMinor(input)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	formatted := fmt.Sprintf("%d.%02d", value/100, value%100)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// Convert applies rate to a minor-unit amount with banker's rounding. A
// product outside the column range returns ErrAmountTooLarge.
func Convert(amountMinor int64, rate decimal.Decimal) (int64, error) {
	converted := decimal.NewFromInt(amountMinor).Mul(rate).RoundBank(0)
	if converted.Abs().GreaterThanOrEqual(maxMajor.Shift(2)) {
		return 0, ErrAmountTooLarge
	}
	return converted.IntPart(), nil
}
