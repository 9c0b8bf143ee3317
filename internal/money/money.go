package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for monetary amounts.
const Scale int32 = 2

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrScaleExceeded  = fmt.Errorf("amount has more than %d fractional digits", Scale)
)

// Subtotal returns unitPrice * quantity without rounding.
func Subtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Validate checks that a price is non-negative and fits the configured scale.
func Validate(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !amount.Equal(amount.Truncate(Scale)) {
		return ErrScaleExceeded
	}
	return nil
}

// Parse reads a decimal string and validates it.
func Parse(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	if err := Validate(amount); err != nil {
		return decimal.Zero, fmt.Errorf("money: %q: %w", s, err)
	}
	return amount, nil
}

func MustParse(s string) decimal.Decimal {
	amount, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return amount
}
