package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FromFloat converts a stored price into a decimal amount.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Format renders an amount with exactly two decimals, a comma as decimal
// separator and no thousands separator: 28.9 -> "28,90".
func Format(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// Parse accepts both "50.00" and "50,00".
func Parse(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(strings.Replace(value, ",", ".", 1))
}

func IsOnPromo(sellPrice float64, promoPrice *float64) bool {
	return promoPrice != nil && *promoPrice > 0 && *promoPrice < sellPrice
}

// EffectivePrice is the price a product is sold at right now.
func EffectivePrice(sellPrice float64, promoPrice *float64) decimal.Decimal {
	if IsOnPromo(sellPrice, promoPrice) {
		return FromFloat(*promoPrice)
	}
	return FromFloat(sellPrice)
}

func ValidatePromo(sellPrice float64, promoPrice *float64) error {
	if sellPrice < 0 {
		return fmt.Errorf("sellPrice must not be negative")
	}
	if promoPrice == nil {
		return nil
	}
	if *promoPrice <= 0 {
		return fmt.Errorf("promoPrice must be greater than 0")
	}
	if *promoPrice >= sellPrice {
		return fmt.Errorf("promoPrice must be less than sellPrice")
	}
	return nil
}

// Round brings an aggregated float amount back to cents.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Share is part as a percentage of whole with one decimal. An empty whole
// yields 0.
func Share(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		InexactFloat64()
}
