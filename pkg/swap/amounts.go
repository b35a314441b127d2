package swap

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount arithmetic policy: raw smallest-unit amounts are big.Int,
// adjustments are integer basis points on those, and conversion to
// human-readable strings happens only at the presentation boundary.

const bpsDenominator = 10_000

// ParseTokenValue converts a human-readable amount ("1.5") into a raw
// smallest-unit decimal string for a token with the given decimals.
// Fraction digits beyond the token's precision are truncated.
func ParseTokenValue(amount string, decimals int) (string, error) {
	if amount == "" {
		return "", fmt.Errorf("empty value")
	}
	// Token amounts are unsigned. big.Int would accept a sign on the
	// integer part but not the fraction, mangling the value.
	if strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return "", fmt.Errorf("invalid amount: %s", amount)
	}

	separator := "."
	if strings.Contains(amount, ",") && !strings.Contains(amount, ".") {
		separator = ","
	}
	parts := strings.SplitN(amount, separator, 2)

	integer, ok := new(big.Int).SetString(parts[0], 10)
	if !ok {
		return "", fmt.Errorf("invalid amount: %s", amount)
	}

	scale := pow10(decimals)
	raw := new(big.Int).Mul(integer, scale)

	if len(parts) == 2 && parts[1] != "" {
		fractionDigits := parts[1]
		if len(fractionDigits) > decimals {
			fractionDigits = fractionDigits[:decimals]
		}
		fraction, ok := new(big.Int).SetString(fractionDigits, 10)
		if !ok {
			return "", fmt.Errorf("invalid amount: %s", amount)
		}
		fraction.Mul(fraction, pow10(decimals-len(fractionDigits)))
		raw.Add(raw, fraction)
	}

	return raw.String(), nil
}

// FormatReadableAmount converts a raw smallest-unit decimal string into
// a human-readable amount, truncated to at most truncate fraction
// digits.
func FormatReadableAmount(value string, decimals, truncate int) (string, error) {
	if value == "" {
		return "", fmt.Errorf("empty value")
	}

	raw, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return "", fmt.Errorf("invalid raw amount: %s", value)
	}

	scale := pow10(decimals)
	integer, fraction := new(big.Int).QuoRem(raw, scale, new(big.Int))

	if fraction.Sign() == 0 {
		return integer.String(), nil
	}

	fractionString := fraction.String()
	padded := strings.Repeat("0", decimals-len(fractionString)) + fractionString
	trimmed := strings.TrimRight(padded, "0")
	if truncate > 0 && len(trimmed) > truncate {
		trimmed = trimmed[:truncate]
	}
	if trimmed == "" {
		return integer.String(), nil
	}

	return integer.String() + "." + trimmed, nil
}

// TruncateDecimals cuts a human-readable amount to at most the given
// fraction digits without rounding.
func TruncateDecimals(readableAmount string, decimals int) string {
	parts := strings.SplitN(readableAmount, ".", 2)
	if len(parts) == 1 || decimals <= 0 || parts[1] == "" {
		return parts[0]
	}
	fraction := parts[1]
	if len(fraction) > decimals {
		fraction = fraction[:decimals]
	}
	return parts[0] + "." + fraction
}

// ApplyBpsUp scales a raw amount up by bps basis points, rounding down.
func ApplyBpsUp(value *big.Int, bps int64) *big.Int {
	scaled := new(big.Int).Mul(value, big.NewInt(bpsDenominator+bps))
	return scaled.Div(scaled, big.NewInt(bpsDenominator))
}

// ApplyBpsDown scales a raw amount down by bps basis points, rounding
// down.
func ApplyBpsDown(value *big.Int, bps int64) *big.Int {
	scaled := new(big.Int).Mul(value, big.NewInt(bpsDenominator-bps))
	return scaled.Div(scaled, big.NewInt(bpsDenominator))
}

// ApplyBpsUpString is ApplyBpsUp over decimal strings.
func ApplyBpsUpString(value string, bps int64) (string, error) {
	raw, err := parseRaw(value)
	if err != nil {
		return "", err
	}
	return ApplyBpsUp(raw, bps).String(), nil
}

// ApplyBpsDownString is ApplyBpsDown over decimal strings.
func ApplyBpsDownString(value string, bps int64) (string, error) {
	raw, err := parseRaw(value)
	if err != nil {
		return "", err
	}
	return ApplyBpsDown(raw, bps).String(), nil
}

// BestPrice divides two human-readable amounts, output over input.
func BestPrice(outReadable, inReadable string) (string, error) {
	out, err := decimal.NewFromString(outReadable)
	if err != nil {
		return "", fmt.Errorf("invalid output amount %q: %w", outReadable, err)
	}
	in, err := decimal.NewFromString(inReadable)
	if err != nil {
		return "", fmt.Errorf("invalid input amount %q: %w", inReadable, err)
	}
	if in.IsZero() {
		return "", fmt.Errorf("zero input amount")
	}
	return out.DivRound(in, 18).Truncate(8).String(), nil
}

func parseRaw(value string) (*big.Int, error) {
	raw, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid raw amount: %s", value)
	}
	return raw, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
