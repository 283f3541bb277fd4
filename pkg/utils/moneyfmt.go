// Package utils provides common formatting helpers for wealthsim.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatMYR formats an amount in Malaysian Ringgit (RM 1,234,567.89).
func FormatMYR(amount float64) string {
	negative := amount < 0
	cents := int64(math.Round(math.Abs(amount) * 100))

	formatted := fmt.Sprintf("%s.%02d", formatGroupedNumber(cents/100), cents%100)

	if negative {
		return "-RM " + formatted
	}
	return "RM " + formatted
}

// FormatMYRCompact formats an amount in compact notation.
// e.g., 1250000 → "RM 1.25M", 350000 → "RM 350K"
func FormatMYRCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	prefix := "RM "
	if negative {
		prefix = "-RM "
	}

	switch {
	case amount >= 1e9:
		return fmt.Sprintf("%s%sB", prefix, formatWithDecimals(amount/1e9))
	case amount >= 1e6:
		return fmt.Sprintf("%s%sM", prefix, formatWithDecimals(amount/1e6))
	case amount >= 1e3:
		return fmt.Sprintf("%s%sK", prefix, formatWithDecimals(amount/1e3))
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// FormatRate renders a fractional rate as a percentage.
// e.g., 0.048 → "4.80%"
func FormatRate(frac float64) string {
	return fmt.Sprintf("%.2f%%", frac*100)
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// formatGroupedNumber formats an integer with thousands separators.
func formatGroupedNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(groups, ",")
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
