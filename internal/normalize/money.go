package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// CleanNumeric parses a loosely formatted amount or quantity.
// "(12.50)" is read as -12.50, currency symbols and thousands separators are
// dropped, and empty or unparseable input yields 0.
func CleanNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = nonNumeric.ReplaceAllString(s, "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	if negative {
		d = d.Neg()
	}
	return d.InexactFloat64()
}

// Round2 rounds a money amount to cents.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Sum2 adds amounts exactly and rounds the total to cents.
func Sum2(vs []float64) float64 {
	var total decimal.Decimal
	for _, v := range vs {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
