package utils

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders an amount with thousands separators and two decimals, e.g. "₹3,250.00"
func FormatMoney(symbol string, amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	if strings.Trim(fixed, "0.") == "" {
		sign = ""
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + symbol + groupDigits(whole) + "." + frac
}

func groupDigits(whole string) string {
	if units, err := strconv.ParseInt(whole, 10, 64); err == nil {
		return printer.Sprintf("%d", units)
	}
	// Beyond int64 only
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
