package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceChars = regexp.MustCompile(`[^0-9.,]`)
	nonDigits  = regexp.MustCompile(`[^0-9]`)
)

// ParsePrice reads a price as it is printed on a page ("€ 1.299,95",
// "79.99", "1,299.95"). The right-most separator is the decimal point; every
// other separator is a thousands mark.
func ParsePrice(raw string) (float64, bool) {
	s := strings.ReplaceAll(priceChars.ReplaceAllString(raw, ""), ",", ".")
	if s == "" {
		return 0, false
	}

	whole, frac := s, ""
	if i := strings.LastIndex(s, "."); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	whole = nonDigits.ReplaceAllString(whole, "")
	if frac != "" {
		whole += "." + frac
	}
	if whole == "" || whole == "." {
		return 0, false
	}

	v, err := strconv.ParseFloat(whole, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DiscountPercentage is how far price is below oldPrice, in percent. A
// missing price, an old price that is missing or not positive, or a price
// at or above the old one all mean no discount.
func DiscountPercentage(price *float64, oldPrice float64) float64 {
	if price == nil || oldPrice <= 0 || *price >= oldPrice {
		return 0.0
	}
	return (1.0 - *price/oldPrice) * 100.0
}
