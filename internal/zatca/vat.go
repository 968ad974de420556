package zatca

import (
	"fmt"
	"math"
	"regexp"
)

// VATRate is the Saudi standard VAT rate.
const VATRate = 0.15

var vatNumberPattern = regexp.MustCompile(`^3\d{13}3$`)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// VATFromTotal extracts the VAT portion from a VAT-inclusive total.
func VATFromTotal(total float64) float64 {
	return round2(total - total/(1+VATRate))
}

// TotalFromVAT computes the VAT-inclusive total for a given VAT amount.
func TotalFromVAT(vat float64) float64 {
	return round2(vat * (1 + VATRate) / VATRate)
}

// ValidVATNumber reports whether s is a well-formed Saudi VAT registration
// number: 15 digits, starting and ending with 3.
func ValidVATNumber(s string) bool {
	return vatNumberPattern.MatchString(s)
}

// FormatVATNumber renders a valid VAT number in 3-4-4-4 display grouping.
// Invalid input is returned unchanged.
func FormatVATNumber(s string) string {
	if !ValidVATNumber(s) {
		return s
	}
	return fmt.Sprintf("%s %s %s %s", s[0:3], s[3:7], s[7:11], s[11:15])
}

// Amount renders a monetary value as the fixed two-decimal string carried in
// TLV records.
func Amount(v float64) string {
	return fmt.Sprintf("%.2f", round2(v))
}
