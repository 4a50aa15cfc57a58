package table

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var inPrinter = message.NewPrinter(language.MustParse("en-IN"))

// INR formats a rupee amount with en-IN digit grouping, rounded to whole rupees.
func INR(amount float64) string {
	return inPrinter.Sprintf("₹%d", int64(math.Round(amount)))
}

// CompactINR abbreviates large amounts the way listings quote them (lakh, crore).
func CompactINR(amount float64) string {
	switch abs := math.Abs(amount); {
	case abs >= 1e7:
		return fmt.Sprintf("₹%.2f Cr", amount/1e7)
	case abs >= 1e5:
		return fmt.Sprintf("₹%.2f L", amount/1e5)
	default:
		return INR(amount)
	}
}

// Number formats a count with en-IN digit grouping.
func Number(n int64) string {
	return inPrinter.Sprintf("%d", n)
}
