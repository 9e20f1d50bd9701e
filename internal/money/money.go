// Package money implements invoice amount arithmetic on integer minor
// units (cents). Quantities and percentage rates travel as decimal
// strings and are only materialized through shopspring/decimal so no
// float64 ever touches a monetary value.
package money

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Line is a single invoice line for totals computation.
type Line struct {
	// Quantity is a decimal string, e.g. "2" or "1.5". Blank or
	// unparseable quantities count as 1.
	Quantity string
	// UnitPrice is the per-unit price in minor units.
	UnitPrice int64
}

// Totals is the result of computing an invoice's amounts. All values
// are in minor units.
type Totals struct {
	Subtotal       int64
	DiscountAmount int64
	TaxAmount      int64
	Total          int64
}

// ParseQuantity parses a quantity string, falling back to 1 when the
// value is blank or not a valid decimal.
func ParseQuantity(s string) decimal.Decimal {
	if s == "" {
		return decimal.NewFromInt(1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return d
}

// ParseRate parses a percentage rate string such as "8.25", falling
// back to 0 when blank or unparseable.
func ParseRate(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// roundToMinorUnits rounds a decimal amount of minor units to a whole
// number using half-up rounding and returns it as int64.
func roundToMinorUnits(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// LineAmount returns quantity * unitPrice rounded to minor units.
func LineAmount(quantity string, unitPrice int64) int64 {
	qty := ParseQuantity(quantity)
	amount := qty.Mul(decimal.NewFromInt(unitPrice))
	return roundToMinorUnits(amount)
}

// ComputeTotals derives an invoice's amounts from its lines.
//
// Each line amount is rounded before summing. A non-blank
// discountPercent is a percentage of the subtotal and takes precedence;
// discountFlat is a flat amount in minor units used only when no
// percent is given. Tax applies to the post-discount amount. The
// discount is clamped so the taxable base never goes negative.
func ComputeTotals(lines []Line, discountPercent string, discountFlat *int64, taxRate string) Totals {
	subtotal := int64(0)
	for _, line := range lines {
		subtotal += LineAmount(line.Quantity, line.UnitPrice)
	}

	var discount int64
	if discountPercent != "" {
		pct := ParseRate(discountPercent)
		if !pct.IsZero() {
			discount = roundToMinorUnits(
				decimal.NewFromInt(subtotal).Mul(pct).Div(oneHundred),
			)
		}
	} else if discountFlat != nil {
		discount = *discountFlat
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	afterDiscount := subtotal - discount

	var tax int64
	rate := ParseRate(taxRate)
	if !rate.IsZero() {
		tax = roundToMinorUnits(
			decimal.NewFromInt(afterDiscount).Mul(rate).Div(oneHundred),
		)
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          afterDiscount + tax,
	}
}
