package money

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestLineAmount(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice int64
		want      int64
	}{
		{name: "whole quantity", quantity: "2", unitPrice: 500, want: 1000},
		{name: "fractional quantity", quantity: "1.5", unitPrice: 333, want: 500},
		{name: "rounds half up", quantity: "0.5", unitPrice: 25, want: 13},
		{name: "blank quantity defaults to one", quantity: "", unitPrice: 750, want: 750},
		{name: "garbage quantity defaults to one", quantity: "two", unitPrice: 750, want: 750},
		{name: "zero quantity", quantity: "0", unitPrice: 500, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineAmount(tt.quantity, tt.unitPrice))
		})
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name            string
		lines           []Line
		discountPercent string
		discountFlat    *int64
		taxRate         string
		want            Totals
	}{
		{
			name:    "tax only",
			lines:   []Line{{Quantity: "2", UnitPrice: 500}},
			taxRate: "10",
			want:    Totals{Subtotal: 1000, DiscountAmount: 0, TaxAmount: 100, Total: 1100},
		},
		{
			name:            "percent discount before tax",
			lines:           []Line{{Quantity: "1", UnitPrice: 10000}},
			discountPercent: "10",
			taxRate:         "8.25",
			want:            Totals{Subtotal: 10000, DiscountAmount: 1000, TaxAmount: 743, Total: 9743},
		},
		{
			name:         "flat discount when no percent given",
			lines:        []Line{{Quantity: "1", UnitPrice: 10000}},
			discountFlat: lo.ToPtr(int64(2500)),
			taxRate:      "10",
			want:         Totals{Subtotal: 10000, DiscountAmount: 2500, TaxAmount: 750, Total: 8250},
		},
		{
			name:            "percent discount takes precedence over flat",
			lines:           []Line{{Quantity: "1", UnitPrice: 10000}},
			discountPercent: "50",
			discountFlat:    lo.ToPtr(int64(2500)),
			taxRate:         "10",
			want:            Totals{Subtotal: 10000, DiscountAmount: 5000, TaxAmount: 500, Total: 5500},
		},
		{
			name:         "flat discount clamped to subtotal",
			lines:        []Line{{Quantity: "1", UnitPrice: 1000}},
			discountFlat: lo.ToPtr(int64(5000)),
			taxRate:      "10",
			want:         Totals{Subtotal: 1000, DiscountAmount: 1000, TaxAmount: 0, Total: 0},
		},
		{
			name:  "lines rounded before summing",
			lines: []Line{{Quantity: "0.5", UnitPrice: 25}, {Quantity: "0.5", UnitPrice: 25}},
			want:  Totals{Subtotal: 26, Total: 26},
		},
		{
			name: "no lines",
			want: Totals{},
		},
		{
			name:            "unparseable rates treated as zero",
			lines:           []Line{{Quantity: "3", UnitPrice: 200}},
			discountPercent: "n/a",
			taxRate:         "n/a",
			want:            Totals{Subtotal: 600, Total: 600},
		},
		{
			name:         "negative flat discount ignored",
			lines:        []Line{{Quantity: "1", UnitPrice: 1000}},
			discountFlat: lo.ToPtr(int64(-500)),
			want:         Totals{Subtotal: 1000, Total: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines, tt.discountPercent, tt.discountFlat, tt.taxRate)
			assert.Equal(t, tt.want, got)
		})
	}
}
