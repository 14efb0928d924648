// Package pricing implements the money and line-amount calculator for quotes.
// All functions are pure and side-effect free; they compute whatever they are
// given and leave input validation to the callers that gate mutations.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/arcadia-crm/quote-api/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// LineBaseAmount returns unitPrice multiplied by quantity.
func LineBaseAmount(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// LineExtendedAmount returns the net payable amount of a line:
// base minus discount plus tax.
func LineExtendedAmount(unitPrice decimal.Decimal, quantity int, discount, tax decimal.Decimal) decimal.Decimal {
	return LineBaseAmount(unitPrice, quantity).Sub(discount).Add(tax)
}

// DiscountPercentage returns the discount as a percentage of the base amount.
// A zero base yields zero rather than a division error.
func DiscountPercentage(base, discountAmount decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return discountAmount.Div(base).Mul(hundred)
}

// DiscountAmountFromPercentage converts a percentage into a monetary discount,
// rounded to 2 decimal places.
func DiscountAmountFromPercentage(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred).Round(2)
}

// TaxAmountFromPercentage converts a percentage into a monetary tax amount,
// rounded to 2 decimal places.
func TaxAmountFromPercentage(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred).Round(2)
}

// RecalculateLine refreshes the derived amounts of a line from its inputs.
// Called on every line write so derived fields never drift from the inputs.
func RecalculateLine(line *domain.QuoteLine) {
	line.BaseAmount = LineBaseAmount(line.UnitPrice, line.Quantity)
	line.ExtendedAmount = line.BaseAmount.Sub(line.ManualDiscount).Add(line.Tax)
}

// Totals holds document-level aggregates computed from a set of lines.
// TotalAmount always equals TotalLineAmount; freight and other document
// charges are additive extensions layered on elsewhere.
type Totals struct {
	TotalBaseAmount decimal.Decimal
	TotalLineAmount decimal.Decimal
	TotalDiscount   decimal.Decimal
	TotalTax        decimal.Decimal
	TotalAmount     decimal.Decimal
	LineCount       int
	TotalQuantity   int
}

// AggregateTotals sums base, extended, discount, and tax amounts across the
// given lines. An empty input yields an all-zero result.
func AggregateTotals(lines []domain.QuoteLine) Totals {
	t := Totals{
		TotalBaseAmount: decimal.Zero,
		TotalLineAmount: decimal.Zero,
		TotalDiscount:   decimal.Zero,
		TotalTax:        decimal.Zero,
		TotalAmount:     decimal.Zero,
	}
	for _, line := range lines {
		base := LineBaseAmount(line.UnitPrice, line.Quantity)
		t.TotalBaseAmount = t.TotalBaseAmount.Add(base)
		t.TotalLineAmount = t.TotalLineAmount.Add(base.Sub(line.ManualDiscount).Add(line.Tax))
		t.TotalDiscount = t.TotalDiscount.Add(line.ManualDiscount)
		t.TotalTax = t.TotalTax.Add(line.Tax)
		t.TotalQuantity += line.Quantity
	}
	t.LineCount = len(lines)
	t.TotalAmount = t.TotalLineAmount
	return t
}

// WeightedAveragePrice returns the quantity-weighted average unit price of the
// lines, or zero when the total quantity is zero.
func WeightedAveragePrice(lines []domain.QuoteLine) decimal.Decimal {
	totalValue := decimal.Zero
	totalQty := 0
	for _, line := range lines {
		totalValue = totalValue.Add(LineBaseAmount(line.UnitPrice, line.Quantity))
		totalQty += line.Quantity
	}
	if totalQty == 0 {
		return decimal.Zero
	}
	return totalValue.Div(decimal.NewFromInt(int64(totalQty))).Round(2)
}
