package domain

import "github.com/shopspring/decimal"

// DefaultTaxRate is the workshop tax applied to quote subtotals.
var DefaultTaxRate = decimal.RequireFromString("0.12")

// Quote is the advisory monetary total derived from a work order's items.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CalculateQuote sums quantity x unit price across items without intermediate
// rounding and rounds only the tax, half-up, to two decimal places.
func CalculateQuote(items []LineItem, taxRate decimal.Decimal) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	// Round is half away from zero, which equals half-up for non-negative amounts.
	tax := subtotal.Mul(taxRate).Round(2)
	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Equal compares quotes by value.
func (q Quote) Equal(other Quote) bool {
	return q.Subtotal.Equal(other.Subtotal) && q.Tax.Equal(other.Tax) && q.Total.Equal(other.Total)
}
