package billing

import (
	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DiscountType determines how a document-level discount is applied
type DiscountType string

const (
	// DiscountTypePercentage applies the same percentage to every line
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	// DiscountTypeAmount distributes a flat amount across lines in
	// proportion to each line's share of the subtotal
	DiscountTypeAmount DiscountType = "AMOUNT"
)

// IsValid checks if the discount type is valid
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeAmount
}

// LineInput is one line item fed into the calculator
type LineInput struct {
	Quantity      decimal.Decimal
	LooseQuantity decimal.Decimal // sub-pack units sold loose
	PackSize      decimal.Decimal // units per pack; zero means 1
	UnitPrice     decimal.Decimal // price per pack
	TaxPercentage decimal.Decimal // GST rate for this product category
}

// LineAmounts is the calculator's per-line result
type LineAmounts struct {
	BaseAmount     decimal.Decimal // quantity×price + loose portion, pre-discount
	DiscountedBase decimal.Decimal // base after document discount share
	Gst            decimal.Decimal
	Total          decimal.Decimal // what the line contributes to the grand total
}

// Totals is the calculator's aggregate result
type Totals struct {
	Subtotal     decimal.Decimal // Σ base amounts, pre-discount pre-tax
	ValueOfGoods decimal.Decimal // taxable value after discount, excluding GST
	TotalGst     decimal.Decimal
	Cgst         decimal.Decimal // TotalGst / 2
	Sgst         decimal.Decimal // TotalGst / 2
	TotalAmount  decimal.Decimal
	Lines        []LineAmounts
}

// Rounded returns a copy with every monetary field rounded to 2 decimal
// places. Rounding happens only here, at the persistence/display
// boundary; accumulation above runs at full precision so rounding error
// does not compound across lines.
func (t Totals) Rounded() Totals {
	out := Totals{
		Subtotal:     t.Subtotal.Round(2),
		ValueOfGoods: t.ValueOfGoods.Round(2),
		TotalGst:     t.TotalGst.Round(2),
		Cgst:         t.Cgst.Round(2),
		Sgst:         t.Sgst.Round(2),
		TotalAmount:  t.TotalAmount.Round(2),
		Lines:        make([]LineAmounts, len(t.Lines)),
	}
	for i, l := range t.Lines {
		out.Lines[i] = LineAmounts{
			BaseAmount:     l.BaseAmount.Round(2),
			DiscountedBase: l.DiscountedBase.Round(2),
			Gst:            l.Gst.Round(2),
			Total:          l.Total.Round(2),
		}
	}
	return out
}

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Compute derives subtotal, taxable value, GST and grand total for a
// set of line items.
//
// When gstIncluded is false, tax is additive: each line contributes
// discountedBase + discountedBase×rate/100 to the total. When
// gstIncluded is true, the unit price already contains tax; the GST
// portion is extracted as discountedBase×rate/(100+rate) and the total
// equals the discounted base unchanged.
//
// An AMOUNT discount is distributed proportionally to each line's share
// of the subtotal, so Σ discountedBase == subtotal − discount up to
// floating rounding. A PERCENTAGE discount is applied per line.
func Compute(items []LineInput, gstIncluded bool, discount decimal.Decimal, discountType DiscountType) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, shared.NewValidationError("at least one line item is required")
	}
	if discount.IsNegative() {
		return Totals{}, shared.NewValidationError("discount cannot be negative")
	}
	if !discount.IsZero() && !discountType.IsValid() {
		return Totals{}, shared.NewValidationError("invalid discount type")
	}

	totals := Totals{Lines: make([]LineAmounts, len(items))}

	for i, item := range items {
		if item.Quantity.IsNegative() || item.LooseQuantity.IsNegative() {
			return Totals{}, shared.NewValidationError("item quantity cannot be negative")
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, shared.NewValidationError("item unit price cannot be negative")
		}
		if item.TaxPercentage.IsNegative() {
			return Totals{}, shared.NewValidationError("item tax percentage cannot be negative")
		}

		packSize := item.PackSize
		if packSize.IsZero() {
			packSize = decimal.NewFromInt(1)
		}

		base := item.Quantity.Mul(item.UnitPrice)
		if !item.LooseQuantity.IsZero() {
			base = base.Add(item.LooseQuantity.Mul(item.UnitPrice.Div(packSize)))
		}
		totals.Lines[i].BaseAmount = base
		totals.Subtotal = totals.Subtotal.Add(base)
	}

	if discountType == DiscountTypeAmount && discount.GreaterThan(totals.Subtotal) {
		return Totals{}, shared.NewValidationError("discount cannot exceed subtotal")
	}
	if discountType == DiscountTypePercentage && discount.GreaterThan(hundred) {
		return Totals{}, shared.NewValidationError("percentage discount cannot exceed 100")
	}

	for i, item := range items {
		base := totals.Lines[i].BaseAmount

		discounted := base
		if !discount.IsZero() {
			switch discountType {
			case DiscountTypePercentage:
				discounted = base.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
			case DiscountTypeAmount:
				// each line absorbs its proportional share of the
				// flat discount: base − (discount/subtotal)×base
				if !totals.Subtotal.IsZero() {
					discounted = base.Sub(discount.Div(totals.Subtotal).Mul(base))
				}
			}
		}
		totals.Lines[i].DiscountedBase = discounted

		rate := item.TaxPercentage
		if gstIncluded {
			gst := discounted.Mul(rate).Div(hundred.Add(rate))
			totals.Lines[i].Gst = gst
			totals.Lines[i].Total = discounted
			totals.ValueOfGoods = totals.ValueOfGoods.Add(discounted.Sub(gst))
			totals.TotalGst = totals.TotalGst.Add(gst)
			totals.TotalAmount = totals.TotalAmount.Add(discounted)
		} else {
			gst := discounted.Mul(rate).Div(hundred)
			totals.Lines[i].Gst = gst
			totals.Lines[i].Total = discounted.Add(gst)
			totals.ValueOfGoods = totals.ValueOfGoods.Add(discounted)
			totals.TotalGst = totals.TotalGst.Add(gst)
			totals.TotalAmount = totals.TotalAmount.Add(discounted.Add(gst))
		}
	}

	totals.Cgst = totals.TotalGst.Div(two)
	totals.Sgst = totals.TotalGst.Div(two)

	return totals, nil
}
