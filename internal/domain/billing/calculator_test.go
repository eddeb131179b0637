package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(qty, price, tax int64) LineInput {
	return LineInput{
		Quantity:      decimal.NewFromInt(qty),
		UnitPrice:     decimal.NewFromInt(price),
		TaxPercentage: decimal.NewFromInt(tax),
	}
}

func TestCompute_GstExcluded(t *testing.T) {
	t.Run("single item without discount", func(t *testing.T) {
		// qty 2 × 100 at 18% excluded
		totals, err := Compute([]LineInput{line(2, 100, 18)}, false, decimal.Zero, "")
		require.NoError(t, err)

		assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(200)))
		assert.True(t, totals.ValueOfGoods.Equal(decimal.NewFromInt(200)))
		assert.True(t, totals.TotalGst.Equal(decimal.NewFromInt(36)))
		assert.True(t, totals.TotalAmount.Equal(decimal.NewFromInt(236)))
	})

	t.Run("total equals value of goods plus gst", func(t *testing.T) {
		items := []LineInput{line(2, 100, 18), line(3, 45, 12), line(1, 999, 28)}
		totals, err := Compute(items, false, decimal.NewFromInt(5), DiscountTypePercentage)
		require.NoError(t, err)

		assert.True(t, totals.TotalAmount.Equal(totals.ValueOfGoods.Add(totals.TotalGst)))
	})

	t.Run("percentage discount", func(t *testing.T) {
		totals, err := Compute([]LineInput{line(2, 100, 18)}, false, decimal.NewFromInt(10), DiscountTypePercentage)
		require.NoError(t, err)

		assert.True(t, totals.Lines[0].DiscountedBase.Equal(decimal.NewFromInt(180)))
		assert.True(t, totals.TotalGst.Equal(decimal.NewFromFloat(32.4)))
		assert.True(t, totals.TotalAmount.Equal(decimal.NewFromFloat(212.4)))
	})
}

func TestCompute_GstIncluded(t *testing.T) {
	t.Run("extracts tax instead of adding it", func(t *testing.T) {
		// 118 inclusive of 18% → 100 goods + 18 tax
		totals, err := Compute([]LineInput{line(1, 118, 18)}, true, decimal.Zero, "")
		require.NoError(t, err)

		assert.True(t, totals.TotalGst.Round(2).Equal(decimal.NewFromInt(18)))
		assert.True(t, totals.ValueOfGoods.Round(2).Equal(decimal.NewFromInt(100)))
		assert.True(t, totals.TotalAmount.Equal(decimal.NewFromInt(118)))
	})

	t.Run("goods plus gst reconstruct the discounted subtotal", func(t *testing.T) {
		items := []LineInput{line(4, 118, 18), line(2, 56, 12)}
		discount := decimal.NewFromInt(50)
		totals, err := Compute(items, true, discount, DiscountTypeAmount)
		require.NoError(t, err)

		discountedSubtotal := totals.Subtotal.Sub(discount)
		sum := totals.ValueOfGoods.Add(totals.TotalGst)
		assert.True(t, sum.Sub(discountedSubtotal).Abs().LessThan(decimal.NewFromFloat(0.01)),
			"goods %s + gst %s should equal %s", totals.ValueOfGoods, totals.TotalGst, discountedSubtotal)
	})
}

func TestCompute_AmountDiscountDistribution(t *testing.T) {
	t.Run("discounted bases sum to subtotal minus discount", func(t *testing.T) {
		items := []LineInput{line(2, 100, 18), line(7, 33, 5), line(1, 450, 28), line(12, 9, 0)}
		discount := decimal.NewFromFloat(76.53)

		totals, err := Compute(items, false, discount, DiscountTypeAmount)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, l := range totals.Lines {
			sum = sum.Add(l.DiscountedBase)
		}
		expected := totals.Subtotal.Sub(discount)
		assert.True(t, sum.Sub(expected).Abs().LessThan(decimal.NewFromFloat(0.01)),
			"Σ discountedBase %s should equal %s", sum, expected)
	})

	t.Run("same property holds for percentage discount", func(t *testing.T) {
		items := []LineInput{line(3, 150, 18), line(5, 20, 12)}
		totals, err := Compute(items, false, decimal.NewFromInt(15), DiscountTypePercentage)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, l := range totals.Lines {
			sum = sum.Add(l.DiscountedBase)
		}
		discountValue := totals.Subtotal.Mul(decimal.NewFromFloat(0.15))
		expected := totals.Subtotal.Sub(discountValue)
		assert.True(t, sum.Sub(expected).Abs().LessThan(decimal.NewFromFloat(0.01)))
	})
}

func TestCompute_LooseQuantity(t *testing.T) {
	// 2 packs of 10 at 120 plus 5 loose units priced at 120/10 each
	item := LineInput{
		Quantity:      decimal.NewFromInt(2),
		LooseQuantity: decimal.NewFromInt(5),
		PackSize:      decimal.NewFromInt(10),
		UnitPrice:     decimal.NewFromInt(120),
		TaxPercentage: decimal.NewFromInt(18),
	}
	totals, err := Compute([]LineInput{item}, false, decimal.Zero, "")
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(300))) // 240 + 60
}

func TestCompute_PackSizeDefaultsToOne(t *testing.T) {
	item := LineInput{
		Quantity:      decimal.NewFromInt(1),
		LooseQuantity: decimal.NewFromInt(3),
		UnitPrice:     decimal.NewFromInt(50),
		TaxPercentage: decimal.Zero,
	}
	totals, err := Compute([]LineInput{item}, false, decimal.Zero, "")
	require.NoError(t, err)

	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(200))) // 50 + 3×50
}

func TestCompute_CgstSgstSplit(t *testing.T) {
	totals, err := Compute([]LineInput{line(2, 100, 18)}, false, decimal.Zero, "")
	require.NoError(t, err)

	assert.True(t, totals.Cgst.Equal(decimal.NewFromInt(18)))
	assert.True(t, totals.Sgst.Equal(decimal.NewFromInt(18)))
	assert.True(t, totals.Cgst.Add(totals.Sgst).Equal(totals.TotalGst))
}

func TestCompute_Validation(t *testing.T) {
	t.Run("rejects empty items", func(t *testing.T) {
		_, err := Compute(nil, false, decimal.Zero, "")
		assert.Error(t, err)
	})

	t.Run("rejects negative discount", func(t *testing.T) {
		_, err := Compute([]LineInput{line(1, 100, 18)}, false, decimal.NewFromInt(-5), DiscountTypeAmount)
		assert.Error(t, err)
	})

	t.Run("rejects unknown discount type", func(t *testing.T) {
		_, err := Compute([]LineInput{line(1, 100, 18)}, false, decimal.NewFromInt(5), "COUPON")
		assert.Error(t, err)
	})

	t.Run("rejects amount discount above subtotal", func(t *testing.T) {
		_, err := Compute([]LineInput{line(1, 100, 18)}, false, decimal.NewFromInt(101), DiscountTypeAmount)
		assert.Error(t, err)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := Compute([]LineInput{{Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(10)}}, false, decimal.Zero, "")
		assert.Error(t, err)
	})
}

func TestTotals_Rounded(t *testing.T) {
	items := []LineInput{line(3, 33, 18)}
	totals, err := Compute(items, true, decimal.NewFromFloat(7.77), DiscountTypeAmount)
	require.NoError(t, err)

	rounded := totals.Rounded()
	assert.True(t, rounded.TotalGst.Equal(rounded.TotalGst.Round(2)))
	assert.True(t, rounded.TotalAmount.Equal(rounded.TotalAmount.Round(2)))
	// invariant survives rounding within tolerance
	diff := rounded.TotalAmount.Sub(rounded.ValueOfGoods.Add(rounded.TotalGst)).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)))
}
