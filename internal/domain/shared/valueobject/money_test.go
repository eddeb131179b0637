package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inr(s string) Money {
	return NewMoneyINR(decimal.RequireFromString(s))
}

func TestNewMoney(t *testing.T) {
	t.Run("carries amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("499.50"), INR)
		require.NoError(t, err)
		assert.Equal(t, INR, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("499.50")))
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		assert.Error(t, err)
	})
}

func TestMoneyPredicates(t *testing.T) {
	assert.True(t, inr("0").IsZero())
	assert.True(t, inr("118.00").IsPositive())
	assert.True(t, inr("-5").IsNegative())
	assert.False(t, inr("0").IsNegative())
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := inr("100.50").Add(inr("49.50"))
		require.NoError(t, err)
		assert.True(t, sum.Equals(inr("150.00")))
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := inr("150").Subtract(inr("49.50"))
		require.NoError(t, err)
		assert.True(t, diff.Equals(inr("100.50")))
	})

	t.Run("refuses cross-currency math", func(t *testing.T) {
		usd, err := NewMoney(decimal.NewFromInt(10), "USD")
		require.NoError(t, err)

		_, err = inr("10").Add(usd)
		assert.Error(t, err)
		_, err = inr("10").Subtract(usd)
		assert.Error(t, err)
	})
}

func TestMoneyComparison(t *testing.T) {
	t.Run("orders amounts", func(t *testing.T) {
		less, err := inr("99.99").LessThan(inr("100"))
		require.NoError(t, err)
		assert.True(t, less)

		greater, err := inr("100.01").GreaterThan(inr("100"))
		require.NoError(t, err)
		assert.True(t, greater)
	})

	t.Run("equality needs both amount and currency", func(t *testing.T) {
		usd, err := NewMoney(decimal.NewFromInt(100), "USD")
		require.NoError(t, err)
		assert.True(t, inr("100").Equals(inr("100.00")))
		assert.False(t, inr("100").Equals(usd))
	})

	t.Run("refuses cross-currency ordering", func(t *testing.T) {
		usd, err := NewMoney(decimal.NewFromInt(1), "USD")
		require.NoError(t, err)
		_, err = inr("10").LessThan(usd)
		assert.Error(t, err)
	})
}

func TestMoneyPointsConversion(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"whole amount", "250.00", 250},
		{"fraction forfeited", "250.99", 250},
		{"sub-rupee refund yields nothing", "0.75", 0},
		{"zero", "0", 0},
		// A negative adjustment truncates toward zero the same way a
		// positive one does, so Floor and WholeUnits always agree.
		{"negative adjustment", "-2.50", -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := inr(tt.amount)
			assert.Equal(t, tt.want, m.WholeUnits())
			assert.Equal(t, tt.want, m.Floor().WholeUnits())
		})
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "118.00 INR", inr("118").String())
	assert.Equal(t, "99.99 INR", inr("99.99").String())
}
