package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	got := computeTotals([]pricedLine{
		{UnitPrice: 100, Quantity: 2},
		{UnitPrice: 50, Quantity: 1},
	}, DefaultTaxPercent)

	assert.Equal(t, Totals{Quantity: 3, Subtotal: 250, Tax: 5, GrandTotal: 255}, got)
}

func TestComputeTotals_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, computeTotals(nil, DefaultTaxPercent))
}

// 端数は四捨五入（0.5は切り上げ）
func TestTaxOf_Rounding(t *testing.T) {
	cases := []struct {
		subtotal int64
		want     int64
	}{
		{125, 3},    // 2.5
		{124, 2},    // 2.48
		{74, 1},     // 1.48
		{75, 2},     // 1.5
		{1, 0},      // 0.02
		{9999, 200}, // 199.98
	}
	for _, c := range cases {
		assert.Equal(t, c.want, taxOf(c.subtotal, 2), "subtotal=%d", c.subtotal)
	}
}

func TestTaxOf_ConfiguredRate(t *testing.T) {
	assert.Equal(t, int64(100), taxOf(1000, 10))
	assert.Equal(t, int64(0), taxOf(1000, 0))
}
