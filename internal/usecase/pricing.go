package usecase

import "github.com/shopspring/decimal"

// 税率の既定値（%）
const DefaultTaxPercent int64 = 2

type Totals struct {
	Quantity   int64 `json:"quantity"`
	Subtotal   int64 `json:"subtotal"`
	Tax        int64 `json:"tax"`
	GrandTotal int64 `json:"grand_total"`
}

type pricedLine struct {
	UnitPrice int64
	Quantity  int64
}

// 小計 = Σ 単価×数量、税 = 小計×税率 を四捨五入、合計 = 小計 + 税
func computeTotals(lines []pricedLine, taxPercent int64) Totals {
	var t Totals
	for _, l := range lines {
		t.Subtotal += l.UnitPrice * l.Quantity
		t.Quantity += l.Quantity
	}
	t.Tax = taxOf(t.Subtotal, taxPercent)
	t.GrandTotal = t.Subtotal + t.Tax
	return t
}

func taxOf(subtotal int64, taxPercent int64) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(taxPercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
