package aggregate

import (
	"github.com/shopspring/decimal"
)

// Palette is the colour cycle used for chart slices.
var Palette = []string{
	"#36A2EB",
	"#FF6384",
	"#FF9F40",
	"#FFCD56",
	"#4BC0C0",
	"#9966FF",
	"#C9CBCF",
	"#3366CC",
	"#DC3912",
	"#FF9900",
	"#109618",
}

// Slice is one labelled share of a chart.
type Slice struct {
	Label      string
	Color      string
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

// ChartDataset turns category totals into chart slices. Values are absolute
// and percentages are shares of the absolute total, rounded to two places.
func ChartDataset(totals []CategoryTotal) []Slice {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Total.Abs())
	}

	hundred := decimal.NewFromInt(100)
	slices := make([]Slice, 0, len(totals))
	for i, t := range totals {
		value := t.Total.Abs()
		pct := decimal.Zero
		if !sum.IsZero() {
			pct = value.Div(sum).Mul(hundred).Round(2)
		}
		slices = append(slices, Slice{
			Label:      t.Name,
			Color:      Palette[i%len(Palette)],
			Value:      value,
			Percentage: pct,
		})
	}
	return slices
}
