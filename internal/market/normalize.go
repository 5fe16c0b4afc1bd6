package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Point is a percentage change relative to the first close of a series.
type Point struct {
	Time    time.Time
	Percent decimal.Decimal
}

// Performance is a normalized series.
type Performance struct {
	Symbol string
	Points []Point
}

// Last returns the most recent percentage change, or zero for an empty series.
func (p Performance) Last() decimal.Decimal {
	if len(p.Points) == 0 {
		return decimal.Zero
	}
	return p.Points[len(p.Points)-1].Percent
}

// Normalize maps each close to (close/base - 1) * 100 where base is the
// first non-zero close. A series without a non-zero close yields no points.
func Normalize(klines []Kline) []Point {
	base := decimal.Zero
	start := -1
	for i, k := range klines {
		if !k.Close.IsZero() {
			base = k.Close
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	hundred := decimal.NewFromInt(100)
	points := make([]Point, 0, len(klines)-start)
	for _, k := range klines[start:] {
		points = append(points, Point{
			Time:    k.CloseTime,
			Percent: k.Close.Div(base).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(4),
		})
	}
	return points
}

// NormalizeAll normalizes every series, keeping their order.
func NormalizeAll(series []Series) []Performance {
	out := make([]Performance, 0, len(series))
	for _, s := range series {
		out = append(out, Performance{Symbol: s.Symbol, Points: Normalize(s.Klines)})
	}
	return out
}
