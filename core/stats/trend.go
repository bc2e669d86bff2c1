// Package stats holds the small numeric helpers shared by the dashboards.
package stats

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Trend is the month-over-month change shown next to a dashboard figure.
type Trend struct {
	Value      decimal.Decimal `json:"value"` // absolute percentage, 1 decimal place
	IsPositive bool            `json:"is_positive"`
}

// CalcTrend compares current with previous.
// With nothing to compare to, growth from zero counts as +100% and zero stays flat.
func CalcTrend(current, previous decimal.Decimal) Trend {
	if previous.IsZero() {
		if current.IsZero() {
			return Trend{Value: decimal.Zero, IsPositive: true}
		}
		return Trend{Value: hundred, IsPositive: current.IsPositive()}
	}
	pct := current.Sub(previous).Div(previous.Abs()).Mul(hundred)
	return Trend{Value: pct.Abs().Round(1), IsPositive: !pct.IsNegative()}
}

// Inverted flips the sign of a trend, for figures where a decrease is good news (costs).
func (t Trend) Inverted() Trend {
	if t.Value.IsZero() {
		return t
	}
	return Trend{Value: t.Value, IsPositive: !t.IsPositive}
}

// Percent returns part/total*100, or zero when total is zero.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(1)
}
