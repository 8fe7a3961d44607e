// Package bridge folds filtered records into the forecast bridge and compares its
// subtotals with the year-over-year and plan references.
package bridge

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/forecast/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// References are the external figures the subtotals are compared with.
type References struct {
	YoY  decimal.Decimal
	Plan decimal.Decimal
}

// Aggregate sums the bridge lines for all deals and for the New Business cut.
// Subtotals are never stored, they are derived from the three summed lines.
func Aggregate(closedWon []domain.ClosedWonRecord, deals []domain.DealRecord) domain.BridgeResult {
	var result domain.BridgeResult

	for _, c := range closedWon {
		result.All.ClosedWon = result.All.ClosedWon.Add(c.ARR)
		if c.IsNewBusiness() {
			result.NewBusiness.ClosedWon = result.NewBusiness.ClosedWon.Add(c.ARR)
		}
	}

	for _, d := range deals {
		addDeal(&result.All, d)
		if d.IsNewBusiness() {
			addDeal(&result.NewBusiness, d)
		}
	}

	return result
}

func addDeal(t *domain.BridgeTotals, d domain.DealRecord) {
	switch d.Bucket {
	case domain.BucketForecast:
		t.In = t.In.Add(d.ARR)
	case domain.BucketBestCase:
		t.MostLikely = t.MostLikely.Add(d.ARR)
	}
}

// Variance is a subtotal measured against one reference. Percent is null when the
// reference is zero.
type Variance struct {
	Reference decimal.Decimal     `json:"reference"`
	Delta     decimal.Decimal     `json:"delta"`
	Percent   decimal.NullDecimal `json:"percent"`
}

// Available reports whether a percentage could be computed.
func (v Variance) Available() bool {
	return v.Percent.Valid
}

// NewVariance compares value with reference. A zero reference is never divided by.
func NewVariance(value, reference decimal.Decimal) Variance {
	v := Variance{
		Reference: reference,
		Delta:     value.Sub(reference),
	}
	if reference.IsZero() {
		return v
	}
	v.Percent = decimal.NewNullDecimal(v.Delta.Div(reference).Mul(hundred).Round(2))
	return v
}

// Line names a compared subtotal.
type Line string

const (
	LineClosestToPin Line = "closest_to_pin"
	LineUpside       Line = "upside"
)

// LineComparison is one subtotal with its variances.
type LineComparison struct {
	Line  Line            `json:"line"`
	Value decimal.Decimal `json:"value"`
	YoY   Variance        `json:"yoy"`
	Plan  Variance        `json:"plan"`
}

// Compare measures the closest-to-pin and upside subtotals against the references.
func Compare(totals domain.BridgeTotals, refs References) []LineComparison {
	lines := []struct {
		line  Line
		value decimal.Decimal
	}{
		{LineClosestToPin, totals.ClosestToPin()},
		{LineUpside, totals.Upside()},
	}

	out := make([]LineComparison, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineComparison{
			Line:  l.line,
			Value: l.value,
			YoY:   NewVariance(l.value, refs.YoY),
			Plan:  NewVariance(l.value, refs.Plan),
		})
	}
	return out
}
