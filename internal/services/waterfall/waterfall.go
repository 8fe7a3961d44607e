// Package waterfall lays out the pipeline bridge from the comparison snapshot to the
// current pipeline as anchor bars and floating delta bars.
package waterfall

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// EndLabel labels the ending anchor.
const EndLabel = "Current Pipeline"

// stepOrder is the chaining order of the steps, not the canonical change order.
var stepOrder = []domain.ChangeType{
	domain.ChangeNew,
	domain.ChangeARRIncrease,
	domain.ChangeARRDecrease,
	domain.ChangePushed,
	domain.ChangeSlipped,
	domain.ChangeClosedWon,
	domain.ChangeClosedLost,
}

// StepOrder returns the change types that produce waterfall steps, in chaining order.
func StepOrder() []domain.ChangeType {
	out := make([]domain.ChangeType, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// Kind tells anchors from floating deltas.
type Kind string

const (
	KindAnchor Kind = "anchor"
	KindDelta  Kind = "delta"
)

// Delta is one named step of the bridge.
type Delta struct {
	Type  domain.ChangeType
	Value decimal.Decimal
}

// Slot is a row's position as fractions of the drawing area. Left and Width run along
// the horizontal axis; Top and Bottom are heights above the shared zero baseline relative
// to the largest absolute value in the layout.
type Slot struct {
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Row is one bar. Anchors carry Value with Before and After equal to it; deltas carry
// Delta with the running totals around it.
type Row struct {
	Label  string
	Kind   Kind
	Value  decimal.Decimal
	Delta  decimal.Decimal
	Before decimal.Decimal
	After  decimal.Decimal
	Slot   Slot
}

// IsAnchor reports whether the row is one of the two bounding totals.
func (r Row) IsAnchor() bool {
	return r.Kind == KindAnchor
}

// MarshalJSON emits value for anchors and delta for floating rows.
func (r Row) MarshalJSON() ([]byte, error) {
	type row struct {
		Label  string           `json:"label"`
		Kind   Kind             `json:"kind"`
		Value  *decimal.Decimal `json:"value,omitempty"`
		Delta  *decimal.Decimal `json:"delta,omitempty"`
		Before decimal.Decimal  `json:"before"`
		After  decimal.Decimal  `json:"after"`
		Slot   Slot             `json:"slot"`
	}

	out := row{Label: r.Label, Kind: r.Kind, Before: r.Before, After: r.After, Slot: r.Slot}
	if r.IsAnchor() {
		out.Value = &r.Value
	} else {
		out.Delta = &r.Delta
	}
	return json.Marshal(out)
}

// Layout is the positioned bridge.
type Layout struct {
	Rows []Row `json:"rows"`
	// Start and End are the anchor totals as given.
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
	// Chained is Start plus every delta. It differs from End when the data holds
	// movements outside the step types.
	Chained  decimal.Decimal `json:"chained"`
	Mismatch decimal.Decimal `json:"mismatch"`
	MaxValue decimal.Decimal `json:"max_value"`
}

// Consistent reports whether the chained deltas land on the ending anchor.
func (l Layout) Consistent() bool {
	return l.Mismatch.IsZero()
}

// Deltas reduces change records to one delta per step type, in chaining order.
// Zero-valued steps are kept here and dropped by Compose.
func Deltas(changes []domain.ChangeRecord) []Delta {
	sums := make(map[domain.ChangeType]decimal.Decimal, len(stepOrder))
	for _, c := range changes {
		sums[c.ChangeType] = sums[c.ChangeType].Add(stepValue(c))
	}

	out := make([]Delta, 0, len(stepOrder))
	for _, t := range stepOrder {
		out = append(out, Delta{Type: t, Value: sums[t]})
	}
	return out
}

func stepValue(c domain.ChangeRecord) decimal.Decimal {
	switch c.ChangeType {
	case domain.ChangeNew:
		return c.CurrentARR
	case domain.ChangeARRIncrease, domain.ChangeARRDecrease, domain.ChangePushed:
		return c.CurrentARR.Sub(c.SnapshotARR)
	case domain.ChangeSlipped, domain.ChangeClosedWon, domain.ChangeClosedLost:
		return c.SnapshotARR.Neg()
	default:
		return decimal.Zero
	}
}

// Anchors sums the snapshot and current ARR over every record.
func Anchors(changes []domain.ChangeRecord) (start, end decimal.Decimal) {
	for _, c := range changes {
		start = start.Add(c.SnapshotARR)
		end = end.Add(c.CurrentARR)
	}
	return start, end
}

// Build lays out the bridge of a change set measured against comparison.
func Build(comparison domain.Comparison, changes []domain.ChangeRecord) Layout {
	start, end := Anchors(changes)
	return Compose(comparison.AnchorLabel(), EndLabel, start, end, Deltas(changes))
}

// Compose chains deltas from the starting anchor and positions every row.
// Both anchors keep their own values; a chained sum that misses the ending anchor is
// reported in Mismatch and never changes the rows.
func Compose(startLabel, endLabel string, start, end decimal.Decimal, deltas []Delta) Layout {
	rows := make([]Row, 0, len(deltas)+2)
	rows = append(rows, anchor(startLabel, start))

	running := start
	for _, delta := range deltas {
		if delta.Value.IsZero() {
			continue
		}
		after := running.Add(delta.Value)
		rows = append(rows, Row{
			Label:  delta.Type.String(),
			Kind:   KindDelta,
			Delta:  delta.Value,
			Before: running,
			After:  after,
		})
		running = after
	}
	rows = append(rows, anchor(endLabel, end))

	maxValue := scale(rows)
	n := float64(len(rows))
	for i := range rows {
		lo := decimal.Min(rows[i].Before, rows[i].After)
		hi := decimal.Max(rows[i].Before, rows[i].After)
		// anchors stand on the baseline
		if rows[i].IsAnchor() {
			lo = decimal.Min(lo, decimal.Zero)
			hi = decimal.Max(hi, decimal.Zero)
		}
		rows[i].Slot = Slot{
			Left:   float64(i) / n,
			Width:  1 / n,
			Top:    fraction(hi, maxValue),
			Bottom: fraction(lo, maxValue),
		}
	}

	return Layout{
		Rows:     rows,
		Start:    start,
		End:      end,
		Chained:  running,
		Mismatch: end.Sub(running),
		MaxValue: maxValue,
	}
}

func anchor(label string, value decimal.Decimal) Row {
	return Row{Label: label, Kind: KindAnchor, Value: value, Before: value, After: value}
}

// scale is the largest absolute value among anchors and running totals, at least 1.
func scale(rows []Row) decimal.Decimal {
	maxValue := decimal.NewFromInt(1)
	for _, r := range rows {
		maxValue = decimal.Max(maxValue, r.Before.Abs(), r.After.Abs())
	}
	return maxValue
}

func fraction(v, of decimal.Decimal) float64 {
	return v.Div(of).InexactFloat64()
}
