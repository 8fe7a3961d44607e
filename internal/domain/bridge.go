package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// BridgeTotals holds the aggregated lines of one forecast bridge.
// Subtotals are derived on read so they always equal the sum of their parts.
type BridgeTotals struct {
	ClosedWon  decimal.Decimal
	In         decimal.Decimal
	MostLikely decimal.Decimal
}

// ClosestToPin is closed won plus the deals marked in.
func (t BridgeTotals) ClosestToPin() decimal.Decimal {
	return t.ClosedWon.Add(t.In)
}

// Upside is closest-to-pin plus the best-case deals.
func (t BridgeTotals) Upside() decimal.Decimal {
	return t.ClosestToPin().Add(t.MostLikely)
}

// MarshalJSON exposes all five lines.
func (t BridgeTotals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ClosedWon    decimal.Decimal `json:"closed_won"`
		In           decimal.Decimal `json:"in"`
		ClosestToPin decimal.Decimal `json:"closest_to_pin"`
		MostLikely   decimal.Decimal `json:"most_likely"`
		Upside       decimal.Decimal `json:"upside"`
	}{
		ClosedWon:    t.ClosedWon,
		In:           t.In,
		ClosestToPin: t.ClosestToPin(),
		MostLikely:   t.MostLikely,
		Upside:       t.Upside(),
	})
}

// BridgeResult is the forecast bridge for all deals and for the New Business cut.
type BridgeResult struct {
	All         BridgeTotals `json:"all"`
	NewBusiness BridgeTotals `json:"new_business"`
}
