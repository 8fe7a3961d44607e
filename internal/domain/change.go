package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChangeType describes how a pipeline deal moved between the comparison snapshot and now.
// Values outside the known set are kept under their literal label.
type ChangeType string

const (
	ChangeClosedWon   ChangeType = "Closed Won"
	ChangeClosedLost  ChangeType = "Closed Lost"
	ChangeSlipped     ChangeType = "Slipped"
	ChangePushed      ChangeType = "Pushed"
	ChangeNew         ChangeType = "New"
	ChangeARRIncrease ChangeType = "ARR Increase"
	ChangeARRDecrease ChangeType = "ARR Decrease"
	ChangeActive      ChangeType = "Active"
)

// NewDealStage is the source stage of a deal that had no snapshot stage.
const NewDealStage = "(New Deal)"

// changeTypeOrder is the canonical priority of change types.
var changeTypeOrder = []ChangeType{
	ChangeClosedWon,
	ChangeClosedLost,
	ChangeSlipped,
	ChangePushed,
	ChangeNew,
	ChangeARRIncrease,
	ChangeARRDecrease,
	ChangeActive,
}

// ChangeTypeOrder returns the known change types in canonical priority order.
func ChangeTypeOrder() []ChangeType {
	return slices.Clone(changeTypeOrder)
}

// Rank returns the canonical position of the change type, false for unknown types.
func (c ChangeType) Rank() (int, bool) {
	idx := slices.Index(changeTypeOrder, c)
	return idx, idx >= 0
}

// IsKnown reports whether the change type is one of the canonical types.
func (c ChangeType) IsKnown() bool {
	_, ok := c.Rank()
	return ok
}

// String returns the label.
func (c ChangeType) String() string {
	return string(c)
}

// CompareChangeTypes orders known types by rank, then unknown types lexically after them.
func CompareChangeTypes(a, b ChangeType) int {
	ra, okA := a.Rank()
	rb, okB := b.Rank()
	switch {
	case okA && okB:
		return ra - rb
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}

// OrderChangeTypes deduplicates the given types and sorts them in canonical order.
func OrderChangeTypes(types []ChangeType) []ChangeType {
	seen := make(map[ChangeType]struct{}, len(types))
	out := make([]ChangeType, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.SortFunc(out, CompareChangeTypes)
	return out
}

// ChangeRecord is one deal's movement between the comparison snapshot and the current pipeline.
type ChangeRecord struct {
	AccountName       string
	OpportunityName   string
	DealType          string
	ChangeType        ChangeType
	SnapshotARR       decimal.Decimal
	CurrentARR        decimal.Decimal
	SnapshotStage     string
	CurrentStage      string
	SnapshotCloseDate time.Time
	CurrentCloseDate  time.Time
}

// FlowValue is the amount the record carries through the flow diagram:
// the snapshot ARR when positive, else the current ARR.
func (c ChangeRecord) FlowValue() decimal.Decimal {
	if c.SnapshotARR.IsPositive() {
		return c.SnapshotARR
	}
	return c.CurrentARR
}

// SourceStage is the snapshot stage or NewDealStage when the deal had none.
func (c ChangeRecord) SourceStage() string {
	if stage := strings.TrimSpace(c.SnapshotStage); stage != "" {
		return stage
	}
	return NewDealStage
}

// DisplayARR is the current ARR, falling back to the snapshot ARR for deals that dropped to zero.
func (c ChangeRecord) DisplayARR() decimal.Decimal {
	if !c.CurrentARR.IsZero() {
		return c.CurrentARR
	}
	return c.SnapshotARR
}

// Description is a short human-readable summary of the change.
func (c ChangeRecord) Description() string {
	switch c.ChangeType {
	case ChangeARRIncrease, ChangeARRDecrease:
		return fmt.Sprintf("ARR %s → %s", FormatARR(c.SnapshotARR), FormatARR(c.CurrentARR))
	case ChangeSlipped, ChangePushed:
		return fmt.Sprintf("Close date %s → %s", shortDate(c.SnapshotCloseDate), shortDate(c.CurrentCloseDate))
	case ChangeNew:
		return "Added to pipeline"
	case ChangeClosedWon:
		return "Won"
	case ChangeClosedLost:
		return "Lost"
	default:
		return "—"
	}
}

type changeJSON struct {
	AccountName       string          `json:"account_name"`
	OpportunityName   string          `json:"opportunity_name"`
	DealType          string          `json:"deal_type"`
	ChangeType        ChangeType      `json:"change_type"`
	SnapshotARR       decimal.Decimal `json:"snapshot_arr"`
	CurrentARR        decimal.Decimal `json:"current_arr"`
	SnapshotStage     string          `json:"snapshot_stage"`
	CurrentStage      string          `json:"current_stage"`
	SnapshotCloseDate string          `json:"snapshot_close_date,omitempty"`
	CurrentCloseDate  string          `json:"current_close_date,omitempty"`
	Description       string          `json:"description"`
}

// MarshalJSON encodes the record with date-only close dates and its description.
func (c ChangeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(changeJSON{
		AccountName:       c.AccountName,
		OpportunityName:   c.OpportunityName,
		DealType:          c.DealType,
		ChangeType:        c.ChangeType,
		SnapshotARR:       c.SnapshotARR,
		CurrentARR:        c.CurrentARR,
		SnapshotStage:     c.SnapshotStage,
		CurrentStage:      c.CurrentStage,
		SnapshotCloseDate: formatDate(c.SnapshotCloseDate),
		CurrentCloseDate:  formatDate(c.CurrentCloseDate),
		Description:       c.Description(),
	})
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("Jan 2")
}
