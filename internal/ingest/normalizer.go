package ingest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// Field names of the exports.
const (
	FieldAccountName       = "account_name"
	FieldOpportunityName   = "opportunity_name"
	FieldStage             = "stage"
	FieldVPForecast        = "vp_forecast"
	FieldARR               = "arr"
	FieldCloseDate         = "close_date"
	FieldSegment           = "segment"
	FieldDealType          = "deal_type"
	FieldChangeType        = "change_type"
	FieldSnapshotARR       = "snapshot_arr"
	FieldCurrentARR        = "current_arr"
	FieldSnapshotStage     = "snapshot_stage"
	FieldCurrentStage      = "current_stage"
	FieldSnapshotCloseDate = "snapshot_close_date"
	FieldCurrentCloseDate  = "current_close_date"
)

var dateLayouts = []string{time.DateOnly, time.RFC3339, "1/2/2006"}

// Normalizer converts parsed rows into records. Malformed values never fail a load:
// amounts fall back to zero and unparseable dates to "no close date".
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a normalizer. A nil logger disables diagnostics.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger.With(zap.String("component", "normalizer"))}
}

// Deals builds open-pipeline records. IDs are the zero-based row positions and the
// initial bucket follows the VP forecast label.
func (n *Normalizer) Deals(rows []Row) []domain.DealRecord {
	deals := make([]domain.DealRecord, 0, len(rows))
	for i, row := range rows {
		vp := row.Get(FieldVPForecast)
		deals = append(deals, domain.DealRecord{
			ID:              i,
			AccountName:     row.Get(FieldAccountName),
			OpportunityName: row.Get(FieldOpportunityName),
			Stage:           row.Get(FieldStage),
			VPForecast:      vp,
			ARR:             n.amount(row, FieldARR, i),
			CloseDate:       parseDate(row.Get(FieldCloseDate)),
			Segment:         row.Get(FieldSegment),
			DealType:        row.Get(FieldDealType),
			Bucket:          domain.BucketFromVPForecast(vp),
		})
	}
	return deals
}

// ClosedWon builds closed-won records.
func (n *Normalizer) ClosedWon(rows []Row) []domain.ClosedWonRecord {
	records := make([]domain.ClosedWonRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, domain.ClosedWonRecord{
			AccountName:     row.Get(FieldAccountName),
			OpportunityName: row.Get(FieldOpportunityName),
			ARR:             n.amount(row, FieldARR, i),
			CloseDate:       parseDate(row.Get(FieldCloseDate)),
			Segment:         row.Get(FieldSegment),
			DealType:        row.Get(FieldDealType),
		})
	}
	return records
}

// Changes builds pipeline change records. A missing change type reads as Active.
func (n *Normalizer) Changes(rows []Row) []domain.ChangeRecord {
	changes := make([]domain.ChangeRecord, 0, len(rows))
	for i, row := range rows {
		changeType := domain.ChangeType(row.Get(FieldChangeType))
		if changeType == "" {
			changeType = domain.ChangeActive
		}
		changes = append(changes, domain.ChangeRecord{
			AccountName:       row.Get(FieldAccountName),
			OpportunityName:   row.Get(FieldOpportunityName),
			DealType:          row.Get(FieldDealType),
			ChangeType:        changeType,
			SnapshotARR:       n.amount(row, FieldSnapshotARR, i),
			CurrentARR:        n.amount(row, FieldCurrentARR, i),
			SnapshotStage:     row.Get(FieldSnapshotStage),
			CurrentStage:      row.Get(FieldCurrentStage),
			SnapshotCloseDate: parseDate(row.Get(FieldSnapshotCloseDate)),
			CurrentCloseDate:  parseDate(row.Get(FieldCurrentCloseDate)),
		})
	}
	return changes
}

func (n *Normalizer) amount(row Row, field string, index int) decimal.Decimal {
	raw := row.Get(field)
	if raw == "" {
		return decimal.Zero
	}

	v, err := ParseAmount(raw)
	if err != nil {
		n.logger.Debug("amount coerced to zero",
			zap.String("field", field),
			zap.Int("row", index),
			zap.String("value", raw),
		)
		return decimal.Zero
	}
	return v
}

// ParseAmount reads a numeric amount. A leading "$" is accepted.
func ParseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
