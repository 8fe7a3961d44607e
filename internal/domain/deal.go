// Package domain defines the records, enums and value types shared by the forecast engine.
package domain

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// VP forecast labels that seed the initial bucket of an open-pipeline deal.
const (
	VPForecastCommit   = "Commit"
	VPForecastBestCase = "Best Case"
)

// Deal types recognised by the deal-type filter and the New Business cut.
const (
	DealTypeNewBusiness = "New Business"
	DealTypeExpansion   = "Expansion"
)

// ErrUnknownBucket is returned when a toggle names a bucket that does not exist.
var ErrUnknownBucket = errors.New("unknown bucket")

// Bucket is the forecast bucket a deal is placed in. A deal is in at most one bucket.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketForecast
	BucketBestCase
)

// bucket string constants to avoid magic strings
const (
	bucketStringNone     = "none"
	bucketStringForecast = "forecast"
	bucketStringBestCase = "bestCase"
)

// String returns the string representation of the bucket.
func (b Bucket) String() string {
	switch b {
	case BucketForecast:
		return bucketStringForecast
	case BucketBestCase:
		return bucketStringBestCase
	default:
		return bucketStringNone
	}
}

// ParseBucket converts a toggle target into a Bucket. Only forecast and best case can be toggled.
func ParseBucket(s string) (Bucket, error) {
	switch s {
	case bucketStringForecast, "in":
		return BucketForecast, nil
	case bucketStringBestCase, "best_case":
		return BucketBestCase, nil
	default:
		return BucketNone, errors.Wrapf(ErrUnknownBucket, "%q", s)
	}
}

// BucketFromVPForecast returns the initial bucket for a VP forecast label.
func BucketFromVPForecast(label string) Bucket {
	switch label {
	case VPForecastCommit:
		return BucketForecast
	case VPForecastBestCase:
		return BucketBestCase
	default:
		return BucketNone
	}
}

// DealRecord is an open-pipeline deal. Only Bucket changes after normalization.
type DealRecord struct {
	ID              int
	AccountName     string
	OpportunityName string
	Stage           string
	VPForecast      string
	ARR             decimal.Decimal
	CloseDate       time.Time
	Segment         string
	DealType        string
	Bucket          Bucket
}

// InForecast reports whether the deal is counted in the "in" line.
func (d DealRecord) InForecast() bool {
	return d.Bucket == BucketForecast
}

// InBestCase reports whether the deal is counted in the "most likely" line.
func (d DealRecord) InBestCase() bool {
	return d.Bucket == BucketBestCase
}

// HasCloseDate reports whether a close date was parsed for the deal.
func (d DealRecord) HasCloseDate() bool {
	return !d.CloseDate.IsZero()
}

// IsNewBusiness reports whether the deal belongs to the New Business cut.
func (d DealRecord) IsNewBusiness() bool {
	return d.DealType == DealTypeNewBusiness
}

// Toggle returns a copy of the deal with the bucket flipped.
// Selecting a bucket clears the other one, selecting the current bucket clears it.
func (d DealRecord) Toggle(bucket Bucket) (DealRecord, error) {
	if bucket != BucketForecast && bucket != BucketBestCase {
		return d, errors.Wrapf(ErrUnknownBucket, "%d", int(bucket))
	}
	if d.Bucket == bucket {
		d.Bucket = BucketNone
	} else {
		d.Bucket = bucket
	}
	return d, nil
}

type dealJSON struct {
	ID              int             `json:"id"`
	AccountName     string          `json:"account_name"`
	OpportunityName string          `json:"opportunity_name"`
	Stage           string          `json:"stage"`
	VPForecast      string          `json:"vp_forecast"`
	ARR             decimal.Decimal `json:"arr"`
	CloseDate       string          `json:"close_date,omitempty"`
	Segment         string          `json:"segment"`
	DealType        string          `json:"deal_type"`
	InForecast      bool            `json:"inForecast"`
	InBestCase      bool            `json:"inBestCase"`
}

// MarshalJSON exposes the bucket as the two inclusion flags consumed by the UI.
func (d DealRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(dealJSON{
		ID:              d.ID,
		AccountName:     d.AccountName,
		OpportunityName: d.OpportunityName,
		Stage:           d.Stage,
		VPForecast:      d.VPForecast,
		ARR:             d.ARR,
		CloseDate:       formatDate(d.CloseDate),
		Segment:         d.Segment,
		DealType:        d.DealType,
		InForecast:      d.InForecast(),
		InBestCase:      d.InBestCase(),
	})
}

// ClosedWonRecord is a deal already won in the quarter. It is never toggled.
type ClosedWonRecord struct {
	AccountName     string          `json:"account_name"`
	OpportunityName string          `json:"opportunity_name"`
	ARR             decimal.Decimal `json:"arr"`
	CloseDate       time.Time       `json:"close_date"`
	Segment         string          `json:"segment"`
	DealType        string          `json:"deal_type"`
}

// HasCloseDate reports whether a close date was parsed for the record.
func (c ClosedWonRecord) HasCloseDate() bool {
	return !c.CloseDate.IsZero()
}

// IsNewBusiness reports whether the record belongs to the New Business cut.
func (c ClosedWonRecord) IsNewBusiness() bool {
	return c.DealType == DealTypeNewBusiness
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
