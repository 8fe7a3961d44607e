package domain

import "github.com/pkg/errors"

var (
	// ErrUnknownGranularity is returned for a time granularity other than quarter, month or week.
	ErrUnknownGranularity = errors.New("unknown time granularity")
	// ErrUnknownDealType is returned for a deal-type filter other than all, New Business or Expansion.
	ErrUnknownDealType = errors.New("unknown deal type filter")
)

// Granularity is the time bucket used by the period filter.
type Granularity string

const (
	GranularityQuarter Granularity = "quarter"
	GranularityMonth   Granularity = "month"
	GranularityWeek    Granularity = "week"
)

// ParseGranularity validates a granularity.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	switch g {
	case GranularityQuarter, GranularityMonth, GranularityWeek:
		return g, nil
	default:
		return "", errors.Wrapf(ErrUnknownGranularity, "%q", s)
	}
}

// DealTypeFilter restricts records by deal type. DealTypeAll lets every record through.
type DealTypeFilter string

const (
	DealTypeAll           DealTypeFilter = "all"
	DealTypeOnlyNew       DealTypeFilter = DealTypeNewBusiness
	DealTypeOnlyExpansion DealTypeFilter = DealTypeExpansion
)

// ParseDealTypeFilter validates a deal-type filter value.
func ParseDealTypeFilter(s string) (DealTypeFilter, error) {
	f := DealTypeFilter(s)
	switch f {
	case DealTypeAll, DealTypeOnlyNew, DealTypeOnlyExpansion:
		return f, nil
	default:
		return "", errors.Wrapf(ErrUnknownDealType, "%q", s)
	}
}

// FilterState is the user's current selection. It is a value: every change produces a new state.
//
// Empty Segments and Periods mean "all". Change types are "all" while AllChangeTypes is set;
// otherwise only the members of ChangeTypes pass, and an empty set lets nothing through.
type FilterState struct {
	Segments       Set[string]     `json:"segments"`
	Granularity    Granularity     `json:"granularity"`
	Periods        Set[string]     `json:"periods"`
	DealType       DealTypeFilter  `json:"deal_type"`
	ChangeTypes    Set[ChangeType] `json:"change_types"`
	AllChangeTypes bool            `json:"all_change_types"`
}

// DefaultFilterState selects everything for the whole quarter.
func DefaultFilterState() FilterState {
	return FilterState{
		Granularity:    GranularityQuarter,
		DealType:       DealTypeAll,
		AllChangeTypes: true,
	}
}

// Equal reports whether two states select the same records.
func (f FilterState) Equal(other FilterState) bool {
	return f.Segments.Equal(other.Segments) &&
		f.Granularity == other.Granularity &&
		f.Periods.Equal(other.Periods) &&
		f.DealType == other.DealType &&
		f.AllChangeTypes == other.AllChangeTypes &&
		f.ChangeTypes.Equal(other.ChangeTypes)
}
