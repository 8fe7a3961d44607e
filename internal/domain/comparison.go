package domain

import "github.com/pkg/errors"

// ErrUnknownComparison is returned for a comparison period that is not soq, som or sow.
var ErrUnknownComparison = errors.New("unknown comparison period")

// Comparison selects the snapshot the pipeline changes are measured against.
type Comparison string

const (
	ComparisonStartOfQuarter Comparison = "soq"
	ComparisonStartOfMonth   Comparison = "som"
	ComparisonStartOfWeek    Comparison = "sow"
)

// Comparisons returns every comparison period, widest first.
func Comparisons() []Comparison {
	return []Comparison{ComparisonStartOfQuarter, ComparisonStartOfMonth, ComparisonStartOfWeek}
}

// ParseComparison validates a comparison period key.
func ParseComparison(s string) (Comparison, error) {
	c := Comparison(s)
	if !c.IsValid() {
		return "", errors.Wrapf(ErrUnknownComparison, "%q", s)
	}
	return c, nil
}

// IsValid checks if the Comparison value is valid.
func (c Comparison) IsValid() bool {
	return c == ComparisonStartOfQuarter || c == ComparisonStartOfMonth || c == ComparisonStartOfWeek
}

// AnchorLabel is the label of the waterfall's starting anchor for this comparison.
func (c Comparison) AnchorLabel() string {
	switch c {
	case ComparisonStartOfQuarter:
		return "SOQ Pipeline"
	case ComparisonStartOfMonth:
		return "SOM Pipeline"
	case ComparisonStartOfWeek:
		return "SOW Pipeline"
	default:
		return "Snapshot"
	}
}

// Title is the human-readable name of the comparison.
func (c Comparison) Title() string {
	switch c {
	case ComparisonStartOfQuarter:
		return "Start of Quarter"
	case ComparisonStartOfMonth:
		return "Start of Month"
	case ComparisonStartOfWeek:
		return "This Week"
	default:
		return string(c)
	}
}

// String returns the string representation.
func (c Comparison) String() string {
	return string(c)
}
