package forecast

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/forecast/internal/domain"
)

var (
	// ErrUnknownSortColumn is returned for a deal table column that cannot be sorted on.
	ErrUnknownSortColumn = errors.New("unknown sort column")
	// ErrUnknownSortDirection is returned for a direction other than asc or desc.
	ErrUnknownSortDirection = errors.New("unknown sort direction")
)

// SortColumn is a sortable column of the deal table.
type SortColumn string

const (
	ColumnAccount     SortColumn = "account"
	ColumnOpportunity SortColumn = "opportunity"
	ColumnStage       SortColumn = "stage"
	ColumnVPForecast  SortColumn = "vp_forecast"
	ColumnARR         SortColumn = "arr"
	ColumnCloseDate   SortColumn = "close_date"
)

// SortDirection orders a column.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Sort is the deal table ordering.
type Sort struct {
	Column    SortColumn    `json:"column"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort shows the largest deals first.
func DefaultSort() Sort {
	return Sort{Column: ColumnARR, Direction: Descending}
}

// ParseSort validates a column and direction. An empty direction means descending.
func ParseSort(column, direction string) (Sort, error) {
	s := Sort{Column: SortColumn(column), Direction: SortDirection(direction)}
	switch s.Column {
	case ColumnAccount, ColumnOpportunity, ColumnStage, ColumnVPForecast, ColumnARR, ColumnCloseDate:
	default:
		return Sort{}, errors.Wrapf(ErrUnknownSortColumn, "%q", column)
	}

	switch s.Direction {
	case "":
		s.Direction = Descending
	case Ascending, Descending:
	default:
		return Sort{}, errors.Wrapf(ErrUnknownSortDirection, "%q", direction)
	}
	return s, nil
}

// NextSort is the ordering after the user clicks column: the same column flips
// direction, a new column starts descending.
func NextSort(current Sort, column SortColumn) Sort {
	if current.Column == column {
		if current.Direction == Descending {
			return Sort{Column: column, Direction: Ascending}
		}
		return Sort{Column: column, Direction: Descending}
	}
	return Sort{Column: column, Direction: Descending}
}

// SortDeals returns a sorted copy. Ties keep their input order.
func SortDeals(deals []domain.DealRecord, s Sort) []domain.DealRecord {
	out := slices.Clone(deals)
	slices.SortStableFunc(out, func(a, b domain.DealRecord) int {
		c := compareDeals(a, b, s.Column)
		if s.Direction == Ascending {
			return c
		}
		return -c
	})
	return out
}

func compareDeals(a, b domain.DealRecord, column SortColumn) int {
	switch column {
	case ColumnAccount:
		return strings.Compare(a.AccountName, b.AccountName)
	case ColumnOpportunity:
		return strings.Compare(a.OpportunityName, b.OpportunityName)
	case ColumnStage:
		return strings.Compare(a.Stage, b.Stage)
	case ColumnVPForecast:
		return strings.Compare(a.VPForecast, b.VPForecast)
	case ColumnCloseDate:
		return a.CloseDate.Compare(b.CloseDate)
	default:
		return a.ARR.Cmp(b.ARR)
	}
}

// OrderChanges returns the change table rows: canonical change-type priority first,
// then the larger amount.
func OrderChanges(changes []domain.ChangeRecord) []domain.ChangeRecord {
	out := slices.Clone(changes)
	slices.SortStableFunc(out, func(a, b domain.ChangeRecord) int {
		return cmp.Or(
			domain.CompareChangeTypes(a.ChangeType, b.ChangeType),
			b.DisplayARR().Cmp(a.DisplayARR()),
		)
	})
	return out
}
