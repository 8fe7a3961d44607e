package filter

import (
	"github.com/pkg/errors"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// ErrUnknownDimension is returned when setFilter names a dimension that does not exist.
var ErrUnknownDimension = errors.New("unknown filter dimension")

// Dimension names one slice of the filter state.
type Dimension string

const (
	DimensionSegment     Dimension = "segment"
	DimensionGranularity Dimension = "granularity"
	DimensionPeriod      Dimension = "period"
	DimensionDealType    Dimension = "dealType"
	DimensionChangeType  Dimension = "changeType"
)

// ValueAll selects every value of a set dimension.
const ValueAll = "__all__"

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	switch d {
	case DimensionSegment, DimensionGranularity, DimensionPeriod, DimensionDealType, DimensionChangeType:
		return d, nil
	default:
		return "", errors.Wrapf(ErrUnknownDimension, "%q", s)
	}
}

// Apply returns the state that results from the user picking value in dimension.
// The input state is left untouched.
//
// Segment, period and change-type picks toggle membership; ValueAll resets the set to "all".
// Picking a granularity replaces it and clears the periods chosen under the old one.
// present lists the change types in the loaded data; it is used when narrowing change
// types down from "all".
func Apply(state domain.FilterState, dimension Dimension, value string, present []domain.ChangeType) (domain.FilterState, error) {
	switch dimension {
	case DimensionSegment:
		if isAll(value) {
			state.Segments = domain.NewSet[string]()
		} else {
			state.Segments = state.Segments.Toggle(value)
		}

	case DimensionGranularity:
		g, err := domain.ParseGranularity(value)
		if err != nil {
			return state, err
		}
		if g != state.Granularity {
			state.Granularity = g
			state.Periods = domain.NewSet[string]()
		}

	case DimensionPeriod:
		if isAll(value) {
			state.Periods = domain.NewSet[string]()
		} else {
			state.Periods = state.Periods.Toggle(value)
		}

	case DimensionDealType:
		f, err := domain.ParseDealTypeFilter(value)
		if err != nil {
			return state, err
		}
		state.DealType = f

	case DimensionChangeType:
		state = applyChangeType(state, value, present)

	default:
		return state, errors.Wrapf(ErrUnknownDimension, "%q", dimension)
	}

	return state, nil
}

// "all" flips between every type and none. A manual selection covering every known and
// present type counts as everything selected. A single pick while everything is selected
// starts from the full list.
func applyChangeType(state domain.FilterState, value string, present []domain.ChangeType) domain.FilterState {
	if isAll(value) {
		state.AllChangeTypes = !allChangeTypesSelected(state, present)
		state.ChangeTypes = domain.NewSet[domain.ChangeType]()
		return state
	}

	selected := state.ChangeTypes
	if state.AllChangeTypes {
		selected = domain.NewSet(AvailableChangeTypes(present)...)
	}
	state.AllChangeTypes = false
	state.ChangeTypes = selected.Toggle(domain.ChangeType(value))
	return state
}

func allChangeTypesSelected(state domain.FilterState, present []domain.ChangeType) bool {
	if state.AllChangeTypes {
		return true
	}
	for _, t := range AvailableChangeTypes(present) {
		if !state.ChangeTypes.Has(t) {
			return false
		}
	}
	return true
}

// AvailableChangeTypes lists the canonical change types followed by any unknown types
// found in present, in canonical order.
func AvailableChangeTypes(present []domain.ChangeType) []domain.ChangeType {
	return domain.OrderChangeTypes(append(domain.ChangeTypeOrder(), present...))
}

// PresentChangeTypes lists the change types that occur in the records, in canonical order.
func PresentChangeTypes(changes []domain.ChangeRecord) []domain.ChangeType {
	types := make([]domain.ChangeType, 0, len(changes))
	for _, c := range changes {
		types = append(types, c.ChangeType)
	}
	return domain.OrderChangeTypes(types)
}

func isAll(value string) bool {
	return value == ValueAll || value == string(domain.DealTypeAll)
}
