package filter

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/forecast/internal/domain"
)

func TestApply_Segment(t *testing.T) {
	state := domain.DefaultFilterState()

	next, err := Apply(state, DimensionSegment, "Enterprise", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enterprise"}, next.Segments.Values())
	assert.True(t, state.Segments.IsEmpty(), "input state must not change")

	next, err = Apply(next, DimensionSegment, "Enterprise", nil)
	require.NoError(t, err)
	assert.True(t, next.Segments.IsEmpty())

	next, err = Apply(next, DimensionSegment, "NorCal", nil)
	require.NoError(t, err)
	next, err = Apply(next, DimensionSegment, ValueAll, nil)
	require.NoError(t, err)
	assert.True(t, next.Segments.IsEmpty())
}

func TestApply_GranularityClearsPeriods(t *testing.T) {
	state := domain.DefaultFilterState()
	state, err := Apply(state, DimensionGranularity, "week", nil)
	require.NoError(t, err)
	state, err = Apply(state, DimensionPeriod, "W07", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"W07"}, state.Periods.Values())

	same, err := Apply(state, DimensionGranularity, "week", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"W07"}, same.Periods.Values())

	changed, err := Apply(state, DimensionGranularity, "month", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.GranularityMonth, changed.Granularity)
	assert.True(t, changed.Periods.IsEmpty())
}

func TestApply_ChangeType(t *testing.T) {
	present := []domain.ChangeType{domain.ChangeNew, "Reforecast"}
	state := domain.DefaultFilterState()

	// narrowing from "all" starts from every known and present type
	narrowed, err := Apply(state, DimensionChangeType, string(domain.ChangeNew), present)
	require.NoError(t, err)
	assert.False(t, narrowed.AllChangeTypes)
	assert.False(t, narrowed.ChangeTypes.Has(domain.ChangeNew))
	assert.True(t, narrowed.ChangeTypes.Has(domain.ChangeSlipped))
	assert.True(t, narrowed.ChangeTypes.Has("Reforecast"))
	assert.Equal(t, len(domain.ChangeTypeOrder()), narrowed.ChangeTypes.Len())

	none, err := Apply(state, DimensionChangeType, ValueAll, present)
	require.NoError(t, err)
	assert.False(t, none.AllChangeTypes)
	assert.True(t, none.ChangeTypes.IsEmpty())

	picked, err := Apply(none, DimensionChangeType, string(domain.ChangeSlipped), present)
	require.NoError(t, err)
	assert.Equal(t, []domain.ChangeType{domain.ChangeSlipped}, picked.ChangeTypes.Values())

	all, err := Apply(none, DimensionChangeType, ValueAll, present)
	require.NoError(t, err)
	assert.True(t, all.AllChangeTypes)
}

func TestApply_ChangeTypeAllAfterManualFullSelection(t *testing.T) {
	present := []domain.ChangeType{domain.ChangeNew}

	// deselect then reselect: every type is selected again, without the flag
	state, err := Apply(domain.DefaultFilterState(), DimensionChangeType, string(domain.ChangeNew), present)
	require.NoError(t, err)
	state, err = Apply(state, DimensionChangeType, string(domain.ChangeNew), present)
	require.NoError(t, err)
	require.False(t, state.AllChangeTypes)
	require.Equal(t, len(domain.ChangeTypeOrder()), state.ChangeTypes.Len())

	cleared, err := Apply(state, DimensionChangeType, ValueAll, present)
	require.NoError(t, err)
	assert.False(t, cleared.AllChangeTypes)
	assert.True(t, cleared.ChangeTypes.IsEmpty())
}

func TestApply_DealType(t *testing.T) {
	state, err := Apply(domain.DefaultFilterState(), DimensionDealType, domain.DealTypeNewBusiness, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DealTypeOnlyNew, state.DealType)

	_, err = Apply(state, DimensionDealType, "Renewal", nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownDealType))
}

func TestApply_Errors(t *testing.T) {
	_, err := Apply(domain.DefaultFilterState(), "region", "x", nil)
	assert.True(t, errors.Is(err, ErrUnknownDimension))

	_, err = Apply(domain.DefaultFilterState(), DimensionGranularity, "year", nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownGranularity))

	_, err = ParseDimension("region")
	assert.True(t, errors.Is(err, ErrUnknownDimension))
}

func TestAvailableChangeTypes(t *testing.T) {
	got := AvailableChangeTypes([]domain.ChangeType{"Zeta", domain.ChangeNew, "Alpha"})

	expected := append(domain.ChangeTypeOrder(), "Alpha", "Zeta")
	assert.Equal(t, expected, got)
}

func TestPresentChangeTypes(t *testing.T) {
	changes := []domain.ChangeRecord{
		{ChangeType: domain.ChangeNew},
		{ChangeType: domain.ChangeClosedWon},
		{ChangeType: domain.ChangeNew},
	}

	assert.Equal(t, []domain.ChangeType{domain.ChangeClosedWon, domain.ChangeNew}, PresentChangeTypes(changes))
}
