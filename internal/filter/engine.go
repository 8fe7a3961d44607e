// Package filter selects the records that pass the user's current filter state.
package filter

import (
	"time"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// Engine evaluates filter predicates. Every predicate is pure, so the order in which
// filters were set never changes the surviving records.
type Engine struct {
	fiscalStart time.Month
}

// NewEngine creates an engine whose fiscal quarters open in fiscalStart.
func NewEngine(fiscalStart time.Month) Engine {
	if fiscalStart < time.January || fiscalStart > time.December {
		fiscalStart = time.February
	}
	return Engine{fiscalStart: fiscalStart}
}

// FiscalStart returns the month that opens a fiscal quarter.
func (e Engine) FiscalStart() time.Month {
	return e.fiscalStart
}

// MatchesDeal reports whether an open-pipeline deal passes every filter.
func (e Engine) MatchesDeal(d domain.DealRecord, state domain.FilterState) bool {
	return matchesSegment(d.Segment, state) &&
		e.matchesPeriod(d.CloseDate, state) &&
		matchesDealType(d.DealType, state)
}

// MatchesClosedWon reports whether a closed-won record passes every filter.
func (e Engine) MatchesClosedWon(c domain.ClosedWonRecord, state domain.FilterState) bool {
	return matchesSegment(c.Segment, state) &&
		e.matchesPeriod(c.CloseDate, state) &&
		matchesDealType(c.DealType, state)
}

// MatchesChange reports whether a change record passes the deal-type and change-type filters.
// Change records carry no segment and are scoped by the comparison period instead of close date.
func (e Engine) MatchesChange(c domain.ChangeRecord, state domain.FilterState) bool {
	return matchesDealType(c.DealType, state) && matchesChangeType(c.ChangeType, state)
}

// Deals returns the deals that pass, in input order.
func (e Engine) Deals(deals []domain.DealRecord, state domain.FilterState) []domain.DealRecord {
	return keep(deals, func(d domain.DealRecord) bool { return e.MatchesDeal(d, state) })
}

// ClosedWon returns the closed-won records that pass, in input order.
func (e Engine) ClosedWon(records []domain.ClosedWonRecord, state domain.FilterState) []domain.ClosedWonRecord {
	return keep(records, func(c domain.ClosedWonRecord) bool { return e.MatchesClosedWon(c, state) })
}

// Changes returns the change records that pass, in input order.
func (e Engine) Changes(changes []domain.ChangeRecord, state domain.FilterState) []domain.ChangeRecord {
	return keep(changes, func(c domain.ChangeRecord) bool { return e.MatchesChange(c, state) })
}

func matchesSegment(segment string, state domain.FilterState) bool {
	return state.Segments.IsEmpty() || state.Segments.Has(segment)
}

// records without a close date cannot be excluded by period
func (e Engine) matchesPeriod(closeDate time.Time, state domain.FilterState) bool {
	if state.Periods.IsEmpty() || closeDate.IsZero() {
		return true
	}
	key, ok := domain.PeriodKey(closeDate, state.Granularity, e.fiscalStart)
	if !ok {
		return true
	}
	return state.Periods.Has(key)
}

func matchesDealType(dealType string, state domain.FilterState) bool {
	return state.DealType == "" || state.DealType == domain.DealTypeAll || string(state.DealType) == dealType
}

func matchesChangeType(changeType domain.ChangeType, state domain.FilterState) bool {
	return state.AllChangeTypes || state.ChangeTypes.Has(changeType)
}

func keep[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}
