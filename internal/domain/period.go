package domain

import (
	"fmt"
	"slices"
	"time"
)

// MonthKey returns the fiscal month token (M1, M2 or M3) of date within its fiscal quarter.
// fiscalStart is the calendar month that opens a fiscal quarter.
func MonthKey(date time.Time, fiscalStart time.Month) string {
	offset := (int(date.Month()) - int(fiscalStart) + 12) % 12
	return fmt.Sprintf("M%d", offset%3+1)
}

// WeekKey returns the ISO-8601 week token of date, e.g. W07.
// Early January days can belong to week 52 or 53 of the previous ISO year.
func WeekKey(date time.Time) string {
	_, week := date.ISOWeek()
	return fmt.Sprintf("W%02d", week)
}

// WeekStart returns the Monday that opens date's ISO week.
func WeekStart(date time.Time) time.Time {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	shift := (int(day.Weekday()) + 6) % 7 // monday = 0
	return day.AddDate(0, 0, -shift)
}

// PeriodKey derives the period token of date for the granularity. Quarter has no period keys.
func PeriodKey(date time.Time, granularity Granularity, fiscalStart time.Month) (string, bool) {
	switch granularity {
	case GranularityMonth:
		return MonthKey(date, fiscalStart), true
	case GranularityWeek:
		return WeekKey(date), true
	default:
		return "", false
	}
}

// PeriodOption is a selectable period with its display label.
type PeriodOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// MonthOptions returns M1..M3 labelled with the calendar months of a fiscal quarter
// starting at fiscalStart, e.g. "M1 · Feb".
func MonthOptions(fiscalStart time.Month) []PeriodOption {
	out := make([]PeriodOption, 0, 3)
	for i := 0; i < 3; i++ {
		month := time.Month((int(fiscalStart)-1+i)%12 + 1)
		out = append(out, PeriodOption{
			Key:   fmt.Sprintf("M%d", i+1),
			Label: fmt.Sprintf("M%d · %s", i+1, month.String()[:3]),
		})
	}
	return out
}

// WeekOptions lists the ISO weeks the dates fall in, chronologically, one entry per week key.
// Zero dates are ignored. Week keys carry no year and PeriodKey filters on the key alone, so
// dates from different years sharing a week number collapse into one option labelled with
// the earliest week start. A board covers a single fiscal quarter, where keys are unique.
func WeekOptions(dates []time.Time) []PeriodOption {
	starts := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		starts = append(starts, WeekStart(d))
	}
	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })

	seen := make(map[string]struct{}, len(starts))
	out := make([]PeriodOption, 0, len(starts))
	for _, start := range starts {
		key := WeekKey(start)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, PeriodOption{Key: key, Label: fmt.Sprintf("%s · %s", key, start.Format("Jan 2"))})
	}
	return out
}
