package forecast

import (
	"time"

	"github.com/vadiminshakov/forecast/internal/domain"
	"github.com/vadiminshakov/forecast/internal/filter"
	"github.com/vadiminshakov/forecast/internal/services/bridge"
	"github.com/vadiminshakov/forecast/internal/services/sankey"
	"github.com/vadiminshakov/forecast/internal/services/waterfall"
)

// Status tells "no data yet" apart from a failed load.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Settings are the fixed parameters of the computation.
type Settings struct {
	FiscalStart time.Month
	References  bridge.References
	Sankey      sankey.Options
	// Segments seeds the segment menu; segments found in the data are appended.
	Segments []string
}

// Inputs is everything a snapshot is computed from.
type Inputs struct {
	Version uint64
	LoadID  string

	// Status and Error describe the closed-won and pipeline exports.
	Status Status
	Error  string

	// PipelineStatus and PipelineError describe the change set of Comparison.
	PipelineStatus Status
	PipelineError  string

	Comparison domain.Comparison
	Filters    domain.FilterState
	Sort       Sort
	ClosedWon  []domain.ClosedWonRecord
	Deals      []domain.DealRecord
	Changes    []domain.ChangeRecord
}

// ComparisonOption is an entry of the comparison picker.
type ComparisonOption struct {
	Key   domain.Comparison `json:"key"`
	Title string            `json:"title"`
	Label string            `json:"label"`
}

// Menus lists the values each filter can take.
type Menus struct {
	Segments      []string                `json:"segments"`
	Granularities []domain.Granularity    `json:"granularities"`
	Months        []domain.PeriodOption   `json:"months"`
	Weeks         []domain.PeriodOption   `json:"weeks"`
	DealTypes     []domain.DealTypeFilter `json:"deal_types"`
	ChangeTypes   []domain.ChangeType     `json:"change_types"`
	Comparisons   []ComparisonOption      `json:"comparisons"`
}

// ForecastView is the bridge half of the dashboard.
type ForecastView struct {
	bridge.Report
	Sort  Sort                `json:"sort"`
	Deals []domain.DealRecord `json:"deals"`
}

// PipelineView is the pipeline-changes half of the dashboard.
type PipelineView struct {
	Status          Status                `json:"status"`
	Error           string                `json:"error,omitempty"`
	Comparison      domain.Comparison     `json:"comparison"`
	ComparisonTitle string                `json:"comparison_title"`
	Changes         []domain.ChangeRecord `json:"changes"`
	Waterfall       waterfall.Layout      `json:"waterfall"`
	Sankey          sankey.Layout         `json:"sankey"`
}

// Snapshot is the complete rendering contract for one board version. It is shared
// between readers and must not be modified.
type Snapshot struct {
	Version  uint64             `json:"version"`
	LoadID   string             `json:"load_id"`
	Status   Status             `json:"status"`
	Error    string             `json:"error,omitempty"`
	Filters  domain.FilterState `json:"filters"`
	Menus    Menus              `json:"menus"`
	Forecast ForecastView       `json:"forecast"`
	Pipeline PipelineView       `json:"pipeline"`
}

// Compute derives a snapshot from its inputs. It has no side effects, so equal inputs
// give equal snapshots.
func Compute(in Inputs, settings Settings) Snapshot {
	engine := filter.NewEngine(settings.FiscalStart)

	closedWon := engine.ClosedWon(in.ClosedWon, in.Filters)
	deals := engine.Deals(in.Deals, in.Filters)
	changes := engine.Changes(in.Changes, in.Filters)

	sort := in.Sort
	if sort.Column == "" {
		sort = DefaultSort()
	}

	return Snapshot{
		Version: in.Version,
		LoadID:  in.LoadID,
		Status:  in.Status,
		Error:   in.Error,
		Filters: in.Filters,
		Menus:   menus(in, settings, engine),
		Forecast: ForecastView{
			Report: bridge.Build(closedWon, deals, settings.References),
			Sort:   sort,
			Deals:  SortDeals(deals, sort),
		},
		Pipeline: PipelineView{
			Status:          in.PipelineStatus,
			Error:           in.PipelineError,
			Comparison:      in.Comparison,
			ComparisonTitle: in.Comparison.Title(),
			Changes:         OrderChanges(changes),
			Waterfall:       waterfall.Build(in.Comparison, changes),
			Sankey:          sankey.Build(changes, settings.Sankey),
		},
	}
}

func menus(in Inputs, settings Settings, engine filter.Engine) Menus {
	closeDates := make([]time.Time, 0, len(in.Deals))
	for _, d := range in.Deals {
		closeDates = append(closeDates, d.CloseDate)
	}

	comparisons := make([]ComparisonOption, 0, 3)
	for _, c := range domain.Comparisons() {
		comparisons = append(comparisons, ComparisonOption{Key: c, Title: c.Title(), Label: c.AnchorLabel()})
	}

	return Menus{
		Segments:      segments(settings.Segments, in),
		Granularities: []domain.Granularity{domain.GranularityQuarter, domain.GranularityMonth, domain.GranularityWeek},
		Months:        domain.MonthOptions(engine.FiscalStart()),
		Weeks:         domain.WeekOptions(closeDates),
		DealTypes:     []domain.DealTypeFilter{domain.DealTypeAll, domain.DealTypeOnlyNew, domain.DealTypeOnlyExpansion},
		ChangeTypes:   filter.PresentChangeTypes(in.Changes),
		Comparisons:   comparisons,
	}
}

// configured segments keep their order, segments only seen in the data follow sorted
func segments(configured []string, in Inputs) []string {
	known := domain.NewSet(configured...)
	var extra []string
	for _, d := range in.Deals {
		if d.Segment != "" && !known.Has(d.Segment) {
			extra = append(extra, d.Segment)
		}
	}
	for _, c := range in.ClosedWon {
		if c.Segment != "" && !known.Has(c.Segment) {
			extra = append(extra, c.Segment)
		}
	}

	out := make([]string, 0, len(configured)+len(extra))
	out = append(out, configured...)
	return append(out, domain.NewSet(extra...).Values()...)
}
