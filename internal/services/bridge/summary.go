package bridge

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// Summary lists the deals of one bucket with their total.
type Summary struct {
	Title string              `json:"title"`
	Deals []domain.DealRecord `json:"deals"`
	Total decimal.Decimal     `json:"total"`
}

// Summaries builds the "In" and "Best Case" lists, keeping the deals' order.
func Summaries(deals []domain.DealRecord) (in Summary, bestCase Summary) {
	in = Summary{Title: "In — Committed", Deals: []domain.DealRecord{}}
	bestCase = Summary{Title: "Best Case — Upside", Deals: []domain.DealRecord{}}

	for _, d := range deals {
		switch d.Bucket {
		case domain.BucketForecast:
			in.Deals = append(in.Deals, d)
			in.Total = in.Total.Add(d.ARR)
		case domain.BucketBestCase:
			bestCase.Deals = append(bestCase.Deals, d)
			bestCase.Total = bestCase.Total.Add(d.ARR)
		}
	}
	return in, bestCase
}

// Report is everything the forecast view shows for one filter state.
type Report struct {
	Bridge      domain.BridgeResult `json:"bridge"`
	All         []LineComparison    `json:"comparisons"`
	NewBusiness []LineComparison    `json:"new_business_comparisons"`
	In          Summary             `json:"in"`
	BestCase    Summary             `json:"best_case"`
}

// Build aggregates the filtered records and derives comparisons and summary lists.
func Build(closedWon []domain.ClosedWonRecord, deals []domain.DealRecord, refs References) Report {
	result := Aggregate(closedWon, deals)
	in, bestCase := Summaries(deals)

	return Report{
		Bridge:      result,
		All:         Compare(result.All, refs),
		NewBusiness: Compare(result.NewBusiness, refs),
		In:          in,
		BestCase:    bestCase,
	}
}
