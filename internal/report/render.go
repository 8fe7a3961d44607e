package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/forecast/internal/domain"
	"github.com/vadiminshakov/forecast/internal/services/bridge"
	"github.com/vadiminshakov/forecast/internal/services/waterfall"
)

// width of the widest waterfall bar in cells
const barWidth = 40

var (
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	positive  = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	negative  = lipgloss.AdaptiveColor{Light: "#D14343", Dark: "#F25D5D"}
	subtle    = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(highlight).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Width(18)
	valueStyle   = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	mutedStyle   = lipgloss.NewStyle().Foreground(subtle)
	upStyle      = lipgloss.NewStyle().Foreground(positive)
	downStyle    = lipgloss.NewStyle().Foreground(negative)
	anchorStyle  = lipgloss.NewStyle().Foreground(highlight)
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(subtle).Padding(0, 1)
)

// Render writes the document to w.
func Render(w io.Writer, doc Document) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("FORECAST BRIDGE"))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(renderBridge(doc.Forecast.Bridge.All, doc.Forecast.All)))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("NEW BUSINESS"))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(renderBridge(doc.Forecast.Bridge.NewBusiness, doc.Forecast.NewBusiness)))
	b.WriteString("\n")

	for _, summary := range []bridge.Summary{doc.Forecast.In, doc.Forecast.BestCase} {
		b.WriteString(titleStyle.Render(summary.Title))
		b.WriteString("\n")
		b.WriteString(renderSummary(summary))
	}

	for _, p := range doc.Pipelines {
		b.WriteString(titleStyle.Render("PIPELINE VS " + strings.ToUpper(p.ComparisonTitle)))
		b.WriteString("\n")
		b.WriteString(renderWaterfall(p.Waterfall))
	}
	for _, c := range doc.Missing {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("no change set configured for %s", c.Title())))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderBridge(t domain.BridgeTotals, comparisons []bridge.LineComparison) string {
	lines := []string{
		line("Closed Won", t.ClosedWon),
		line("In", t.In),
		line("Closest to Pin", t.ClosestToPin()),
		line("Most Likely", t.MostLikely),
		line("Upside", t.Upside()),
	}
	for _, c := range comparisons {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s  Y/Y %s  Plan %s",
			lineTitle(c.Line), variance(c.YoY), variance(c.Plan))))
	}
	return strings.Join(lines, "\n")
}

func line(label string, v decimal.Decimal) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(domain.FormatARR(v)))
}

func lineTitle(l bridge.Line) string {
	switch l {
	case bridge.LineClosestToPin:
		return "Closest to Pin"
	case bridge.LineUpside:
		return "Upside"
	default:
		return string(l)
	}
}

func variance(v bridge.Variance) string {
	delta := domain.FormatSignedARR(v.Delta)
	if !v.Available() {
		return delta + " (n/a)"
	}
	return fmt.Sprintf("%s (%s%%)", delta, v.Percent.Decimal.StringFixed(1))
}

func renderSummary(s bridge.Summary) string {
	var b strings.Builder
	for _, d := range s.Deals {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(truncate(d.AccountName, 17)),
			valueStyle.Render(domain.FormatARR(d.ARR))))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Bold(true).Render("Total"),
		valueStyle.Bold(true).Render(domain.FormatARR(s.Total))))
	b.WriteString("\n")
	return b.String()
}

// renderWaterfall draws one horizontal bar per row, scaled to the layout's largest value.
// Negative running totals are clamped to the left edge.
func renderWaterfall(l waterfall.Layout) string {
	var b strings.Builder
	for _, r := range l.Rows {
		from := cells(r.Slot.Bottom)
		to := cells(r.Slot.Top)
		bar := strings.Repeat(" ", from) + strings.Repeat("█", max(to-from, 1))

		style, value := anchorStyle, domain.FormatARR(r.Value)
		if !r.IsAnchor() {
			value = domain.FormatSignedARR(r.Delta)
			style = upStyle
			if r.Delta.IsNegative() {
				style = downStyle
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(r.Label),
			valueStyle.Render(value),
			" ",
			style.Render(bar)))
		b.WriteString("\n")
	}
	if !l.Consistent() {
		b.WriteString(mutedStyle.Render("unexplained movement " + domain.FormatSignedARR(l.Mismatch)))
		b.WriteString("\n")
	}
	return b.String()
}

func cells(fraction float64) int {
	return int(math.Round(math.Max(fraction, 0) * barWidth))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
