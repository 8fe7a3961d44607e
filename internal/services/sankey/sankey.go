// Package sankey lays out pipeline changes as a two-sided flow diagram: snapshot stages
// on the left, change types on the right.
package sankey

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/forecast/internal/domain"
)

// drawable height of the reference canvas the default gaps were tuned on
const referenceHeight = 272.0

// Options tune the vertical packing. Both values are fractions of the drawing height.
type Options struct {
	NodeGap       float64
	MinNodeHeight float64
}

// DefaultOptions returns an 8px gap and a 4px minimum node on a 272px column.
func DefaultOptions() Options {
	return Options{
		NodeGap:       8 / referenceHeight,
		MinNodeHeight: 4 / referenceHeight,
	}
}

// Node is one stage or change type. Offset and Height are fractions of the drawing height.
type Node struct {
	Name   string          `json:"name"`
	Value  decimal.Decimal `json:"value"`
	Offset float64         `json:"relativeOffset"`
	Height float64         `json:"relativeHeight"`
}

// Span is the vertical range a link occupies on one of its nodes.
type Span struct {
	Offset float64 `json:"offset"`
	Height float64 `json:"height"`
}

// Link is the flow from a stage to a change type.
type Link struct {
	Source     string          `json:"source"`
	Target     string          `json:"target"`
	Value      decimal.Decimal `json:"value"`
	SourceSpan Span            `json:"sourceSpan"`
	TargetSpan Span            `json:"targetSpan"`
}

// Layout is the positioned diagram. With gaps and minimum heights a column can take
// more than the full height; renderers have to leave room for it.
type Layout struct {
	Left  []Node          `json:"left"`
	Right []Node          `json:"right"`
	Links []Link          `json:"links"`
	Total decimal.Decimal `json:"total"`
}

// IsEmpty reports whether there is nothing to draw.
func (l Layout) IsEmpty() bool {
	return len(l.Links) == 0
}

type pair struct {
	source string
	target string
}

// Build lays out the change records. A record without flow still places its stage and
// change type as zero-valued nodes drawn at the minimum height; negative flow counts as
// zero. A zero grand total gives an empty layout.
func Build(changes []domain.ChangeRecord, opts Options) Layout {
	leftValues := make(map[string]decimal.Decimal)
	rightValues := make(map[domain.ChangeType]decimal.Decimal)
	linkValues := make(map[pair]decimal.Decimal)
	total := decimal.Zero

	for _, c := range changes {
		v := decimal.Max(c.FlowValue(), decimal.Zero)
		source := c.SourceStage()
		leftValues[source] = leftValues[source].Add(v)
		rightValues[c.ChangeType] = rightValues[c.ChangeType].Add(v)
		key := pair{source: source, target: c.ChangeType.String()}
		linkValues[key] = linkValues[key].Add(v)
		total = total.Add(v)
	}

	if total.IsZero() {
		return Layout{Left: []Node{}, Right: []Node{}, Links: []Link{}, Total: total}
	}

	left := make([]Node, 0, len(leftValues))
	for name, v := range leftValues {
		left = append(left, Node{Name: name, Value: v})
	}
	slices.SortFunc(left, func(a, b Node) int {
		if c := b.Value.Cmp(a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	targets := make([]domain.ChangeType, 0, len(rightValues))
	for t := range rightValues {
		targets = append(targets, t)
	}
	targets = domain.OrderChangeTypes(targets)
	right := make([]Node, 0, len(targets))
	for _, t := range targets {
		right = append(right, Node{Name: t.String(), Value: rightValues[t]})
	}

	leftBar := stack(left, total, opts)
	rightBar := stack(right, total, opts)

	return Layout{
		Left:  left,
		Right: right,
		Links: route(left, right, linkValues, total, leftBar, rightBar),
		Total: total,
	}
}

// stack assigns heights and offsets in place and returns the height shared out
// proportionally once gaps are taken.
func stack(nodes []Node, total decimal.Decimal, opts Options) float64 {
	bar := max(0, 1-opts.NodeGap*float64(len(nodes)-1))

	offset := 0.0
	for i := range nodes {
		nodes[i].Offset = offset
		nodes[i].Height = max(opts.MinNodeHeight, share(nodes[i].Value, total, bar))
		offset += nodes[i].Height + opts.NodeGap
	}
	return bar
}

// route walks targets in their display order and, per target, sources by descending
// value, so links sharing a node stack in the same order on every run.
func route(left, right []Node, values map[pair]decimal.Decimal, total decimal.Decimal, leftBar, rightBar float64) []Link {
	sourceNodes := make(map[string]Node, len(left))
	for _, n := range left {
		sourceNodes[n.Name] = n
	}
	sourceUsed := make(map[string]float64, len(left))

	links := make([]Link, 0, len(values))
	for _, target := range right {
		incoming := make([]Link, 0)
		for p, v := range values {
			if p.target == target.Name {
				incoming = append(incoming, Link{Source: p.source, Target: p.target, Value: v})
			}
		}
		slices.SortFunc(incoming, func(a, b Link) int {
			if c := b.Value.Cmp(a.Value); c != 0 {
				return c
			}
			return cmp.Compare(a.Source, b.Source)
		})

		targetUsed := 0.0
		for _, link := range incoming {
			source := sourceNodes[link.Source]

			sourceHeight := share(link.Value, total, leftBar)
			link.SourceSpan = Span{Offset: source.Offset + sourceUsed[link.Source], Height: sourceHeight}
			sourceUsed[link.Source] += sourceHeight

			targetHeight := share(link.Value, total, rightBar)
			link.TargetSpan = Span{Offset: target.Offset + targetUsed, Height: targetHeight}
			targetUsed += targetHeight

			links = append(links, link)
		}
	}
	return links
}

func share(v, total decimal.Decimal, bar float64) float64 {
	return v.Div(total).InexactFloat64() * bar
}
