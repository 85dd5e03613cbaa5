// Package timeline lays out itinerary header bars on a time axis shared by
// every itinerary shown together.
package timeline

import (
	"math"

	"itinerary-layout/internal/plan"
	"itinerary-layout/internal/projection"
)

type Options struct {
	BarWidthPx      float64 `yaml:"bar_width" json:"barWidth"`
	ReservedStartPx float64 `yaml:"reserved_start" json:"reservedStart"`
	ReservedEndPx   float64 `yaml:"reserved_end" json:"reservedEnd"`
}

type Span struct {
	LeftPx  float64 `json:"leftPx"`
	WidthPx float64 `json:"widthPx"`
}

// Right is LeftPx+WidthPx.
func (s Span) Right() float64 { return s.LeftPx + s.WidthPx }

type Layout struct {
	Overall    Span   `json:"overall"`
	PerLeg     []Span `json:"perLeg"`
	Degenerate bool   `json:"degenerate,omitempty"` // zero-length shared time axis
}

// Compute places it and each of its legs on the bar. Offsets are measured
// from b.EarliestStartTime and scaled by the shared span, so bars of
// different itineraries stay comparable. A zero or negative span collapses
// every bar to zero width at ReservedStartPx.
func Compute(it plan.Itinerary, b plan.TripPlanBounds, opts Options) Layout {
	available := projection.Available(opts.BarWidthPx, opts.ReservedStartPx, opts.ReservedEndPx)
	maxSpan := float64(b.Span())
	pxPerMs := projection.PixelsPerUnit(available, maxSpan)

	place := func(start, end int64) Span {
		left := projection.Project(offset(start, b, maxSpan), 0, pxPerMs, opts.ReservedStartPx, 0)
		right := projection.Project(offset(end, b, maxSpan), 0, pxPerMs, opts.ReservedStartPx, 0)
		if right < left {
			right = left
		}
		return Span{LeftPx: left, WidthPx: right - left}
	}

	l := Layout{Degenerate: maxSpan <= 0}
	l.Overall = place(it.StartTime(), it.EndTime())
	l.PerLeg = make([]Span, len(it.Legs))
	for i, leg := range it.Legs {
		l.PerLeg[i] = clampInto(place(leg.StartTime, leg.EndTime), l.Overall)
	}
	return l
}

// ComputeAll derives the shared bounds from its and lays out each itinerary.
func ComputeAll(its []plan.Itinerary, opts Options) (plan.TripPlanBounds, []Layout) {
	b := plan.BoundsOf(its)
	out := make([]Layout, len(its))
	for i, it := range its {
		out[i] = Compute(it, b, opts)
	}
	return b, out
}

// offset is t relative to the bounds, clamped to [0, maxSpan].
func offset(t int64, b plan.TripPlanBounds, maxSpan float64) float64 {
	if maxSpan <= 0 {
		return 0
	}
	return math.Min(math.Max(float64(t-b.EarliestStartTime), 0), maxSpan)
}

// clampInto keeps a leg span inside its itinerary span even when legs are
// out of order.
func clampInto(s, outer Span) Span {
	left := math.Min(math.Max(s.LeftPx, outer.LeftPx), outer.Right())
	right := math.Min(math.Max(s.Right(), left), outer.Right())
	return Span{LeftPx: left, WidthPx: right - left}
}
