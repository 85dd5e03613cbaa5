// Package elevation lays out the distance-proportional elevation and step
// profile of an itinerary. Street legs are scaled by distance, transit legs
// get one fixed-width placeholder each.
package elevation

import (
	"math"

	"itinerary-layout/internal/plan"
	"itinerary-layout/internal/projection"
)

// Build computes the profile of legs for the given widget dimensions. It never
// fails. Malformed elevation pairs are skipped and counted in SkippedSamples.
// Without any valid sample the profile has HasElevation=false and no terrain
// paths, but step boxes are still produced.
func Build(legs []plan.Leg, opts Options) Profile {
	var p Profile
	p.Segments = make([]Segment, 0, len(legs))

	onStreet := 0.0
	transits := 0
	minElev, maxElev := math.Inf(1), math.Inf(-1)

	for i, leg := range legs {
		if leg.Mode.IsTransit() {
			p.Segments = append(p.Segments, Segment{
				LegIndex:       i,
				Transit:        true,
				TransitOrdinal: transits,
				Mode:           leg.Mode,
				Colors:         plan.ColorsFor(leg),
				FromDistance:   onStreet,
				ToDistance:     onStreet,
			})
			transits++
			continue
		}

		legDist := nonNegative(leg.Distance)
		seg := Segment{
			LegIndex:       i,
			TransitOrdinal: transits,
			Mode:           leg.Mode,
			Colors:         plan.ColorsFor(leg),
			FromDistance:   onStreet,
			ToDistance:     onStreet + legDist,
		}
		samples, skipped := ParseSamples(leg.LegElevation)
		p.SkippedSamples += skipped
		if len(samples) > 0 {
			seg.GraphPoints = make([]GraphPoint, 0, len(samples))
		}
		for _, s := range samples {
			if !math.IsNaN(s.Elevation) {
				p.HasElevation = true
				minElev = math.Min(minElev, s.Elevation)
				maxElev = math.Max(maxElev, s.Elevation)
			}
			// keep the cumulative axis monotone even if the planner reports
			// sample distances slightly past the leg end
			local := math.Min(math.Max(s.Distance, 0), legDist)
			seg.GraphPoints = append(seg.GraphPoints, GraphPoint{Distance: onStreet + local, Elevation: s.Elevation})
		}
		onStreet += legDist
		p.Segments = append(p.Segments, seg)
	}

	p.TotalOnStreetDistance = onStreet
	p.TransitPlaceholderCount = transits

	if p.HasElevation {
		p.MinElevation, p.MaxElevation = paddedRange(minElev, maxElev)
	}

	available := projection.Available(opts.GraphWidthPx,
		opts.LabelWidthPx, opts.EndPaddingPx, opts.IconWidthPx*float64(transits))
	p.PixelsPerMeter = projection.PixelsPerUnit(available, onStreet)

	top := opts.TopMarginPx
	baseline := math.Max(top, opts.GraphHeightPx-opts.BottomMarginPx)
	p.BaselineY = baseline

	y := func(elev float64) float64 {
		span := p.MaxElevation - p.MinElevation
		if span <= 0 {
			return baseline
		}
		return baseline - (elev-p.MinElevation)/span*(baseline-top)
	}

	for i := range p.Segments {
		s := &p.Segments[i]
		ordinal := s.TransitOrdinal
		x := func(dist float64) float64 {
			return projection.Project(dist, ordinal, p.PixelsPerMeter, opts.LabelWidthPx, opts.IconWidthPx)
		}
		if s.Transit {
			s.X1 = x(s.FromDistance)
			s.X2 = projection.Project(s.FromDistance, ordinal+1, p.PixelsPerMeter, opts.LabelWidthPx, opts.IconWidthPx)
			continue
		}
		s.X1, s.X2 = x(s.FromDistance), x(s.ToDistance)
		if p.HasElevation {
			s.Paths = terrainPaths(s.GraphPoints, x, y, baseline)
		}
		s.Steps = stepBoxes(s.LegIndex, legs[s.LegIndex].Steps, s.FromDistance, s.ToDistance-s.FromDistance, x, top, baseline)
	}
	return p
}

// paddedRange widens [lo, hi] by 10% of its size and snaps outwards to
// multiples of 10. A range that still collapses (single sample on a multiple
// of 10) is opened to one 10 m band.
func paddedRange(lo, hi float64) (float64, float64) {
	buffer := (hi - lo) * 0.1
	lo = math.Floor((lo-buffer)/10) * 10
	hi = math.Ceil((hi+buffer)/10) * 10
	if hi <= lo {
		hi = lo + 10
	}
	return lo, hi
}

// terrainPaths turns graph points into closed polygons. A NaN sample closes
// the open polygon down to the baseline at its own x; the next valid sample
// opens a new one.
func terrainPaths(pts []GraphPoint, x, y func(float64) float64, baseline float64) []Path {
	var paths []Path
	var cur Path
	lastX := 0.0
	for _, gp := range pts {
		px := x(gp.Distance)
		if math.IsNaN(gp.Elevation) {
			if cur != nil {
				paths = append(paths, append(cur, PixelPoint{X: px, Y: baseline}))
				cur = nil
			}
			continue
		}
		if cur == nil {
			cur = Path{{X: px, Y: baseline}}
		}
		cur = append(cur, PixelPoint{X: px, Y: y(gp.Elevation)})
		lastX = px
	}
	if cur != nil {
		paths = append(paths, append(cur, PixelPoint{X: lastX, Y: baseline}))
	}
	return paths
}

func stepBoxes(legIndex int, steps []plan.Step, from, legDist float64, x func(float64) float64, top, baseline float64) []StepBox {
	if len(steps) == 0 {
		return nil
	}
	boxes := make([]StepBox, 0, len(steps))
	acc := 0.0
	for j, st := range steps {
		start := math.Min(acc, legDist)
		acc += nonNegative(st.Distance)
		end := math.Min(acc, legDist)
		boxes = append(boxes, StepBox{
			LegIndex:  legIndex,
			StepIndex: j,
			X1:        x(from + start),
			X2:        x(from + end),
			Y1:        top,
			Y2:        baseline,
		})
	}
	return boxes
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
