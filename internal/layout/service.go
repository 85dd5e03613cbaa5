// Package layout computes the geometry documents a renderer needs for a trip
// plan: the shared time axis, one timeline header and one elevation profile
// per itinerary, and the decoded coordinates of every leg.
package layout

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"itinerary-layout/internal/elevation"
	"itinerary-layout/internal/plan"
	"itinerary-layout/internal/polyline"
	"itinerary-layout/internal/timeline"
)

// ErrNoItineraries is returned for a plan without any itinerary to lay out.
var ErrNoItineraries = errors.New("trip plan has no itineraries")

// Metrics receives layout outcomes. Implemented by metrics.Collector.
type Metrics interface {
	LayoutDone(source string, d time.Duration)
	LayoutFailed(source string)
	PolylineDecodeFailed()
	ElevationSamplesSkipped(n int)
	ProfileWithoutElevation()
	DegenerateTimeline()
}

type Service struct {
	elevation elevation.Options
	timeline  timeline.Options
	cache     *polyline.Cache
	metrics   Metrics
	now       func() time.Time
}

// NewService builds a service for the given widget dimensions. cache and m
// may be nil.
func NewService(elev elevation.Options, tl timeline.Options, cache *polyline.Cache, m Metrics) *Service {
	return &Service{
		elevation: elev,
		timeline:  tl,
		cache:     cache,
		metrics:   m,
		now:       time.Now,
	}
}

// Request tunes a single layout. Zero widths keep the service defaults.
type Request struct {
	Source       string // metrics label: http, nats, replay
	GraphWidthPx float64
	BarWidthPx   float64
}

type Result struct {
	PlanID      string              `json:"planId"`
	ComputedAt  time.Time           `json:"computedAt"`
	Bounds      plan.TripPlanBounds `json:"bounds"`
	Itineraries []ItineraryLayout   `json:"itineraries"`
}

type ItineraryLayout struct {
	Index    int               `json:"index"`
	Timeline timeline.Layout   `json:"timeline"`
	Profile  elevation.Profile `json:"profile"`
	Legs     []LegGeometry     `json:"legs"`
}

// LegGeometry is the decoded polyline of one leg. A malformed polyline
// leaves Points empty and sets GeometryError.
type LegGeometry struct {
	Mode          plan.Mode    `json:"mode"`
	Colors        plan.Colors  `json:"colors"`
	Points        []plan.Point `json:"points"`
	LengthM       float64      `json:"lengthM"`
	GeometryError string       `json:"geometryError,omitempty"`
}

// Layout lays out p with the service defaults.
func (s *Service) Layout(p plan.TripPlan) (Result, error) {
	return s.LayoutWith(p, Request{})
}

func (s *Service) LayoutWith(p plan.TripPlan, req Request) (Result, error) {
	start := time.Now()
	source := req.Source
	if source == "" {
		source = "direct"
	}
	if len(p.Itineraries) == 0 {
		if s.metrics != nil {
			s.metrics.LayoutFailed(source)
		}
		return Result{}, ErrNoItineraries
	}

	elevOpts, tlOpts := s.elevation, s.timeline
	if req.GraphWidthPx > 0 {
		elevOpts.GraphWidthPx = req.GraphWidthPx
	}
	if req.BarWidthPx > 0 {
		tlOpts.BarWidthPx = req.BarWidthPx
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	bounds, headers := timeline.ComputeAll(p.Itineraries, tlOpts)
	res := Result{
		PlanID:      id,
		ComputedAt:  s.now().UTC(),
		Bounds:      bounds,
		Itineraries: make([]ItineraryLayout, len(p.Itineraries)),
	}
	if bounds.Span() <= 0 {
		log.Printf("plan %s: zero-length time axis, timeline collapsed", id)
		if s.metrics != nil {
			s.metrics.DegenerateTimeline()
		}
	}

	for i, it := range p.Itineraries {
		prof := elevation.Build(it.Legs, elevOpts)
		if prof.SkippedSamples > 0 {
			log.Printf("plan %s itinerary %d: skipped %d malformed elevation samples", id, i, prof.SkippedSamples)
			if s.metrics != nil {
				s.metrics.ElevationSamplesSkipped(prof.SkippedSamples)
			}
		}
		if !prof.HasElevation && s.metrics != nil {
			s.metrics.ProfileWithoutElevation()
		}
		res.Itineraries[i] = ItineraryLayout{
			Index:    i,
			Timeline: headers[i],
			Profile:  prof,
			Legs:     s.legGeometries(id, i, it.Legs),
		}
	}

	if s.metrics != nil {
		s.metrics.LayoutDone(source, time.Since(start))
	}
	return res, nil
}

func (s *Service) legGeometries(planID string, itinerary int, legs []plan.Leg) []LegGeometry {
	out := make([]LegGeometry, len(legs))
	for j, leg := range legs {
		g := LegGeometry{Mode: leg.Mode, Colors: plan.ColorsFor(leg), Points: []plan.Point{}}
		pts, err := s.decode(leg.LegGeometry.Points)
		if err != nil {
			g.GeometryError = err.Error()
			log.Printf("plan %s itinerary %d leg %d: %v", planID, itinerary, j, err)
			if s.metrics != nil {
				s.metrics.PolylineDecodeFailed()
			}
		} else {
			g.Points = pts
			g.LengthM = polyline.Length(pts)
			if n := leg.LegGeometry.Length; n > 0 && n != len(pts) {
				log.Printf("plan %s itinerary %d leg %d: polyline declares %d points, decoded %d", planID, itinerary, j, n, len(pts))
			}
		}
		out[j] = g
	}
	return out
}

func (s *Service) decode(encoded string) ([]plan.Point, error) {
	var (
		pts []plan.Point
		err error
	)
	if s.cache != nil {
		pts, err = s.cache.Decode(encoded)
	} else {
		pts, err = polyline.Decode(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("leg geometry: %w", err)
	}
	return pts, nil
}
