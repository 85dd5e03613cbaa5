package elevation

import (
	"encoding/json"
	"math"

	"itinerary-layout/internal/plan"
)

// Options are the widget dimensions the profile is laid out for.
type Options struct {
	GraphWidthPx   float64 `yaml:"graph_width" json:"graphWidth"`
	GraphHeightPx  float64 `yaml:"graph_height" json:"graphHeight"`
	LabelWidthPx   float64 `yaml:"label_width" json:"labelWidth"`     // left axis labels
	IconWidthPx    float64 `yaml:"icon_width" json:"iconWidth"`       // one transit placeholder
	EndPaddingPx   float64 `yaml:"end_padding" json:"endPadding"`     // right padding
	TopMarginPx    float64 `yaml:"top_margin" json:"topMargin"`       // y of MaxElevation
	BottomMarginPx float64 `yaml:"bottom_margin" json:"bottomMargin"` // below the baseline
}

// GraphPoint is a sample placed on the whole-itinerary distance axis.
// A NaN elevation terminates the current terrain polygon.
type GraphPoint struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// MarshalJSON writes NaN elevations as null; encoding/json rejects NaN.
func (p GraphPoint) MarshalJSON() ([]byte, error) {
	var elev *float64
	if !math.IsNaN(p.Elevation) {
		elev = &p.Elevation
	}
	return json.Marshal(struct {
		Distance  float64  `json:"distance"`
		Elevation *float64 `json:"elevation"`
	}{p.Distance, elev})
}

func (p *GraphPoint) UnmarshalJSON(b []byte) error {
	var raw struct {
		Distance  float64  `json:"distance"`
		Elevation *float64 `json:"elevation"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Distance = raw.Distance
	p.Elevation = math.NaN()
	if raw.Elevation != nil {
		p.Elevation = *raw.Elevation
	}
	return nil
}

type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is a closed terrain polygon: it starts and ends on the baseline.
type Path []PixelPoint

// StepBox is the background rectangle of one step, [X1, X2) by [Y1, Y2].
type StepBox struct {
	LegIndex  int     `json:"legIndex"`
	StepIndex int     `json:"stepIndex"`
	X1        float64 `json:"x1"`
	X2        float64 `json:"x2"`
	Y1        float64 `json:"y1"`
	Y2        float64 `json:"y2"`
}

// Segment is either a transit placeholder or a street segment of the graph.
type Segment struct {
	LegIndex       int          `json:"legIndex"`
	Transit        bool         `json:"transit"`
	TransitOrdinal int          `json:"transitOrdinal"`
	Mode           plan.Mode    `json:"mode"`
	Colors         plan.Colors  `json:"colors"`
	FromDistance   float64      `json:"fromDistance"`
	ToDistance     float64      `json:"toDistance"`
	GraphPoints    []GraphPoint `json:"graphPoints,omitempty"`
	X1             float64      `json:"x1"`
	X2             float64      `json:"x2"`
	Paths          []Path       `json:"paths,omitempty"`
	Steps          []StepBox    `json:"steps,omitempty"`
}

// Width is X2-X1, never negative.
func (s Segment) Width() float64 {
	return math.Max(0, s.X2-s.X1)
}

type Profile struct {
	HasElevation            bool      `json:"hasElevation"`
	MinElevation            float64   `json:"minElevation"`
	MaxElevation            float64   `json:"maxElevation"`
	Segments                []Segment `json:"segments"`
	TotalOnStreetDistance   float64   `json:"totalOnStreetDistance"`
	TransitPlaceholderCount int       `json:"transitPlaceholderCount"`
	PixelsPerMeter          float64   `json:"pixelsPerMeter"`
	BaselineY               float64   `json:"baselineY"`
	SkippedSamples          int       `json:"skippedSamples,omitempty"`
}
