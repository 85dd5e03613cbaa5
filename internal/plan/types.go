package plan

import "strings"

type Mode string

const (
	Walk      Mode = "WALK"
	Bicycle   Mode = "BICYCLE"
	Car       Mode = "CAR"
	Scooter   Mode = "SCOOTER"
	Bus       Mode = "BUS"
	Tram      Mode = "TRAM"
	Subway    Mode = "SUBWAY"
	Rail      Mode = "RAIL"
	Ferry     Mode = "FERRY"
	CableCar  Mode = "CABLE_CAR"
	Gondola   Mode = "GONDOLA"
	Funicular Mode = "FUNICULAR"
	Airplane  Mode = "AIRPLANE"
	Transit   Mode = "TRANSIT"
)

// IsTransit reports whether legs of this mode are drawn as fixed-width
// placeholders. Anything that is not a street mode counts as transit.
func (m Mode) IsTransit() bool {
	switch Mode(strings.ToUpper(string(m))) {
	case Walk, Bicycle, Car, Scooter:
		return false
	}
	return true
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Step struct {
	Distance          float64 `json:"distance"` // meters
	StreetName        string  `json:"streetName,omitempty"`
	RelativeDirection string  `json:"relativeDirection,omitempty"`
}

type EncodedPolyline struct {
	Points string `json:"points"`
	Length int    `json:"length,omitempty"`
}

type Leg struct {
	Mode           Mode            `json:"mode"`
	Distance       float64         `json:"distance"`  // meters, street legs
	StartTime      int64           `json:"startTime"` // epoch millis
	EndTime        int64           `json:"endTime"`   // epoch millis
	LegElevation   string          `json:"legElevation,omitempty"`
	LegGeometry    EncodedPolyline `json:"legGeometry"`
	Steps          []Step          `json:"steps,omitempty"`
	Route          string          `json:"route,omitempty"`
	RouteColor     string          `json:"routeColor,omitempty"`
	RouteTextColor string          `json:"routeTextColor,omitempty"`
}

type Itinerary struct {
	Legs []Leg `json:"legs"`
}

// StartTime is the first leg's start, 0 for an empty itinerary.
func (it Itinerary) StartTime() int64 {
	if len(it.Legs) == 0 {
		return 0
	}
	return it.Legs[0].StartTime
}

// EndTime is the last leg's end, 0 for an empty itinerary.
func (it Itinerary) EndTime() int64 {
	if len(it.Legs) == 0 {
		return 0
	}
	return it.Legs[len(it.Legs)-1].EndTime
}

type TripPlan struct {
	ID          string      `json:"id,omitempty"`
	Itineraries []Itinerary `json:"itineraries"`
}

// TripPlanBounds is the shared time axis of all itineraries shown together.
type TripPlanBounds struct {
	EarliestStartTime int64 `json:"earliestStartTime"`
	LatestEndTime     int64 `json:"latestEndTime"`
}

// Span returns LatestEndTime-EarliestStartTime in millis.
func (b TripPlanBounds) Span() int64 { return b.LatestEndTime - b.EarliestStartTime }

// BoundsOf scans itineraries for the earliest start and latest end.
// Itineraries without legs are ignored.
func BoundsOf(its []Itinerary) TripPlanBounds {
	var b TripPlanBounds
	first := true
	for _, it := range its {
		if len(it.Legs) == 0 {
			continue
		}
		s, e := it.StartTime(), it.EndTime()
		if first {
			b.EarliestStartTime, b.LatestEndTime = s, e
			first = false
			continue
		}
		if s < b.EarliestStartTime {
			b.EarliestStartTime = s
		}
		if e > b.LatestEndTime {
			b.LatestEndTime = e
		}
	}
	return b
}
