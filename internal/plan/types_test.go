package plan

import "testing"

func TestModeIsTransit(t *testing.T) {
	cases := map[Mode]bool{
		Walk:       false,
		Bicycle:    false,
		Car:        false,
		Scooter:    false,
		"walk":     false,
		Bus:        true,
		Rail:       true,
		Transit:    true,
		"MONORAIL": true,
	}
	for m, want := range cases {
		if got := m.IsTransit(); got != want {
			t.Errorf("%s.IsTransit() = %v, want %v", m, got, want)
		}
	}
}

func TestBoundsOf(t *testing.T) {
	its := []Itinerary{
		{Legs: []Leg{{StartTime: 5, EndTime: 10}, {StartTime: 10, EndTime: 20}}},
		{},
		{Legs: []Leg{{StartTime: 2, EndTime: 12}}},
	}
	b := BoundsOf(its)
	if b.EarliestStartTime != 2 || b.LatestEndTime != 20 {
		t.Fatalf("BoundsOf = %+v, want {2 20}", b)
	}
	if b.Span() != 18 {
		t.Errorf("Span = %d, want 18", b.Span())
	}
	if got := BoundsOf(nil); got != (TripPlanBounds{}) {
		t.Errorf("BoundsOf(nil) = %+v, want zero", got)
	}
}

func TestItineraryTimes(t *testing.T) {
	it := Itinerary{Legs: []Leg{{StartTime: 100, EndTime: 200}, {StartTime: 250, EndTime: 400}}}
	if it.StartTime() != 100 || it.EndTime() != 400 {
		t.Errorf("times = %d..%d, want 100..400", it.StartTime(), it.EndTime())
	}
	var empty Itinerary
	if empty.StartTime() != 0 || empty.EndTime() != 0 {
		t.Errorf("empty itinerary times should be 0")
	}
}

func TestColorsFor(t *testing.T) {
	c := ColorsFor(Leg{Mode: Bus, RouteColor: "123456", RouteTextColor: "#fefefe"})
	if c.Background != "#123456" || c.Foreground != "#fefefe" {
		t.Errorf("bus colours = %+v", c)
	}
	// street legs ignore route colours
	c = ColorsFor(Leg{Mode: Walk, RouteColor: "123456"})
	if c != modeColors[Walk] {
		t.Errorf("walk colours = %+v, want %+v", c, modeColors[Walk])
	}
	if c := ColorsFor(Leg{Mode: "HOVERCRAFT"}); c != fallbackColors {
		t.Errorf("unknown mode colours = %+v", c)
	}
}
