package plan

import "strings"

type Colors struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

var modeColors = map[Mode]Colors{
	Walk:      {Background: "#bbbbbb", Foreground: "#000000"},
	Bicycle:   {Background: "#44aa44", Foreground: "#ffffff"},
	Car:       {Background: "#444444", Foreground: "#ffffff"},
	Scooter:   {Background: "#ff9900", Foreground: "#000000"},
	Bus:       {Background: "#080080", Foreground: "#ffffff"},
	Tram:      {Background: "#800000", Foreground: "#ffffff"},
	Subway:    {Background: "#ff0000", Foreground: "#ffffff"},
	Rail:      {Background: "#b00000", Foreground: "#ffffff"},
	Ferry:     {Background: "#008080", Foreground: "#ffffff"},
	CableCar:  {Background: "#800080", Foreground: "#ffffff"},
	Gondola:   {Background: "#800080", Foreground: "#ffffff"},
	Funicular: {Background: "#800080", Foreground: "#ffffff"},
	Airplane:  {Background: "#000080", Foreground: "#ffffff"},
}

var fallbackColors = Colors{Background: "#888888", Foreground: "#ffffff"}

// ColorsFor picks the segment colours for a leg. Transit legs prefer their
// route colours (hex without '#' as delivered by the planner).
func ColorsFor(l Leg) Colors {
	c, ok := modeColors[Mode(strings.ToUpper(string(l.Mode)))]
	if !ok {
		c = fallbackColors
	}
	if l.Mode.IsTransit() {
		if l.RouteColor != "" {
			c.Background = hexColor(l.RouteColor)
		}
		if l.RouteTextColor != "" {
			c.Foreground = hexColor(l.RouteTextColor)
		}
	}
	return c
}

func hexColor(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return s
	}
	return "#" + s
}
