// Package projection maps distance or time offsets onto a horizontal pixel
// axis that also reserves fixed-width slots for placeholders (transit icons).
// The elevation graph and the timeline header both lay out through Project so
// that they share one rounding discipline.
package projection

import "math"

// Project returns the x offset of key after placeholders fixed-width slots:
//
//	labelWidthPx + round(key*pixelsPerUnit + placeholders*iconWidthPx)
func Project(key float64, placeholders int, pixelsPerUnit, labelWidthPx, iconWidthPx float64) float64 {
	return labelWidthPx + math.Round(key*pixelsPerUnit+float64(placeholders)*iconWidthPx)
}

// PixelsPerUnit divides the available width by the total key range. A zero or
// negative total (all-transit itinerary, zero-length time axis) yields 0 so
// every key collapses onto the same x.
func PixelsPerUnit(availablePx, total float64) float64 {
	if total <= 0 || availablePx <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	return availablePx / total
}

// Available subtracts reserved widths from width, never going below 0.
func Available(widthPx float64, reservedPx ...float64) float64 {
	for _, r := range reservedPx {
		widthPx -= r
	}
	if widthPx < 0 {
		return 0
	}
	return widthPx
}
