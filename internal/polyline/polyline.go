// Package polyline decodes and encodes Google encoded polylines
// (https://developers.google.com/maps/documentation/utilities/polylinealgorithm).
package polyline

import (
	"errors"
	"fmt"
	"math"

	"itinerary-layout/internal/plan"
)

// ErrMalformed is wrapped by every decode failure.
var ErrMalformed = errors.New("malformed polyline")

const precision = 1e5

// Decode turns an encoded polyline into points. A truncated group, a
// latitude without its longitude, or a byte outside '?'..'~' fails the whole
// decode; no partial result is returned.
func Decode(encoded string) ([]plan.Point, error) {
	if encoded == "" {
		return []plan.Point{}, nil
	}
	pts := make([]plan.Point, 0, len(encoded)/4)
	index, lat, lon := 0, 0, 0
	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: latitude at offset %d has no longitude", ErrMalformed, index)
		}
		dLon, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next
		lat += dLat
		lon += dLon
		pts = append(pts, plan.Point{Lat: float64(lat) / precision, Lon: float64(lon) / precision})
	}
	return pts, nil
}

// decodeValue reads one signed delta starting at index and returns it with
// the offset of the following group.
func decodeValue(encoded string, index int) (int, int, error) {
	start := index
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, 0, fmt.Errorf("%w: group at offset %d is truncated", ErrMalformed, start)
		}
		b := int(encoded[index]) - 63
		if b < 0 || b > 0x3f {
			return 0, 0, fmt.Errorf("%w: invalid byte %q at offset %d", ErrMalformed, encoded[index], index)
		}
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b&0x20 == 0 {
			break
		}
		if shift > 60 {
			return 0, 0, fmt.Errorf("%w: group at offset %d overflows", ErrMalformed, start)
		}
	}
	if result&1 != 0 {
		result = ^result
	}
	return result >> 1, index, nil
}

// Encode is the inverse of Decode at 1e-5 precision.
func Encode(pts []plan.Point) string {
	if len(pts) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(pts)*8)
	prevLat, prevLon := 0, 0
	for _, p := range pts {
		lat := int(math.Round(p.Lat * precision))
		lon := int(math.Round(p.Lon * precision))
		buf = encodeValue(buf, lat-prevLat)
		buf = encodeValue(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

func encodeValue(buf []byte, v int) []byte {
	if v < 0 {
		v = ^(v << 1)
	} else {
		v <<= 1
	}
	for v >= 0x20 {
		buf = append(buf, byte((v&0x1f)|0x20)+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}

const earthRadiusM = 6371000.0

// Length returns the haversine length of the line in meters.
func Length(pts []plan.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += haversine(pts[i-1], pts[i])
	}
	return total
}

func haversine(a, b plan.Point) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
