package elevation

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Sample is one (distance, elevation) pair of a leg's elevation string.
// Distance is local to the leg. Elevation may be NaN, marking a gap.
type Sample struct {
	Distance  float64
	Elevation float64
}

// ParseSamples splits a "d,e,d,e,..." elevation string into samples. A
// literal NaN elevation is kept. Fields that do not parse are skipped and
// counted in skipped. While an odd number of fields remains, a bad field is
// taken to be a stray extra token and dropped on its own, so the fields after
// it keep their pairing. Otherwise the whole pair is dropped, as is a
// trailing unpaired value.
func ParseSamples(s string) (samples []Sample, skipped int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, 0
	}
	fields := strings.Split(s, ",")
	samples = make([]Sample, 0, len(fields)/2)
	for i := 0; i < len(fields); {
		if i+1 >= len(fields) {
			skipped++
			break
		}
		d, dOK := parseField(fields[i], false)
		e, eOK := parseField(fields[i+1], true)
		if dOK && eOK {
			samples = append(samples, Sample{Distance: d, Elevation: e})
			i += 2
			continue
		}
		skipped++
		if (len(fields)-i)%2 == 0 {
			i += 2
			continue
		}
		bad := i
		if dOK {
			bad = i + 1
		}
		fields = slices.Delete(fields, bad, bad+1)
	}
	return samples, skipped
}

// parseField parses one finite number. NaN is accepted only when allowNaN.
func parseField(f string, allowNaN bool) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
	if err != nil || math.IsInf(v, 0) || (math.IsNaN(v) && !allowNaN) {
		return 0, false
	}
	return v, true
}
