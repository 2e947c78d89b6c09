package reference

import (
	"time"

	"kamera/internal/solar"
)

// Deviation is how far the computed sunrise and sunset of a day are from the
// reference. Deltas are computed minus reference; Comparable is false when
// either side has no sunrise or sunset that day.
type Deviation struct {
	Reference       Day            `json:"reference"`
	ComputedSunrise time.Time      `json:"computed_sunrise"`
	ComputedSunset  time.Time      `json:"computed_sunset"`
	State           solar.SunState `json:"state"`
	SunriseDelta    time.Duration  `json:"sunrise_delta"`
	SunsetDelta     time.Duration  `json:"sunset_delta"`
	Comparable      bool           `json:"comparable"`
}

// Compare computes the astronomical sunrise and sunset for every reference
// day, ignoring season overrides and clamping.
func Compare(calc *solar.Calculator, location solar.GeoLocation, days []Day) []Deviation {
	out := make([]Deviation, 0, len(days))
	for _, day := range days {
		rise, set, state := calc.SunriseSunset(day.Date, location)
		d := Deviation{
			Reference:       day,
			ComputedSunrise: rise,
			ComputedSunset:  set,
			State:           state,
		}
		if state == solar.SunRisesAndSets && !day.Sunrise.IsZero() && !day.Sunset.IsZero() {
			d.Comparable = true
			d.SunriseDelta = rise.Sub(day.Sunrise)
			d.SunsetDelta = set.Sub(day.Sunset)
		}
		out = append(out, d)
	}
	return out
}

// MeanAbsolute averages the absolute deltas of the comparable days.
func MeanAbsolute(deviations []Deviation) (sunrise, sunset time.Duration, n int) {
	var riseSum, setSum time.Duration
	for _, d := range deviations {
		if !d.Comparable {
			continue
		}
		riseSum += abs(d.SunriseDelta)
		setSum += abs(d.SunsetDelta)
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	return riseSum / time.Duration(n), setSum / time.Duration(n), n
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
