package forecast

import (
	"time"

	"rainguard/internal/types"
)

// RainWithin reports whether any sample in the series that falls inside the
// half-open window [now, now+horizon) carries precipitation above zero.
//
// Samples before now are stale and never count; the predicate does not
// extrapolate past the last sample. An empty series yields false.
func RainWithin(series types.ForecastSeries, now time.Time, horizon time.Duration) bool {
	_, ok := NextRain(series, now, horizon)
	return ok
}

// NextRain returns the timestamp of the earliest raining sample inside the
// [now, now+horizon) window. The second return value is false when no such
// sample exists.
//
// The series is sorted ascending, so the scan stops at the first sample at
// or past the window end.
func NextRain(series types.ForecastSeries, now time.Time, horizon time.Duration) (time.Time, bool) {
	end := now.Add(horizon)
	for _, s := range series {
		if !s.Timestamp.Before(end) {
			break
		}
		if s.Timestamp.Before(now) {
			continue
		}
		if s.PrecipitationMM > 0 {
			return s.Timestamp, true
		}
	}
	return time.Time{}, false
}
