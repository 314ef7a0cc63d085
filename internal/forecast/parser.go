// Package forecast turns the raw nowcast payload exposed by the hub into a
// normalized precipitation series and answers the "rain expected soon"
// question over it.
//
// The raw payload is the loose boundary format; everything past Parse works
// on the strict internal schema (types.ForecastSample) only.
package forecast

import (
	"encoding/json"
	"sort"
	"time"

	"rainguard/internal/types"
)

// rawBucket mirrors one entry of the hub's forecast_json attribute. The
// precipitation field is optional per bucket; a missing value means no
// precipitation is forecast for that bucket.
type rawBucket struct {
	Datetime      string   `json:"datetime"`
	Precipitation *float64 `json:"precipitation"`
}

// Parse decodes a raw nowcast payload into an ordered ForecastSeries.
//
// The payload is a JSON array of time buckets. Buckets without a parseable
// datetime and buckets carrying a negative precipitation value are skipped;
// a bucket with no precipitation field is kept with a value of zero.
// Returned samples are sorted ascending by timestamp.
//
// Parse fails with ErrCodeForecastPayloadInvalid when the payload is not
// valid JSON, and with ErrCodeForecastPayloadEmpty when no usable time
// buckets remain after filtering. Callers treat either failure as "no
// forecast data available this cycle" and must not alert.
func Parse(raw string) (types.ForecastSeries, error) {
	var buckets []rawBucket
	if err := json.Unmarshal([]byte(raw), &buckets); err != nil {
		return nil, types.NewAppError(types.ErrCodeForecastPayloadInvalid,
			"nowcast payload is not a valid JSON array", err)
	}

	series := make(types.ForecastSeries, 0, len(buckets))
	for _, b := range buckets {
		if b.Datetime == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, b.Datetime)
		if err != nil {
			continue
		}

		var mm float64
		if b.Precipitation != nil {
			mm = *b.Precipitation
		}
		if mm < 0 {
			continue
		}

		series = append(series, types.ForecastSample{
			Timestamp:       ts.UTC(),
			PrecipitationMM: mm,
		})
	}

	if len(series) == 0 {
		return nil, types.NewAppError(types.ErrCodeForecastPayloadEmpty,
			"nowcast payload contains no usable time buckets", nil)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	return series, nil
}
