package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainguard/internal/types"
)

var t0 = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func sample(offset time.Duration, mm float64) types.ForecastSample {
	return types.ForecastSample{Timestamp: t0.Add(offset), PrecipitationMM: mm}
}

func TestRainWithin(t *testing.T) {
	horizon := 15 * time.Minute

	cases := []struct {
		name   string
		series types.ForecastSeries
		now    time.Time
		want   bool
	}{
		{
			name:   "empty series",
			series: nil,
			now:    t0,
			want:   false,
		},
		{
			name:   "rain inside window",
			series: types.ForecastSeries{sample(0, 0.0), sample(5*time.Minute, 0.3)},
			now:    t0,
			want:   true,
		},
		{
			name:   "only dry samples inside window",
			series: types.ForecastSeries{sample(0, 0.0), sample(5*time.Minute, 0.0)},
			now:    t0,
			want:   false,
		},
		{
			name:   "all samples before now",
			series: types.ForecastSeries{sample(-10*time.Minute, 2.0), sample(-5*time.Minute, 1.0)},
			now:    t0,
			want:   false,
		},
		{
			name:   "rain only past the horizon",
			series: types.ForecastSeries{sample(20*time.Minute, 1.0)},
			now:    t0,
			want:   false,
		},
		{
			name:   "sample exactly at now is included",
			series: types.ForecastSeries{sample(0, 0.5)},
			now:    t0,
			want:   true,
		},
		{
			name:   "sample exactly at now+horizon is excluded",
			series: types.ForecastSeries{sample(15*time.Minute, 0.5)},
			now:    t0,
			want:   false,
		},
		{
			name:   "stale rain before now plus dry window",
			series: types.ForecastSeries{sample(-1*time.Minute, 3.0), sample(5*time.Minute, 0.0)},
			now:    t0,
			want:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RainWithin(tc.series, tc.now, horizon))
		})
	}
}

func TestNextRain_ReturnsEarliestRainingSample(t *testing.T) {
	series := types.ForecastSeries{
		sample(0, 0.0),
		sample(5*time.Minute, 0.3),
		sample(10*time.Minute, 1.5),
	}

	at, ok := NextRain(series, t0, 15*time.Minute)
	require.True(t, ok)
	assert.Equal(t, t0.Add(5*time.Minute), at)
}

func TestNextRain_NoRain(t *testing.T) {
	series := types.ForecastSeries{sample(0, 0.0)}

	_, ok := NextRain(series, t0, 15*time.Minute)
	assert.False(t, ok)
}

func TestRainWithin_HorizonIsAParameter(t *testing.T) {
	series := types.ForecastSeries{sample(20*time.Minute, 0.8)}

	assert.False(t, RainWithin(series, t0, 15*time.Minute))
	assert.True(t, RainWithin(series, t0, 30*time.Minute))
}
