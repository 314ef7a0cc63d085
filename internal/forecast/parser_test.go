package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainguard/internal/types"
)

func TestParse_ValidPayload(t *testing.T) {
	raw := `[
		{"datetime": "2026-08-30T12:00:00Z", "precipitation": 0.0},
		{"datetime": "2026-08-30T12:05:00Z", "precipitation": 0.3},
		{"datetime": "2026-08-30T12:10:00Z", "precipitation": 1.2}
	]`

	series, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), series[0].Timestamp)
	assert.Equal(t, 0.0, series[0].PrecipitationMM)
	assert.Equal(t, 0.3, series[1].PrecipitationMM)
	assert.Equal(t, 1.2, series[2].PrecipitationMM)
}

func TestParse_MissingPrecipitationMeansZero(t *testing.T) {
	raw := `[{"datetime": "2026-08-30T12:00:00Z"}]`

	series, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 0.0, series[0].PrecipitationMM)
}

func TestParse_SkipsUnusableBuckets(t *testing.T) {
	// Missing datetime, unparseable datetime, and negative precipitation
	// are each dropped; the remaining bucket survives.
	raw := `[
		{"precipitation": 0.5},
		{"datetime": "not-a-timestamp", "precipitation": 0.5},
		{"datetime": "2026-08-30T12:00:00Z", "precipitation": -1.0},
		{"datetime": "2026-08-30T12:05:00Z", "precipitation": 0.2}
	]`

	series, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 0.2, series[0].PrecipitationMM)
}

func TestParse_SortsByTimestamp(t *testing.T) {
	raw := `[
		{"datetime": "2026-08-30T12:10:00Z", "precipitation": 0.3},
		{"datetime": "2026-08-30T12:00:00Z", "precipitation": 0.1},
		{"datetime": "2026-08-30T12:05:00Z", "precipitation": 0.2}
	]`

	series, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, series, 3)
	for i := 1; i < len(series); i++ {
		assert.False(t, series[i].Timestamp.Before(series[i-1].Timestamp),
			"series must be ascending by timestamp")
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"truncated array", `[{"datetime": "2026-`},
		{"object instead of array", `{"datetime": "2026-08-30T12:00:00Z"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			require.Error(t, err)

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeForecastPayloadInvalid, appErr.Code)
		})
	}
}

func TestParse_NoUsableBuckets(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty array", `[]`},
		{"only unusable buckets", `[{"precipitation": 0.5}, {"datetime": "bad"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			require.Error(t, err)

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeForecastPayloadEmpty, appErr.Code)
		})
	}
}

func TestParse_NormalizesOffsetsToUTC(t *testing.T) {
	raw := `[{"datetime": "2026-08-30T14:00:00+02:00", "precipitation": 0.4}]`

	series, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), series[0].Timestamp)
	assert.Equal(t, time.UTC, series[0].Timestamp.Location())
}
