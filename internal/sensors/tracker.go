// Package sensors reads the configured door/window sensors from the hub and
// reduces them to the single "any door open" signal the alert policy needs.
package sensors

import (
	"context"
	"log/slog"

	"rainguard/internal/types"
)

// AnyOpen reports whether at least one sensor reading is open. An empty
// input yields false. Unknown readings count as closed: a sensor the hub
// cannot report on must never be the reason an alert fires.
func AnyOpen(states []types.DoorSensorState) bool {
	for _, s := range states {
		if s.IsOpen() {
			return true
		}
	}
	return false
}

// Reader fetches current door sensor states from the hub's state source.
type Reader struct {
	source    types.StateSource
	sensorIDs []string
	logger    *slog.Logger
}

// NewReader creates a Reader over the given sensor ids.
func NewReader(source types.StateSource, sensorIDs []string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		source:    source,
		sensorIDs: sensorIDs,
		logger:    logger,
	}
}

// ReadAll returns one DoorSensorState per configured sensor id, refreshed
// from the hub. A sensor whose state cannot be fetched is reported as
// SensorUnknown and logged; the read itself never fails, so a flaky sensor
// cannot abort an evaluation cycle.
func (r *Reader) ReadAll(ctx context.Context) []types.DoorSensorState {
	states := make([]types.DoorSensorState, 0, len(r.sensorIDs))
	for _, id := range r.sensorIDs {
		raw, err := r.source.GetState(ctx, id)
		if err != nil {
			r.logger.WarnContext(ctx, "door sensor unavailable, treating as closed",
				"sensor_id", id,
				"error", err,
			)
			states = append(states, types.DoorSensorState{SensorID: id, State: types.SensorUnknown})
			continue
		}
		states = append(states, types.DoorSensorState{SensorID: id, State: MapHubState(raw)})
	}
	return states
}

// MapHubState translates a hub binary-sensor state string into the internal
// SensorState. The hub reports "on" for open and "off" for closed; every
// other value (including "unavailable" and "unknown") maps to SensorUnknown.
func MapHubState(raw string) types.SensorState {
	switch raw {
	case "on":
		return types.SensorOpen
	case "off":
		return types.SensorClosed
	default:
		return types.SensorUnknown
	}
}
