package types

import "time"

// ForecastSample is a single time bucket from the nowcast feed: how much
// precipitation is expected at a point in time.
type ForecastSample struct {
	Timestamp       time.Time `json:"timestamp"`
	PrecipitationMM float64   `json:"precipitation_mm"`
}

// ForecastSeries is an ordered sequence of forecast samples, ascending by
// timestamp. It is built fresh for each evaluation cycle and never persisted.
type ForecastSeries []ForecastSample

// SensorState enumerates the states a binary door/window sensor can report.
// Anything the hub reports that is not a recognized open/closed value maps
// to SensorUnknown.
type SensorState string

const (
	SensorOpen    SensorState = "open"
	SensorClosed  SensorState = "closed"
	SensorUnknown SensorState = "unknown"
)

// DoorSensorState is the current reading of one configured door/window sensor.
type DoorSensorState struct {
	SensorID string      `json:"sensor_id"`
	State    SensorState `json:"state"`
}

// IsOpen reports whether the sensor is known to be open. Unknown and
// unavailable sensors read as closed, so a stale sensor can never trigger
// an alert on its own.
func (s DoorSensorState) IsOpen() bool {
	return s.State == SensorOpen
}

// PersonConfig identifies one notification recipient. Loaded once at startup
// and immutable thereafter.
type PersonConfig struct {
	Name         string `json:"name" validate:"required"`
	NotifyTarget string `json:"notify_target" validate:"required"`
}

// AlertState is the single process-wide piece of mutable alerting state.
// LastNotifiedAt is nil until the first notification is dispatched and is
// only ever moved forward in time after that.
type AlertState struct {
	LastNotifiedAt *time.Time
}

// HasNotified reports whether any notification has been dispatched yet.
// Whether the cooldown is still active is a question for the alert policy,
// which compares LastNotifiedAt against the clock.
func (s AlertState) HasNotified() bool {
	return s.LastNotifiedAt != nil
}

// DeliveryStatus enumerates the outcome states of a single notification
// delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// DispatchResult records the per-recipient outcome of a notification fan-out.
type DispatchResult struct {
	Person PersonConfig
	Status DeliveryStatus
	Err    error
}

// Succeeded reports whether the delivery to this recipient went through.
func (r DispatchResult) Succeeded() bool {
	return r.Status == DeliveryStatusSent
}

// TriggerSource identifies which producer requested an evaluation cycle.
// The policy itself never sees this; it exists only for log correlation.
type TriggerSource string

const (
	TriggerTick     TriggerSource = "tick"
	TriggerDoorOpen TriggerSource = "door_open"
)
