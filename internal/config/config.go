// Package config defines the static configuration for the rainguard daemon.
// Configuration is loaded once at process start and is immutable thereafter.
// It follows 12-Factor App principles by strictly separating code from
// configuration: everything comes from the environment (optionally seeded
// from a .env file), and any missing required value or invalid format fails
// startup immediately.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"rainguard/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to keep the hub token out of logs and config dumps.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the daemon. It is
// populated once during startup and never modified. Sub-components receive
// only the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"prod" validate:"required,oneof=local dev prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server ServerConfig
	Hub    HubConfig
	Watch  WatchConfig
}

// ServerConfig holds the HTTP listener settings for the event feed and
// health endpoints.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8126"`
}

// HubConfig holds the automation hub API connection settings.
type HubConfig struct {
	BaseURL string        `envconfig:"HUB_BASE_URL" validate:"required,url"`
	Token   SecretString  `envconfig:"HUB_TOKEN" validate:"required"`
	Timeout time.Duration `envconfig:"HUB_TIMEOUT" default:"10s"`
}

// WatchConfig holds the automation rule's own settings: which entities to
// watch, who to notify, and the two tunable durations.
type WatchConfig struct {
	// NowcastSensor is the entity carrying the precipitation forecast as a
	// forecast_json attribute.
	NowcastSensor string `envconfig:"NOWCAST_SENSOR" validate:"required"`

	// DoorSensors is the comma-separated list of monitored binary sensors.
	DoorSensors []string `envconfig:"DOOR_SENSORS" validate:"required,min=1,dive,required"`

	// Persons lists the notification recipients as a JSON array:
	// [{"name":"...","notify_target":"..."}]
	Persons PersonList `envconfig:"PERSONS_JSON" validate:"required,min=1,dive"`

	// RainHorizon is how far ahead the forecast is checked for rain.
	RainHorizon time.Duration `envconfig:"RAIN_HORIZON" default:"15m" validate:"gt=0"`

	// Cooldown is the minimum time between two consecutive notifications.
	Cooldown time.Duration `envconfig:"COOLDOWN" default:"5m" validate:"gt=0"`

	// TickInterval is how often the periodic evaluation runs.
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"5m" validate:"gt=0"`
}

// PersonList is a JSON-encoded list of recipients. It implements
// envconfig.Decoder so the whole list can be supplied in one variable.
type PersonList []types.PersonConfig

// Decode implements the envconfig.Decoder interface.
func (p *PersonList) Decode(value string) error {
	var persons []types.PersonConfig
	if err := json.Unmarshal([]byte(value), &persons); err != nil {
		return fmt.Errorf("PERSONS_JSON is not a valid JSON array: %w", err)
	}
	*p = persons
	return nil
}
