// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs in the cooldown math.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Validate the struct using go-playground/validator.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"rainguard/internal/types"
)

// Load loads and validates the rainguard configuration from the environment.
// It returns a types.AppError with ErrCodeConfigInvalid on any failure so
// main can fail fast with a categorized error.
func Load() (*Config, error) {
	// Step 1: Enforce UTC. All timestamps in the decision path are UTC.
	time.Local = time.UTC

	// Step 2: Load .env file if present. godotenv does NOT override existing
	// environment variables, preserving the priority OS env > dotenv.
	_ = godotenv.Load()

	// Step 3: Populate the Config struct from envconfig tags. The empty
	// prefix means tags name the environment variables directly.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalid,
			"failed to process environment configuration", err)
	}

	// Step 4: Validate the populated struct.
	if err := validator.New().Struct(cfg); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalid,
			"configuration validation failed", err)
	}

	if err := validatePersons(cfg.Watch.Persons); err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigInvalid,
			"invalid PERSONS_JSON entry", err)
	}

	return &cfg, nil
}

// validatePersons rejects recipients with empty fields. The validator's dive
// rules cover struct tags on PersonConfig, but the list arrives through a
// custom decoder, so the required fields are checked explicitly as well.
func validatePersons(persons PersonList) error {
	for i, p := range persons {
		if p.Name == "" {
			return fmt.Errorf("person %d: name is required", i)
		}
		if p.NotifyTarget == "" {
			return fmt.Errorf("person %d (%s): notify_target is required", i, p.Name)
		}
	}
	return nil
}
