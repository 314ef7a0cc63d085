package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// StateSource provides current entity states from the automation hub.
// Implemented by the hub REST client in internal/external.
type StateSource interface {
	// GetState returns the current state string of an entity ("on", "off", ...).
	// An entity the hub does not know, or whose state it reports as
	// unavailable, yields ErrCodeSensorUnavailable.
	GetState(ctx context.Context, entityID string) (string, error)

	// GetAttribute returns a single attribute of an entity as its raw string
	// value. Used to read the nowcast sensor's forecast payload.
	GetAttribute(ctx context.Context, entityID string, attribute string) (string, error)
}

// NotificationService delivers a message to a single notify target.
// Implemented by the hub REST client in internal/external.
type NotificationService interface {
	Notify(ctx context.Context, target string, message string) error
}
