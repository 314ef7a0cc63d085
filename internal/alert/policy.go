// Package alert implements the notification decision: combine the rain and
// door signals with a cooldown so the same rain event does not page people
// every cycle.
package alert

import (
	"time"

	"rainguard/internal/types"
)

// State labels for the policy's two-state machine.
type State string

const (
	// StateIdle means no cooldown is active; an alert may fire.
	StateIdle State = "IDLE"
	// StateCoolingDown means an alert was sent within the cooldown window.
	StateCoolingDown State = "COOLING_DOWN"
)

// Inputs are the only facts the policy sees. It has no notion of why it was
// invoked (periodic tick or door event), which guarantees both trigger paths
// behave identically.
type Inputs struct {
	RainExpected bool
	DoorOpen     bool
	Now          time.Time
}

// Policy decides whether to dispatch a notification now. Step is a pure
// transition function over an explicit AlertState value; the evaluation
// driver owns the single process-wide instance.
type Policy struct {
	Cooldown time.Duration
}

// NewPolicy creates a Policy with the given cooldown duration. The cooldown
// is fixed for the process lifetime.
func NewPolicy(cooldown time.Duration) *Policy {
	return &Policy{Cooldown: cooldown}
}

// StateAt reports which machine state the given AlertState represents at the
// given instant. COOLING_DOWN is derived, not stored: it holds while the
// last notification is younger than the cooldown.
func (p *Policy) StateAt(st types.AlertState, now time.Time) State {
	if st.LastNotifiedAt != nil && now.Sub(*st.LastNotifiedAt) < p.Cooldown {
		return StateCoolingDown
	}
	return StateIdle
}

// Step evaluates one cycle. It returns the successor AlertState and whether
// a notification must be dispatched now.
//
// While cooling down, no action is taken regardless of inputs. Otherwise a
// notification fires iff rain is expected and a door is open, which anchors
// a new cooldown at in.Now. LastNotifiedAt never moves backward.
//
// Step cannot fail. Callers with incomplete upstream data must pass
// RainExpected=false rather than guessing: the policy never alerts on
// missing information.
func (p *Policy) Step(st types.AlertState, in Inputs) (types.AlertState, bool) {
	if p.StateAt(st, in.Now) == StateCoolingDown {
		return st, false
	}

	if !in.RainExpected || !in.DoorOpen {
		return st, false
	}

	if st.LastNotifiedAt != nil && in.Now.Before(*st.LastNotifiedAt) {
		// A clock running backwards must not rewind the cooldown anchor.
		return st, false
	}

	now := in.Now
	return types.AlertState{LastNotifiedAt: &now}, true
}
