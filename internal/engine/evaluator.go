// Package engine drives the evaluation cycle: it owns the single AlertState
// instance and runs the full decision path (forecast -> rain predicate, door
// states -> any-open, alert policy -> dispatch) for every trigger.
//
// Both producers, the periodic tick and the door-open event feed, enqueue
// into the same bounded queue; a single worker goroutine consumes it, so
// evaluations execute one at a time in arrival order and the AlertState is
// never read concurrently with a write.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rainguard/internal/alert"
	"rainguard/internal/forecast"
	"rainguard/internal/sensors"
	"rainguard/internal/types"
)

// ForecastAttribute is the nowcast sensor attribute carrying the raw
// precipitation forecast payload.
const ForecastAttribute = "forecast_json"

// queueDepth bounds the evaluation queue. Triggers arriving while the queue
// is full are dropped; the next tick re-evaluates the same inputs anyway.
const queueDepth = 8

// DoorReader abstracts the door state fetch for testability.
type DoorReader interface {
	ReadAll(ctx context.Context) []types.DoorSensorState
}

// Notifier abstracts the notification fan-out for testability.
type Notifier interface {
	Dispatch(ctx context.Context, persons []types.PersonConfig, message string) []types.DispatchResult
}

// Compile-time assertion that the sensors.Reader satisfies DoorReader.
var _ DoorReader = (*sensors.Reader)(nil)

// Evaluator runs evaluation cycles. Create it with NewEvaluator and start
// the worker with Run; producers call Enqueue.
type Evaluator struct {
	source        types.StateSource
	doors         DoorReader
	policy        *alert.Policy
	notifier      Notifier
	persons       []types.PersonConfig
	nowcastSensor string
	horizon       time.Duration
	clock         types.Clock
	logger        *slog.Logger

	// state is touched exclusively by the worker goroutine.
	state types.AlertState
	queue chan types.TriggerSource
}

// EvaluatorConfig holds the configuration for creating an Evaluator.
type EvaluatorConfig struct {
	Source        types.StateSource
	Doors         DoorReader
	Policy        *alert.Policy
	Notifier      Notifier
	Persons       []types.PersonConfig
	NowcastSensor string
	RainHorizon   time.Duration
	Clock         types.Clock
	Logger        *slog.Logger
}

// NewEvaluator creates an Evaluator with the given configuration.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Evaluator{
		source:        cfg.Source,
		doors:         cfg.Doors,
		policy:        cfg.Policy,
		notifier:      cfg.Notifier,
		persons:       cfg.Persons,
		nowcastSensor: cfg.NowcastSensor,
		horizon:       cfg.RainHorizon,
		clock:         clock,
		logger:        logger,
		queue:         make(chan types.TriggerSource, queueDepth),
	}
}

// Enqueue requests an evaluation cycle. It never blocks: when the queue is
// full the trigger is dropped, which is safe because evaluations are
// idempotent under the cooldown and the periodic tick will follow shortly.
func (e *Evaluator) Enqueue(src types.TriggerSource) bool {
	select {
	case e.queue <- src:
		return true
	default:
		e.logger.Warn("evaluation queue full, dropping trigger",
			"source", string(src),
		)
		return false
	}
}

// Run consumes the evaluation queue until the context is cancelled. It is
// the only goroutine that touches the AlertState.
func (e *Evaluator) Run(ctx context.Context) {
	e.logger.Info("evaluation worker started",
		"nowcast_sensor", e.nowcastSensor,
		"rain_horizon", e.horizon,
		"cooldown", e.policy.Cooldown,
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("evaluation worker stopped")
			return
		case src := <-e.queue:
			e.evaluateOnce(ctx, src)
		}
	}
}

// evaluateOnce runs a single evaluation cycle to completion. No condition in
// the cycle is fatal: every upstream failure degrades to "no rain signal" or
// "sensor closed" and is logged, leaving the daemon ready for the next
// trigger.
func (e *Evaluator) evaluateOnce(ctx context.Context, src types.TriggerSource) {
	now := e.clock.Now()
	log := e.logger.With(
		"eval_id", uuid.New().String(),
		"source", string(src),
	)

	rainExpected, nextRain := e.rainSignal(ctx, now, log)

	doorStates := e.doors.ReadAll(ctx)
	doorOpen := sensors.AnyOpen(doorStates)

	prev := e.policy.StateAt(e.state, now)
	next, fire := e.policy.Step(e.state, alert.Inputs{
		RainExpected: rainExpected,
		DoorOpen:     doorOpen,
		Now:          now,
	})
	e.state = next

	log.Info("evaluation complete",
		"rain_expected", rainExpected,
		"door_open", doorOpen,
		"policy_state", string(prev),
		"dispatch", fire,
	)

	if !fire {
		return
	}

	minutes := int(nextRain.Sub(now).Minutes())
	message := fmt.Sprintf("⚠️ Rain Warning: Rain expected in %d minutes and doors are open!", minutes)

	// The cooldown is already committed; delivery results only reach logs.
	results := e.notifier.Dispatch(ctx, e.persons, message)

	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	log.Info("rain warning dispatched",
		"rain_in_minutes", minutes,
		"recipients", len(results),
		"failed", failed,
	)
}

// rainSignal fetches and parses the nowcast payload and evaluates the rain
// predicate. Any failure yields rain=false (fail safe, not fail open) with
// the cause logged.
func (e *Evaluator) rainSignal(ctx context.Context, now time.Time, log *slog.Logger) (bool, time.Time) {
	raw, err := e.source.GetAttribute(ctx, e.nowcastSensor, ForecastAttribute)
	if err != nil {
		log.ErrorContext(ctx, "nowcast sensor read failed, assuming no rain",
			"sensor_id", e.nowcastSensor,
			"error", err,
		)
		return false, time.Time{}
	}

	series, err := forecast.Parse(raw)
	if err != nil {
		log.ErrorContext(ctx, "nowcast payload parse failed, assuming no rain",
			"sensor_id", e.nowcastSensor,
			"error", err,
		)
		return false, time.Time{}
	}

	at, ok := forecast.NextRain(series, now, e.horizon)
	if !ok {
		return false, time.Time{}
	}
	return true, at
}
