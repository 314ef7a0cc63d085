// Package main is the entrypoint for the rainguard daemon.
//
// rainguard watches a weather nowcast sensor and a set of door/window
// sensors exposed by an automation hub, and notifies configured people when
// rain is imminent while a door is open. This file handles dependency wiring
// and process lifecycle; all decision logic lives under internal/.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rainguard/internal/alert"
	"rainguard/internal/api"
	"rainguard/internal/config"
	"rainguard/internal/engine"
	"rainguard/internal/external"
	"rainguard/internal/notify"
	"rainguard/internal/scheduler"
	"rainguard/internal/sensors"
)

// shutdownTimeout bounds how long graceful HTTP shutdown may take.
const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("rainguard starting",
		"environment", cfg.Environment,
		"nowcast_sensor", cfg.Watch.NowcastSensor,
		"door_sensors", cfg.Watch.DoorSensors,
		"recipients", len(cfg.Watch.Persons),
		"rain_horizon", cfg.Watch.RainHorizon,
		"cooldown", cfg.Watch.Cooldown,
		"tick_interval", cfg.Watch.TickInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hub REST client serves both boundary contracts: sensor state source
	// and notification service.
	hub := external.NewHubClient(external.HubClientConfig{
		BaseURL: cfg.Hub.BaseURL,
		Token:   cfg.Hub.Token.Unmask(),
		Timeout: cfg.Hub.Timeout,
		Logger:  logger,
	})

	evaluator := engine.NewEvaluator(engine.EvaluatorConfig{
		Source:        hub,
		Doors:         sensors.NewReader(hub, cfg.Watch.DoorSensors, logger),
		Policy:        alert.NewPolicy(cfg.Watch.Cooldown),
		Notifier:      notify.NewDispatcher(hub, logger),
		Persons:       cfg.Watch.Persons,
		NowcastSensor: cfg.Watch.NowcastSensor,
		RainHorizon:   cfg.Watch.RainHorizon,
		Logger:        logger,
	})

	go evaluator.Run(ctx)

	ticker := scheduler.NewTicker(evaluator, cfg.Watch.TickInterval, logger)
	if err := ticker.Start(); err != nil {
		logger.Error("failed to start periodic scheduler", "error", err)
		os.Exit(1)
	}
	defer ticker.Stop()

	server := api.NewServer(evaluator, cfg.Watch.DoorSensors, logger)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Handler(),
	}

	go func() {
		logger.Info("event feed listening", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("event feed server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("event feed shutdown failed", "error", err)
	}

	logger.Info("rainguard stopped")
}

// newLogger builds the process-wide structured JSON logger.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
