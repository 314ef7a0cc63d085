// Package notify fans a rain warning out to every configured person.
package notify

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"rainguard/internal/types"
)

// fanoutLimit bounds how many notify calls run at once. The recipient list
// is small; the limit only keeps a misconfigured list from stampeding the hub.
const fanoutLimit = 4

// Dispatcher delivers one message to a list of recipients through the hub's
// notification service.
type Dispatcher struct {
	service types.NotificationService
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(service types.NotificationService, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		service: service,
		logger:  logger,
	}
}

// Dispatch sends the message to every person's notify target. Recipients are
// independent: one failed delivery never prevents the attempts to the
// others, and no error is returned to the caller. The per-recipient results
// are returned in the same order as persons and the aggregate is logged;
// the alert cooldown has already been committed by the time this runs, so
// delivery failures can only ever surface in logs.
func (d *Dispatcher) Dispatch(ctx context.Context, persons []types.PersonConfig, message string) []types.DispatchResult {
	results := make([]types.DispatchResult, len(persons))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fanoutLimit)

	for i, p := range persons {
		i, p := i, p
		g.Go(func() error {
			if err := d.service.Notify(gCtx, p.NotifyTarget, message); err != nil {
				d.logger.ErrorContext(gCtx, "notification delivery failed",
					"person", p.Name,
					"target", p.NotifyTarget,
					"error", err,
				)
				results[i] = types.DispatchResult{
					Person: p,
					Status: types.DeliveryStatusFailed,
					Err: types.NewAppError(types.ErrCodeNotifyDeliveryFailed,
						"delivery to "+p.NotifyTarget+" failed", err),
				}
				// Swallow the error so sibling deliveries still run.
				return nil
			}

			results[i] = types.DispatchResult{Person: p, Status: types.DeliveryStatusSent}
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	sent := 0
	for _, r := range results {
		if r.Succeeded() {
			sent++
		}
	}
	d.logger.InfoContext(ctx, "notification fan-out complete",
		"recipients", len(persons),
		"sent", sent,
		"failed", len(persons)-sent,
	)

	return results
}
