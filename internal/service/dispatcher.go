package service

import (
	"context"
	"time"

	"remindd/internal/constants"
	"remindd/internal/metrics"
	"remindd/internal/models"
	"remindd/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher periodically sweeps the store for WAITING reminders whose
// due time falls within the next cycle and hands them to the deliverer.
// The horizon extends one interval past now so a reminder due between
// two ticks goes out on the earlier one rather than up to a full
// interval late.
type Dispatcher struct {
	store       ReminderStore
	deliverer   Deliverer
	intervalSec int
	logger      *logrus.Logger
	stopCh      chan struct{}
}

func NewDispatcher(store ReminderStore, deliverer Deliverer, intervalSec int, logger *logrus.Logger) *Dispatcher {
	if intervalSec <= 0 {
		intervalSec = constants.DefaultDispatchIntervalSec
	}
	return &Dispatcher{
		store:       store,
		deliverer:   deliverer,
		intervalSec: intervalSec,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	interval := time.Duration(d.intervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.WithField("intervalSec", d.intervalSec).Info("Starting reminder dispatcher")

	d.runCycle(ctx, interval)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher context cancelled, stopping")
			return
		case <-d.stopCh:
			d.logger.Info("Dispatcher stop signal received, stopping")
			return
		case <-ticker.C:
			d.runCycle(ctx, interval)
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.stopCh)
}

func (d *Dispatcher) runCycle(ctx context.Context, interval time.Duration) {
	ctx, span := tracing.StartSpan(ctx, "dispatcher.cycle")
	defer span.End()

	horizon := time.Now().UTC().Add(interval)
	status := models.StatusWaiting

	due, err := d.store.ListReminders(ctx, models.ReminderFilter{
		Status:    &status,
		DueBefore: &horizon,
	})
	if err != nil {
		d.logger.WithError(err).Error("Failed to query due reminders")
		tracing.RecordError(ctx, err)
		return
	}

	if len(due) == 0 {
		return
	}

	tracing.AddSpanAttributes(ctx, attribute.Int("dispatcher.due_count", len(due)))
	d.logger.WithFields(logrus.Fields{
		LogFieldCount: len(due),
		LogFieldEvent: "dispatch_cycle",
	}).Info("Dispatching due reminders")
	metrics.SetGauge("reminders_due_last_cycle", float64(len(due)), nil, "Due reminders found in the last dispatch cycle")

	for i := range due {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.deliverer.Deliver(ctx, &due[i])
	}
}
