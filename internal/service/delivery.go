package service

import (
	"context"

	apperrors "remindd/internal/errors"
	"remindd/internal/metrics"
	"remindd/internal/models"
	"remindd/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// DeliveryService attempts delivery of due reminders. Every attempt ends
// with the record in a terminal state: a record must never stay WAITING
// after an attempt completes, because the dispatcher has no separate retry
// policy and would re-find it forever.
type DeliveryService struct {
	store     ReminderStore
	directory Directory
	presenter Presenter
	notifier  Notifier
	logger    *logrus.Logger
}

func NewDeliveryService(store ReminderStore, directory Directory, presenter Presenter, notifier Notifier, logger *logrus.Logger) *DeliveryService {
	return &DeliveryService{
		store:     store,
		directory: directory,
		presenter: presenter,
		notifier:  notifier,
		logger:    logger,
	}
}

// Deliver notifies the reminder's target and transitions the record. No
// error escapes; a failed attempt is itself a terminal outcome.
func (s *DeliveryService) Deliver(ctx context.Context, reminder *models.Reminder) {
	ctx, span := tracing.StartSpan(ctx, "reminder.deliver",
		attribute.Int64("reminder.id", reminder.ID),
		attribute.String("reminder.scope", reminder.ScopeID),
	)
	defer span.End()

	member, err := s.directory.ResolveMember(ctx, reminder.ScopeID, reminder.TargetID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			LogFieldReminderID: reminder.ID,
			LogFieldScopeID:    reminder.ScopeID,
			LogFieldTargetID:   reminder.TargetID,
		}).WithError(err).Warn("Unable to remind user - member out of reach")
		tracing.RecordError(ctx, err)
		s.transition(ctx, reminder, models.StatusFailed)
		return
	}

	content := s.presenter.RenderNotification(reminder, member)

	if err := s.notifier.SendDirect(ctx, member, content); err != nil {
		s.logger.WithFields(logrus.Fields{
			LogFieldReminderID: reminder.ID,
			LogFieldScopeID:    reminder.ScopeID,
			LogFieldTargetID:   reminder.TargetID,
		}).WithError(err).Warn("Unable to remind user - blocked DM or not enough permissions")
		tracing.RecordError(ctx, err)
		s.transition(ctx, reminder, models.StatusFailed)
		return
	}

	s.transition(ctx, reminder, models.StatusDelivered)
	s.logger.WithFields(logrus.Fields{
		LogFieldReminderID: reminder.ID,
		LogFieldScopeID:    reminder.ScopeID,
		LogFieldTargetID:   reminder.TargetID,
		LogFieldEvent:      "reminder_delivered",
		LogFieldOutcome:    OutcomeValueDelivered,
	}).Info("Reminder successfully sent")
}

// transition persists the terminal status. A record deleted mid-flight
// surfaces as NOT_FOUND and is logged, never raised: the deletion already
// won the race.
func (s *DeliveryService) transition(ctx context.Context, reminder *models.Reminder, status models.ReminderStatus) {
	outcome := OutcomeValueDelivered
	if status == models.StatusFailed {
		outcome = OutcomeValueFailed
	}

	if err := s.store.UpdateReminderStatus(ctx, reminder.ID, status); err != nil {
		switch apperrors.GetCode(err) {
		case apperrors.ErrCodeNotFound:
			s.logger.WithFields(logrus.Fields{
				LogFieldReminderID: reminder.ID,
				LogFieldStatus:     string(status),
			}).Debug("Reminder deleted before status write, skipping")
		case apperrors.ErrCodeInvalidTransition:
			s.logger.WithFields(logrus.Fields{
				LogFieldReminderID: reminder.ID,
				LogFieldStatus:     string(status),
			}).Warn("Reminder already terminal, skipping status write")
		default:
			s.logger.WithFields(logrus.Fields{
				LogFieldReminderID: reminder.ID,
				LogFieldStatus:     string(status),
			}).WithError(err).Error("Failed to persist reminder status")
		}
		return
	}

	reminder.Status = status
	metrics.IncrementCounter("reminders_dispatched_total", map[string]string{
		"outcome": outcome,
	}, "Reminder delivery attempts by outcome")
}
