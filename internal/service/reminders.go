package service

import (
	"context"
	"time"
	"unicode/utf8"

	"remindd/internal/constants"
	apperrors "remindd/internal/errors"
	"remindd/internal/metrics"
	"remindd/internal/models"
	"remindd/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ReminderSummary is a reminder joined with the resolved display names of
// its target and author, for listings.
type ReminderSummary struct {
	models.Reminder
	TargetName string `json:"target_name"`
	AuthorName string `json:"author_name"`
}

// ReminderService is the entry point for creating, listing and mutating
// reminders. Mutations are routed through the confirmation flow.
type ReminderService struct {
	store     ReminderStore
	directory Directory
	notifier  Notifier
	flow      *ConfirmationFlow
	logger    *logrus.Logger
}

func NewReminderService(store ReminderStore, directory Directory, notifier Notifier, flow *ConfirmationFlow, logger *logrus.Logger) *ReminderService {
	return &ReminderService{
		store:     store,
		directory: directory,
		notifier:  notifier,
		flow:      flow,
		logger:    logger,
	}
}

// Create parses the schedule text, validates the target and persists a
// WAITING reminder. The author gets a best-effort acknowledgement DM;
// failing to send it never fails the creation.
func (s *ReminderService) Create(ctx context.Context, scopeID, authorID, targetID, originRef, body, scheduleText string) (*models.Reminder, error) {
	ctx, span := tracing.StartSpan(ctx, "reminder.create",
		attribute.String("reminder.scope", scopeID),
	)
	defer span.End()

	dueAt, err := ParseDueAt(scheduleText, time.Now())
	if err != nil {
		return nil, err
	}

	target, err := s.directory.ResolveMember(ctx, scopeID, targetID)
	if err != nil {
		return nil, err
	}

	// Truncate on runes, not bytes, so a multi-byte character at the
	// boundary is dropped whole instead of leaving invalid UTF-8.
	if utf8.RuneCountInString(body) > constants.MaxReminderBodyLength {
		body = string([]rune(body)[:constants.MaxReminderBodyLength])
	}

	reminder, err := s.store.CreateReminder(ctx, scopeID, authorID, targetID, originRef, body, dueAt)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		LogFieldReminderID: reminder.ID,
		LogFieldScopeID:    scopeID,
		LogFieldAuthorID:   authorID,
		LogFieldTargetID:   targetID,
		LogFieldDueAt:      reminder.DueAt.Format(time.RFC3339),
		LogFieldEvent:      "reminder_created",
		LogFieldOutcome:    OutcomeValueCreated,
	}).Info("Reminder created")
	metrics.IncrementCounter("reminders_created_total", nil, "Reminders created")

	s.ackAuthor(ctx, reminder, target.GetDisplayName())
	return reminder, nil
}

// List returns reminders for the scope, optionally narrowed by target,
// filtered by status. An empty status defaults to WAITING; an unknown one
// is rejected with the list of accepted values.
func (s *ReminderService) List(ctx context.Context, scopeID string, targetID *string, statusText string) ([]ReminderSummary, error) {
	status := models.StatusWaiting
	if statusText != "" {
		parsed, err := models.ParseReminderStatus(statusText)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid status filter").
				WithUserMessage(err.Error())
		}
		status = parsed
	}

	reminders, err := s.store.ListReminders(ctx, models.ReminderFilter{
		ScopeID:  &scopeID,
		TargetID: targetID,
		Status:   &status,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]ReminderSummary, 0, len(reminders))
	for _, r := range reminders {
		summaries = append(summaries, ReminderSummary{
			Reminder:   r,
			TargetName: s.directory.DisplayName(ctx, r.ScopeID, r.TargetID),
			AuthorName: s.directory.DisplayName(ctx, r.ScopeID, r.AuthorID),
		})
	}
	return summaries, nil
}

// Get returns one reminder scoped to the given scope id.
func (s *ReminderService) Get(ctx context.Context, scopeID string, id int64) (*models.Reminder, error) {
	return s.store.GetReminder(ctx, scopeID, id)
}

// Reschedule parses the new schedule and runs the confirmation exchange.
func (s *ReminderService) Reschedule(ctx context.Context, scopeID, actorID string, id int64, scheduleText string) (ConfirmOutcome, error) {
	newDueAt, err := ParseDueAt(scheduleText, time.Now())
	if err != nil {
		return OutcomeFailed, err
	}
	return s.flow.RequestReschedule(ctx, scopeID, actorID, id, newDueAt)
}

// Delete runs the confirmation exchange for removing a reminder.
func (s *ReminderService) Delete(ctx context.Context, scopeID, actorID string, id int64) (ConfirmOutcome, error) {
	return s.flow.RequestDelete(ctx, scopeID, actorID, id)
}

// Respond forwards a prompt answer to the confirmation flow.
func (s *ReminderService) Respond(handle, actorID string, approve bool) bool {
	return s.flow.Respond(handle, actorID, approve)
}

func (s *ReminderService) ackAuthor(ctx context.Context, reminder *models.Reminder, targetName string) {
	author, err := s.directory.ResolveMember(ctx, reminder.ScopeID, reminder.AuthorID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			LogFieldReminderID: reminder.ID,
			LogFieldAuthorID:   reminder.AuthorID,
		}).WithError(err).Debug("Skipping creation acknowledgement, author unresolvable")
		return
	}

	content := "Will do! I will remind " + targetName + " at " +
		reminder.DueAt.UTC().Format("2006-01-02 15:04") + " UTC."
	if err := s.notifier.SendDirect(ctx, author, content); err != nil {
		s.logger.WithFields(logrus.Fields{
			LogFieldReminderID: reminder.ID,
			LogFieldAuthorID:   reminder.AuthorID,
		}).WithError(err).Debug("Failed to send creation acknowledgement")
	}
}
