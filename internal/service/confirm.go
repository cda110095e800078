package service

import (
	"context"
	"sync"
	"time"

	"remindd/internal/constants"
	apperrors "remindd/internal/errors"
	"remindd/internal/metrics"
	"remindd/internal/tracing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ConfirmOutcome is the result of a confirmation exchange.
type ConfirmOutcome string

const (
	OutcomeApplied  ConfirmOutcome = "applied"
	OutcomeCanceled ConfirmOutcome = "canceled"
	OutcomeTimedOut ConfirmOutcome = "timed_out"
	OutcomeFailed   ConfirmOutcome = "failed"
)

// pendingProposal tracks one outstanding confirmation prompt. The decision
// channel is buffered so the responder never blocks on a flow that has
// already moved on. settled is guarded by the flow mutex; whichever side
// flips it first owns the resolution, so an accepted answer is always
// consumed and a late answer is always refused.
type pendingProposal struct {
	reminderID int64
	scopeID    string
	targetID   string
	change     ProposedChange
	decisionCh chan bool
	settled    bool
}

// ConfirmationFlow guards destructive reminder mutations behind an explicit
// approval from the reminder's target. A mutation request posts a prompt,
// parks until the target answers or the window closes, and only then
// touches the record. Nothing is mutated on cancel or timeout.
type ConfirmationFlow struct {
	store      ReminderStore
	presenter  Presenter
	timeoutSec int
	logger     *logrus.Logger

	mu      sync.Mutex
	pending map[string]*pendingProposal
}

func NewConfirmationFlow(store ReminderStore, presenter Presenter, timeoutSec int, logger *logrus.Logger) *ConfirmationFlow {
	if timeoutSec <= 0 {
		timeoutSec = constants.DefaultConfirmTimeoutSec
	}
	return &ConfirmationFlow{
		store:      store,
		presenter:  presenter,
		timeoutSec: timeoutSec,
		logger:     logger,
		pending:    make(map[string]*pendingProposal),
	}
}

// RequestReschedule proposes moving a reminder to newDueAt and blocks until
// the target decides or the window expires. Only the reminder's target may
// request its mutation.
func (f *ConfirmationFlow) RequestReschedule(ctx context.Context, scopeID, actorID string, reminderID int64, newDueAt time.Time) (ConfirmOutcome, error) {
	if !newDueAt.After(time.Now().UTC()) {
		return OutcomeFailed, apperrors.NewInvalidScheduleError("new due time must be in the future")
	}
	return f.run(ctx, scopeID, actorID, reminderID, ProposedChange{
		Kind:     MutationReschedule,
		NewDueAt: newDueAt,
	})
}

// RequestDelete proposes deleting a reminder and blocks until the target
// decides or the window expires.
func (f *ConfirmationFlow) RequestDelete(ctx context.Context, scopeID, actorID string, reminderID int64) (ConfirmOutcome, error) {
	return f.run(ctx, scopeID, actorID, reminderID, ProposedChange{
		Kind: MutationDelete,
	})
}

// Respond records the target's answer for an outstanding proposal. Answers
// from anyone but the proposal's target are ignored, as are answers for
// handles that are unknown or already settled.
func (f *ConfirmationFlow) Respond(handle, actorID string, approve bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	proposal, ok := f.pending[handle]
	if !ok || proposal.settled {
		f.logger.WithFields(logrus.Fields{
			LogFieldHandle:  handle,
			LogFieldActorID: actorID,
		}).Debug("Ignoring response for unknown or settled proposal")
		return false
	}
	if proposal.targetID != actorID {
		f.logger.WithFields(logrus.Fields{
			LogFieldHandle:     handle,
			LogFieldActorID:    actorID,
			LogFieldReminderID: proposal.reminderID,
		}).Debug("Ignoring response from non-target actor")
		return false
	}

	// Settling before the send guarantees the buffered write succeeds and
	// that this is the only answer the flow will ever see.
	proposal.settled = true
	proposal.decisionCh <- approve
	return true
}

// settle closes the proposal to further responses. If a response already
// won the race it is returned, so the caller can honor an answer that was
// accepted an instant before the window closed.
func (f *ConfirmationFlow) settle(proposal *pendingProposal) (approved, decided bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if proposal.settled {
		select {
		case approved = <-proposal.decisionCh:
			return approved, true
		default:
			return false, false
		}
	}
	proposal.settled = true
	return false, false
}

func (f *ConfirmationFlow) run(ctx context.Context, scopeID, actorID string, reminderID int64, change ProposedChange) (ConfirmOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "confirmation.run",
		attribute.Int64("reminder.id", reminderID),
		attribute.String("mutation.kind", string(change.Kind)),
	)
	defer span.End()

	reminder, err := f.store.GetReminder(ctx, scopeID, reminderID)
	if err != nil {
		return OutcomeFailed, err
	}
	if reminder.TargetID != actorID {
		return OutcomeFailed, apperrors.NewForbiddenError(actorID, string(change.Kind))
	}
	if reminder.Status.IsTerminal() {
		return OutcomeFailed, apperrors.New(apperrors.ErrCodeInvalidTransition,
			"reminder already settled").WithContext("status", string(reminder.Status))
	}

	handle := uuid.New().String()
	proposal := &pendingProposal{
		reminderID: reminderID,
		scopeID:    scopeID,
		targetID:   reminder.TargetID,
		change:     change,
		decisionCh: make(chan bool, constants.DecisionChannelSize),
	}
	f.register(handle, proposal)
	defer f.unregister(handle)

	promptID, err := f.presenter.PresentProposal(ctx, reminder, change, handle)
	if err != nil {
		return OutcomeFailed, apperrors.NewDeliveryUnavailableError("confirmation prompt", err)
	}
	defer f.retract(scopeID, promptID)

	log := f.logger.WithFields(logrus.Fields{
		LogFieldReminderID: reminderID,
		LogFieldScopeID:    scopeID,
		LogFieldActorID:    actorID,
		LogFieldHandle:     handle,
		LogFieldOperation:  string(change.Kind),
	})
	log.Info("Awaiting mutation confirmation")

	timer := time.NewTimer(time.Duration(f.timeoutSec) * time.Second)
	defer timer.Stop()

	var approved bool
	select {
	case <-ctx.Done():
		// A decision that raced in is dropped; nothing is applied during
		// shutdown.
		f.settle(proposal)
		log.WithField(LogFieldOutcome, OutcomeValueCanceled).Info("Confirmation aborted by shutdown")
		return OutcomeCanceled, ctx.Err()
	case <-timer.C:
		decided := false
		if approved, decided = f.settle(proposal); !decided {
			log.WithField(LogFieldOutcome, OutcomeValueTimedOut).Info("Confirmation window expired")
			f.countOutcome(change.Kind, OutcomeTimedOut)
			return OutcomeTimedOut, nil
		}
	case approved = <-proposal.decisionCh:
	}

	if !approved {
		log.WithField(LogFieldOutcome, OutcomeValueCanceled).Info("Mutation declined by target")
		f.countOutcome(change.Kind, OutcomeCanceled)
		return OutcomeCanceled, nil
	}

	if err := f.apply(ctx, reminderID, change); err != nil {
		log.WithError(err).Warn("Confirmed mutation could not be applied")
		tracing.RecordError(ctx, err)
		return OutcomeFailed, err
	}

	log.WithField(LogFieldOutcome, OutcomeValueApplied).Info("Mutation applied")
	f.countOutcome(change.Kind, OutcomeApplied)
	return OutcomeApplied, nil
}

func (f *ConfirmationFlow) apply(ctx context.Context, reminderID int64, change ProposedChange) error {
	switch change.Kind {
	case MutationDelete:
		return f.store.DeleteReminder(ctx, reminderID)
	case MutationReschedule:
		return f.store.RescheduleReminder(ctx, reminderID, change.NewDueAt)
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown mutation kind")
	}
}

func (f *ConfirmationFlow) register(handle string, proposal *pendingProposal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[handle] = proposal
}

func (f *ConfirmationFlow) unregister(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, handle)
}

// retract removes the prompt once the exchange settles. Failures are only
// logged; the prompt going stale is cosmetic.
func (f *ConfirmationFlow) retract(scopeID, promptID string) {
	if promptID == "" {
		return
	}
	if err := f.presenter.RetractProposal(context.Background(), scopeID, promptID); err != nil {
		f.logger.WithFields(logrus.Fields{
			LogFieldScopeID:  scopeID,
			LogFieldPromptID: promptID,
		}).WithError(err).Warn("Failed to retract confirmation prompt")
	}
}

func (f *ConfirmationFlow) countOutcome(kind MutationKind, outcome ConfirmOutcome) {
	metrics.IncrementCounter("reminder_mutations_total", map[string]string{
		"kind":    string(kind),
		"outcome": string(outcome),
	}, "Confirmation flow resolutions by kind and outcome")
}
