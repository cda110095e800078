package service

import (
	"context"
	"time"

	"remindd/internal/models"
	"remindd/pkg/chat/types"
)

// ReminderStore is the persistence contract for reminder records. All
// lifecycle mutations go through it; nothing mutates a record in place.
type ReminderStore interface {
	CreateReminder(ctx context.Context, scopeID, authorID, targetID, originRef, body string, dueAt time.Time) (*models.Reminder, error)
	GetReminder(ctx context.Context, scopeID string, id int64) (*models.Reminder, error)
	ListReminders(ctx context.Context, filter models.ReminderFilter) ([]models.Reminder, error)
	UpdateReminderStatus(ctx context.Context, id int64, status models.ReminderStatus) error
	RescheduleReminder(ctx context.Context, id int64, newDueAt time.Time) error
	DeleteReminder(ctx context.Context, id int64) error
}

// MemberStore is the persistence contract for the member cache.
type MemberStore interface {
	SaveMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, scopeID, userID string) (*models.Member, error)
	CleanupOldMembers(retentionDays int) error
}

// Directory resolves members, cache first, then the gateway.
type Directory interface {
	// ResolveMember returns the member or a NOT_FOUND error when neither
	// the cache nor the gateway can produce the user.
	ResolveMember(ctx context.Context, scopeID, userID string) (*types.Member, error)
	// DisplayName resolves a best-effort display name, falling back to
	// "(unknown)" when the member cannot be resolved.
	DisplayName(ctx context.Context, scopeID, userID string) string
}

// Notifier delivers a direct notification to a resolved member. A blocked
// or unreachable target surfaces as a DELIVERY_UNAVAILABLE error.
type Notifier interface {
	SendDirect(ctx context.Context, member *types.Member, content string) error
}

// MutationKind identifies the guarded mutation a proposal asks to apply.
type MutationKind string

const (
	MutationReschedule MutationKind = "reschedule"
	MutationDelete     MutationKind = "delete"
)

// ProposedChange is the mutation a confirmation prompt asks the target to
// approve. NewDueAt is only meaningful for reschedules.
type ProposedChange struct {
	Kind     MutationKind
	NewDueAt time.Time
}

// Presenter renders reminder content and confirmation prompts. Prompts
// return an opaque prompt id usable for later retraction.
type Presenter interface {
	RenderNotification(reminder *models.Reminder, target *types.Member) string
	PresentProposal(ctx context.Context, reminder *models.Reminder, change ProposedChange, handle string) (promptID string, err error)
	RetractProposal(ctx context.Context, scopeID, promptID string) error
}

// Deliverer attempts delivery of one due reminder and owns the resulting
// status transition.
type Deliverer interface {
	Deliver(ctx context.Context, reminder *models.Reminder)
}
