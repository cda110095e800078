package models

import (
	"fmt"
	"strings"
	"time"
)

// ReminderStatus is the lifecycle state of a reminder record.
type ReminderStatus string

const (
	StatusWaiting   ReminderStatus = "WAITING"
	StatusDelivered ReminderStatus = "DELIVERED"
	StatusFailed    ReminderStatus = "FAILED"
)

// AllowedStatuses returns the closed set of valid status names.
func AllowedStatuses() []ReminderStatus {
	return []ReminderStatus{StatusWaiting, StatusDelivered, StatusFailed}
}

// AllowedStatusList returns the valid status names joined for user-facing errors.
func AllowedStatusList() string {
	names := make([]string, 0, 3)
	for _, s := range AllowedStatuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// ParseReminderStatus validates a status name against the allowed set.
// Matching is case-insensitive; the canonical upper-case form is returned.
func ParseReminderStatus(name string) (ReminderStatus, error) {
	candidate := ReminderStatus(strings.ToUpper(strings.TrimSpace(name)))
	for _, s := range AllowedStatuses() {
		if candidate == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status %q, allowed: %s", name, AllowedStatusList())
}

// IsTerminal reports whether the status permits no further automatic transitions.
func (s ReminderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a valid lifecycle step.
// The only valid transitions are WAITING -> DELIVERED and WAITING -> FAILED.
func (s ReminderStatus) CanTransition(next ReminderStatus) bool {
	return s == StatusWaiting && next.IsTerminal()
}

// Reminder is the persisted unit representing one scheduled notification.
// All fields except DueAt and Status are immutable after creation; DueAt
// changes only through an explicit reschedule and Status only through the
// delivery lifecycle.
type Reminder struct {
	ID        int64          `json:"id" db:"id"`
	ScopeID   string         `json:"scope_id" db:"scope_id"`
	AuthorID  string         `json:"author_id" db:"author_id"`
	TargetID  string         `json:"target_id" db:"target_id"`
	OriginRef string         `json:"origin_ref" db:"origin_ref"`
	Body      string         `json:"body" db:"body"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	DueAt     time.Time      `json:"due_at" db:"due_at"`
	Status    ReminderStatus `json:"status" db:"status"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// ReminderFilter narrows a reminder listing. Nil fields are not applied.
// Time bounds are exclusive except DueBefore, which is inclusive so a
// dispatch horizon of exactly due_at still matches.
type ReminderFilter struct {
	ID            *int64
	ScopeID       *string
	TargetID      *string
	Status        *ReminderStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	DueAfter      *time.Time
	DueBefore     *time.Time
}
