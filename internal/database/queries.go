package database

// Reminder queries. The listing query is assembled dynamically in
// ListReminders from reminderSelectColumns plus filter predicates.
const (
	reminderSelectColumns = `
		SELECT id, scope_id, author_id, target_id, origin_ref, body,
		       created_at, due_at, status, updated_at
		FROM reminders
	`

	reminderOrderClause = ` ORDER BY due_at DESC, id ASC`

	insertReminderQuery = `
		INSERT INTO reminders (
			scope_id, author_id, target_id, origin_ref, body,
			created_at, due_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	// The status predicate makes the terminal transition atomic with
	// respect to concurrent dispatch: only one writer can move a WAITING
	// record out of WAITING.
	updateReminderStatusQuery = `
		UPDATE reminders
		SET status = ?
		WHERE id = ? AND status = ?
	`

	rescheduleReminderQuery = `
		UPDATE reminders
		SET due_at = ?
		WHERE id = ? AND status = ?
	`

	selectReminderStatusQuery = `
		SELECT status FROM reminders WHERE id = ?
	`

	deleteReminderQuery = `
		DELETE FROM reminders WHERE id = ?
	`
)

// Member cache queries
const (
	insertOrReplaceMemberQuery = `
		INSERT OR REPLACE INTO members (
			scope_id, user_id, user_id_hash, display_name, reachable, cached_at
		) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	selectMemberQuery = `
		SELECT id, scope_id, user_id, display_name, reachable, cached_at, updated_at
		FROM members
		WHERE scope_id = ? AND user_id_hash = ?
	`

	deleteOldMembersQuery = `
		DELETE FROM members
		WHERE cached_at < datetime('now', '-' || ? || ' days')
	`
)
