package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "remindd/internal/errors"
	"remindd/internal/migrations"
	"remindd/internal/models"
	"remindd/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the reminder store. It owns the only mutable shared state in
// the system; every component goes through this contract and never mutates
// records directly.
type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	// Validate database path to prevent directory traversal
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := migrations.LoadSchema()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to read schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: enc}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// CreateReminder persists a new WAITING reminder. The creation instant is
// stamped here, not taken from the caller, so a stale caller clock cannot
// smuggle in a due date that is already in the past.
func (d *Database) CreateReminder(ctx context.Context, scopeID, authorID, targetID, originRef, body string, dueAt time.Time) (*models.Reminder, error) {
	createdAt := time.Now().UTC()
	if !dueAt.After(createdAt) {
		return nil, apperrors.NewInvalidScheduleError(
			fmt.Sprintf("due date %s is not after creation time %s", dueAt.Format(time.RFC3339), createdAt.Format(time.RFC3339)),
		)
	}

	encryptedOriginRef, err := d.encryptor.EncryptIfEnabled(originRef)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt origin reference: %w", err)
	}

	encryptedBody, err := d.encryptor.EncryptIfEnabled(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt body: %w", err)
	}

	result, err := d.db.ExecContext(ctx, insertReminderQuery,
		scopeID, authorID, targetID, encryptedOriginRef, encryptedBody,
		createdAt, dueAt.UTC(), models.StatusWaiting,
	)
	if err != nil {
		return nil, apperrors.NewDatabaseError("create reminder", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.NewDatabaseError("create reminder", err)
	}

	return &models.Reminder{
		ID:        id,
		ScopeID:   scopeID,
		AuthorID:  authorID,
		TargetID:  targetID,
		OriginRef: originRef,
		Body:      body,
		CreatedAt: createdAt,
		DueAt:     dueAt.UTC(),
		Status:    models.StatusWaiting,
	}, nil
}

// GetReminder retrieves a single reminder by id, optionally scoped.
func (d *Database) GetReminder(ctx context.Context, scopeID string, id int64) (*models.Reminder, error) {
	filter := models.ReminderFilter{ID: &id}
	if scopeID != "" {
		filter.ScopeID = &scopeID
	}

	reminders, err := d.ListReminders(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(reminders) == 0 {
		return nil, apperrors.NewNotFoundError("reminder", id)
	}
	return &reminders[0], nil
}

// ListReminders returns reminders matching the filter, ordered by due date
// descending with ascending ids breaking ties. The result is never nil.
func (d *Database) ListReminders(ctx context.Context, filter models.ReminderFilter) ([]models.Reminder, error) {
	var predicates []string
	var args []interface{}

	if filter.ID != nil {
		predicates = append(predicates, "id = ?")
		args = append(args, *filter.ID)
	}
	if filter.ScopeID != nil {
		predicates = append(predicates, "scope_id = ?")
		args = append(args, *filter.ScopeID)
	}
	if filter.TargetID != nil {
		predicates = append(predicates, "target_id = ?")
		args = append(args, *filter.TargetID)
	}
	if filter.Status != nil {
		predicates = append(predicates, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.CreatedAfter != nil {
		predicates = append(predicates, "created_at > ?")
		args = append(args, filter.CreatedAfter.UTC())
	}
	if filter.CreatedBefore != nil {
		predicates = append(predicates, "created_at < ?")
		args = append(args, filter.CreatedBefore.UTC())
	}
	if filter.DueAfter != nil {
		predicates = append(predicates, "due_at > ?")
		args = append(args, filter.DueAfter.UTC())
	}
	if filter.DueBefore != nil {
		predicates = append(predicates, "due_at <= ?")
		args = append(args, filter.DueBefore.UTC())
	}

	query := reminderSelectColumns
	if len(predicates) > 0 {
		query += " WHERE " + strings.Join(predicates, " AND ")
	}
	query += reminderOrderClause

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list reminders", err)
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		var r models.Reminder
		var encryptedOriginRef, encryptedBody string

		if err := rows.Scan(
			&r.ID, &r.ScopeID, &r.AuthorID, &r.TargetID,
			&encryptedOriginRef, &encryptedBody,
			&r.CreatedAt, &r.DueAt, &r.Status, &r.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewDatabaseError("scan reminder", err)
		}

		r.OriginRef, err = d.encryptor.DecryptIfEnabled(encryptedOriginRef)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt origin reference: %w", err)
		}
		r.Body, err = d.encryptor.DecryptIfEnabled(encryptedBody)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt body: %w", err)
		}

		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list reminders", err)
	}

	return reminders, nil
}

// UpdateReminderStatus moves a WAITING reminder into a terminal state. The
// write is a single guarded UPDATE so a record cannot be transitioned twice
// by concurrent dispatchers, and a record deleted mid-flight surfaces as
// NOT_FOUND rather than being resurrected.
func (d *Database) UpdateReminderStatus(ctx context.Context, id int64, status models.ReminderStatus) error {
	if !models.StatusWaiting.CanTransition(status) {
		return apperrors.New(apperrors.ErrCodeInvalidTransition,
			fmt.Sprintf("cannot transition to %s", status))
	}

	return retryableDBOperation(ctx, func() error {
		result, err := d.db.ExecContext(ctx, updateReminderStatusQuery,
			string(status), id, string(models.StatusWaiting))
		if err != nil {
			return apperrors.NewDatabaseError("update status", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewDatabaseError("update status", err)
		}
		if rows == 0 {
			return d.explainGuardedMiss(ctx, id)
		}
		return nil
	}, "update reminder status")
}

// RescheduleReminder changes the due date of a WAITING reminder. The new
// date must be strictly in the future at call time.
func (d *Database) RescheduleReminder(ctx context.Context, id int64, newDueAt time.Time) error {
	now := time.Now().UTC()
	if !newDueAt.After(now) {
		return apperrors.NewInvalidScheduleError(
			fmt.Sprintf("new due date %s is not in the future", newDueAt.Format(time.RFC3339)),
		)
	}

	result, err := d.db.ExecContext(ctx, rescheduleReminderQuery,
		newDueAt.UTC(), id, string(models.StatusWaiting))
	if err != nil {
		return apperrors.NewDatabaseError("reschedule", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewDatabaseError("reschedule", err)
	}
	if rows == 0 {
		return d.explainGuardedMiss(ctx, id)
	}
	return nil
}

// DeleteReminder removes a reminder. Deleting an absent record is an error;
// callers are expected to have resolved the record first.
func (d *Database) DeleteReminder(ctx context.Context, id int64) error {
	result, err := d.db.ExecContext(ctx, deleteReminderQuery, id)
	if err != nil {
		return apperrors.NewDatabaseError("delete reminder", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewDatabaseError("delete reminder", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError("reminder", id)
	}
	return nil
}

// explainGuardedMiss distinguishes "record absent" from "record no longer
// WAITING" after a guarded UPDATE matched zero rows.
func (d *Database) explainGuardedMiss(ctx context.Context, id int64) error {
	var current string
	err := d.db.QueryRowContext(ctx, selectReminderStatusQuery, id).Scan(&current)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFoundError("reminder", id)
	}
	if err != nil {
		return apperrors.NewDatabaseError("read status", err)
	}
	return apperrors.New(apperrors.ErrCodeInvalidTransition,
		fmt.Sprintf("reminder is %s, not %s", current, models.StatusWaiting))
}

// Member cache operations

// SaveMember saves or updates a cached member
func (d *Database) SaveMember(ctx context.Context, member *models.Member) error {
	userIDHash, err := d.encryptor.EncryptForLookupIfEnabled(member.UserID)
	if err != nil {
		return fmt.Errorf("failed to encrypt user ID: %w", err)
	}

	encryptedUserID, err := d.encryptor.EncryptIfEnabled(member.UserID)
	if err != nil {
		return fmt.Errorf("failed to encrypt user ID: %w", err)
	}

	encryptedName, err := d.encryptor.EncryptIfEnabled(member.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to encrypt display name: %w", err)
	}

	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, insertOrReplaceMemberQuery,
			member.ScopeID, encryptedUserID, userIDHash, encryptedName, member.Reachable)
		if err != nil {
			return apperrors.NewDatabaseError("save member", err)
		}
		return nil
	}, "save member")
}

// GetMember retrieves a cached member, or nil when the cache has no entry.
func (d *Database) GetMember(ctx context.Context, scopeID, userID string) (*models.Member, error) {
	userIDHash, err := d.encryptor.EncryptForLookupIfEnabled(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt user ID: %w", err)
	}

	var member models.Member
	var encryptedUserID string
	var encryptedName sql.NullString

	err = d.db.QueryRowContext(ctx, selectMemberQuery, scopeID, userIDHash).Scan(
		&member.ID, &member.ScopeID, &encryptedUserID, &encryptedName,
		&member.Reachable, &member.CachedAt, &member.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get member", err)
	}

	member.UserID, err = d.encryptor.DecryptIfEnabled(encryptedUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt user ID: %w", err)
	}
	if encryptedName.Valid {
		member.DisplayName, err = d.encryptor.DecryptIfEnabled(encryptedName.String)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt display name: %w", err)
		}
	}

	return &member, nil
}

// CleanupOldMembers removes cached members older than the retention period.
// Reminder records are never cleaned up implicitly; only the cache expires.
func (d *Database) CleanupOldMembers(retentionDays int) error {
	_, err := d.db.Exec(deleteOldMembersQuery, retentionDays)
	if err != nil {
		return fmt.Errorf("failed to cleanup old members: %w", err)
	}
	return nil
}
