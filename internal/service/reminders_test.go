package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"remindd/internal/constants"
	apperrors "remindd/internal/errors"
	"remindd/internal/models"
	"remindd/pkg/chat/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReminderService(store *mockReminderStore, directory *mockDirectory, notifier *mockNotifier) *ReminderService {
	flow := NewConfirmationFlow(store, &mockPresenter{}, 5, testLogger())
	return NewReminderService(store, directory, notifier, flow, testLogger())
}

func TestReminderService_Create(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}
	notifier := &mockNotifier{}

	target := &types.Member{ScopeID: "scope-1", UserID: "target-1", DisplayName: "Pat", Reachable: true}
	author := &types.Member{ScopeID: "scope-1", UserID: "author-1", DisplayName: "Sam", Reachable: true}
	created := waitingReminder()

	directory.On("ResolveMember", mock.Anything, "scope-1", "target-1").Return(target, nil).Once()
	directory.On("ResolveMember", mock.Anything, "scope-1", "author-1").Return(author, nil).Once()
	store.On("CreateReminder", mock.Anything, "scope-1", "author-1", "target-1", "origin", "water the plants", mock.Anything).
		Return(created, nil).Once()
	notifier.On("SendDirect", mock.Anything, author, mock.MatchedBy(func(content string) bool {
		return strings.Contains(content, "Pat")
	})).Return(nil).Once()

	svc := newReminderService(store, directory, notifier)
	reminder, err := svc.Create(context.Background(), "scope-1", "author-1", "target-1", "origin", "water the plants", "+1h")

	require.NoError(t, err)
	assert.Equal(t, int64(42), reminder.ID)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestReminderService_Create_TruncatesLongBody(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}
	notifier := &mockNotifier{}

	target := &types.Member{ScopeID: "scope-1", UserID: "target-1", Reachable: true}
	longBody := strings.Repeat("a", constants.MaxReminderBodyLength+100)
	created := waitingReminder()

	directory.On("ResolveMember", mock.Anything, "scope-1", "target-1").Return(target, nil).Once()
	directory.On("ResolveMember", mock.Anything, "scope-1", "author-1").
		Return(nil, apperrors.NewNotFoundError("member", "author-1")).Once()
	store.On("CreateReminder", mock.Anything, "scope-1", "author-1", "target-1", "", mock.MatchedBy(func(body string) bool {
		return len(body) == constants.MaxReminderBodyLength
	}), mock.Anything).Return(created, nil).Once()

	svc := newReminderService(store, directory, notifier)
	_, err := svc.Create(context.Background(), "scope-1", "author-1", "target-1", "", longBody, "+1h")

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReminderService_Create_TruncationKeepsValidUTF8(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}
	notifier := &mockNotifier{}

	target := &types.Member{ScopeID: "scope-1", UserID: "target-1", Reachable: true}
	// A multi-byte rune straddling the limit must be dropped whole, never
	// split into a dangling lead byte.
	body := strings.Repeat("a", constants.MaxReminderBodyLength-1) + "é" + strings.Repeat("b", 50)
	created := waitingReminder()

	directory.On("ResolveMember", mock.Anything, "scope-1", "target-1").Return(target, nil).Once()
	directory.On("ResolveMember", mock.Anything, "scope-1", "author-1").
		Return(nil, apperrors.NewNotFoundError("member", "author-1")).Once()
	store.On("CreateReminder", mock.Anything, "scope-1", "author-1", "target-1", "", mock.MatchedBy(func(stored string) bool {
		return utf8.ValidString(stored) &&
			utf8.RuneCountInString(stored) == constants.MaxReminderBodyLength &&
			strings.HasSuffix(stored, "é")
	}), mock.Anything).Return(created, nil).Once()

	svc := newReminderService(store, directory, notifier)
	_, err := svc.Create(context.Background(), "scope-1", "author-1", "target-1", "", body, "+1h")

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReminderService_Create_UnparseableSchedule(t *testing.T) {
	svc := newReminderService(&mockReminderStore{}, &mockDirectory{}, &mockNotifier{})

	_, err := svc.Create(context.Background(), "scope-1", "author-1", "target-1", "", "body", "whenever")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeParseFailure))
	assert.Contains(t, apperrors.GetUserMessage(err), "whenever")
}

func TestReminderService_Create_UnknownTarget(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}

	directory.On("ResolveMember", mock.Anything, "scope-1", "ghost").
		Return(nil, apperrors.NewNotFoundError("member", "ghost")).Once()

	svc := newReminderService(store, directory, &mockNotifier{})
	_, err := svc.Create(context.Background(), "scope-1", "author-1", "ghost", "", "body", "+1h")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	store.AssertNotCalled(t, "CreateReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderService_Create_AckFailureIsIgnored(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}
	notifier := &mockNotifier{}

	target := &types.Member{ScopeID: "scope-1", UserID: "target-1", Reachable: true}
	author := &types.Member{ScopeID: "scope-1", UserID: "author-1", Reachable: true}
	created := waitingReminder()

	directory.On("ResolveMember", mock.Anything, "scope-1", "target-1").Return(target, nil).Once()
	directory.On("ResolveMember", mock.Anything, "scope-1", "author-1").Return(author, nil).Once()
	store.On("CreateReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(created, nil).Once()
	notifier.On("SendDirect", mock.Anything, author, mock.Anything).
		Return(apperrors.NewDeliveryUnavailableError("blocked", nil)).Once()

	svc := newReminderService(store, directory, notifier)
	_, err := svc.Create(context.Background(), "scope-1", "author-1", "target-1", "", "body", "+1h")

	require.NoError(t, err)
}

func TestReminderService_List_DefaultsToWaiting(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}

	var captured models.ReminderFilter
	store.On("ListReminders", mock.Anything, mock.MatchedBy(func(f models.ReminderFilter) bool {
		captured = f
		return true
	})).Return([]models.Reminder{*waitingReminder()}, nil).Once()
	directory.On("DisplayName", mock.Anything, "scope-1", "target-1").Return("Pat").Once()
	directory.On("DisplayName", mock.Anything, "scope-1", "author-1").Return("Sam").Once()

	svc := newReminderService(store, directory, &mockNotifier{})
	summaries, err := svc.List(context.Background(), "scope-1", nil, "")

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Pat", summaries[0].TargetName)
	assert.Equal(t, "Sam", summaries[0].AuthorName)
	require.NotNil(t, captured.Status)
	assert.Equal(t, models.StatusWaiting, *captured.Status)
}

func TestReminderService_List_ExplicitStatus(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}

	var captured models.ReminderFilter
	store.On("ListReminders", mock.Anything, mock.MatchedBy(func(f models.ReminderFilter) bool {
		captured = f
		return true
	})).Return([]models.Reminder{}, nil).Once()

	svc := newReminderService(store, directory, &mockNotifier{})
	summaries, err := svc.List(context.Background(), "scope-1", nil, "failed")

	require.NoError(t, err)
	assert.Empty(t, summaries)
	require.NotNil(t, captured.Status)
	assert.Equal(t, models.StatusFailed, *captured.Status)
}

func TestReminderService_List_UnknownStatus(t *testing.T) {
	svc := newReminderService(&mockReminderStore{}, &mockDirectory{}, &mockNotifier{})

	_, err := svc.List(context.Background(), "scope-1", nil, "SNOOZED")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	for _, allowed := range []string{"WAITING", "DELIVERED", "FAILED"} {
		assert.Contains(t, apperrors.GetUserMessage(err), allowed)
	}
}

func TestReminderService_List_UnresolvableNames(t *testing.T) {
	store := &mockReminderStore{}
	directory := &mockDirectory{}

	store.On("ListReminders", mock.Anything, mock.Anything).
		Return([]models.Reminder{*waitingReminder()}, nil).Once()
	directory.On("DisplayName", mock.Anything, "scope-1", "target-1").Return("(unknown)").Once()
	directory.On("DisplayName", mock.Anything, "scope-1", "author-1").Return("(unknown)").Once()

	svc := newReminderService(store, directory, &mockNotifier{})
	summaries, err := svc.List(context.Background(), "scope-1", nil, "")

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "(unknown)", summaries[0].TargetName)
	assert.Equal(t, "(unknown)", summaries[0].AuthorName)
}

func TestParseDueAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"relative", "+2h30m", now.Add(2*time.Hour + 30*time.Minute)},
		{"rfc3339", "2026-04-01T15:00:00Z", time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)},
		{"date and time", "2026-04-01 15:00", time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)},
		{"date and time with seconds", "2026-04-01 15:00:30", time.Date(2026, 4, 1, 15, 0, 30, 0, time.UTC)},
		{"date only", "2026-04-01", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"dotted date", "01.04.2026 15:00", time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)},
		{"dotted date only", "01.04.2026", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"clock time later today", "15:04", time.Date(2026, 3, 1, 15, 4, 0, 0, time.UTC)},
		{"clock time already past rolls forward", "09:00", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  +1h ", now.Add(time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDueAt(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDueAt_Failures(t *testing.T) {
	now := time.Now()
	for _, input := range []string{"", "banana", "+nonsense", "13:99", "2026-13-40"} {
		_, err := ParseDueAt(input, now)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeParseFailure), "input %q", input)
	}
}
