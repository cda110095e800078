package service

import (
	"context"
	"time"

	"remindd/internal/models"
	"remindd/pkg/chat/types"

	"github.com/stretchr/testify/mock"
)

type mockReminderStore struct {
	mock.Mock
}

func (m *mockReminderStore) CreateReminder(ctx context.Context, scopeID, authorID, targetID, originRef, body string, dueAt time.Time) (*models.Reminder, error) {
	args := m.Called(ctx, scopeID, authorID, targetID, originRef, body, dueAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reminder), args.Error(1)
}

func (m *mockReminderStore) GetReminder(ctx context.Context, scopeID string, id int64) (*models.Reminder, error) {
	args := m.Called(ctx, scopeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reminder), args.Error(1)
}

func (m *mockReminderStore) ListReminders(ctx context.Context, filter models.ReminderFilter) ([]models.Reminder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reminder), args.Error(1)
}

func (m *mockReminderStore) UpdateReminderStatus(ctx context.Context, id int64, status models.ReminderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockReminderStore) RescheduleReminder(ctx context.Context, id int64, newDueAt time.Time) error {
	args := m.Called(ctx, id, newDueAt)
	return args.Error(0)
}

func (m *mockReminderStore) DeleteReminder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockMemberStore struct {
	mock.Mock
}

func (m *mockMemberStore) SaveMember(ctx context.Context, member *models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *mockMemberStore) GetMember(ctx context.Context, scopeID, userID string) (*models.Member, error) {
	args := m.Called(ctx, scopeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *mockMemberStore) CleanupOldMembers(retentionDays int) error {
	args := m.Called(retentionDays)
	return args.Error(0)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ResolveMember(ctx context.Context, scopeID, userID string) (*types.Member, error) {
	args := m.Called(ctx, scopeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Member), args.Error(1)
}

func (m *mockDirectory) DisplayName(ctx context.Context, scopeID, userID string) string {
	args := m.Called(ctx, scopeID, userID)
	return args.String(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendDirect(ctx context.Context, member *types.Member, content string) error {
	args := m.Called(ctx, member, content)
	return args.Error(0)
}

type mockPresenter struct {
	mock.Mock
}

func (m *mockPresenter) RenderNotification(reminder *models.Reminder, target *types.Member) string {
	args := m.Called(reminder, target)
	return args.String(0)
}

func (m *mockPresenter) PresentProposal(ctx context.Context, reminder *models.Reminder, change ProposedChange, handle string) (string, error) {
	args := m.Called(ctx, reminder, change, handle)
	return args.String(0), args.Error(1)
}

func (m *mockPresenter) RetractProposal(ctx context.Context, scopeID, promptID string) error {
	args := m.Called(ctx, scopeID, promptID)
	return args.Error(0)
}

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) Deliver(ctx context.Context, reminder *models.Reminder) {
	m.Called(ctx, reminder)
}

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) GetMember(ctx context.Context, scopeID, userID string) (*types.Member, error) {
	args := m.Called(ctx, scopeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Member), args.Error(1)
}

func (m *mockChatClient) SendDirect(ctx context.Context, userID, content string) (*types.SendResponse, error) {
	args := m.Called(ctx, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SendResponse), args.Error(1)
}

func (m *mockChatClient) PostPrompt(ctx context.Context, scopeID, content string) (*types.Prompt, error) {
	args := m.Called(ctx, scopeID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Prompt), args.Error(1)
}

func (m *mockChatClient) DeletePrompt(ctx context.Context, scopeID, messageID string) error {
	args := m.Called(ctx, scopeID, messageID)
	return args.Error(0)
}
