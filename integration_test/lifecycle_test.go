package integration_test

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "remindd/internal/errors"
	"remindd/internal/models"
	"remindd/internal/service"
	"remindd/pkg/chat/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderLifecycle_Delivered(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	env.gateway.addMember(&types.Member{ScopeID: "scope-1", UserID: "target-1", DisplayName: "Pat", Reachable: true})
	env.gateway.addMember(&types.Member{ScopeID: "scope-1", UserID: "author-1", DisplayName: "Sam", Reachable: true})

	ctx := context.Background()
	reminder, err := env.reminders.Create(ctx, "scope-1", "author-1", "target-1",
		"https://chat.example/s/1", "water the plants", "+1h")
	require.NoError(t, err)
	require.Equal(t, models.StatusWaiting, reminder.Status)

	// The author got an acknowledgement DM.
	sends := env.gateway.sentMessages()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0], "Pat")

	env.delivery.Deliver(ctx, reminder)

	got, err := env.db.GetReminder(ctx, "scope-1", reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)

	sends = env.gateway.sentMessages()
	require.Len(t, sends, 2)
	assert.Contains(t, sends[1], "water the plants")
	assert.Contains(t, sends[1], "https://chat.example/s/1")
}

func TestReminderLifecycle_BlockedTargetFails(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	env.gateway.addMember(&types.Member{ScopeID: "scope-1", UserID: "target-1", DisplayName: "Pat", Reachable: true})
	env.gateway.blockUser("target-1")

	ctx := context.Background()
	reminder, err := env.db.CreateReminder(ctx, "scope-1", "author-1", "target-1", "", "ping",
		time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	env.delivery.Deliver(ctx, reminder)

	got, err := env.db.GetReminder(ctx, "scope-1", reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
}

func TestReminderLifecycle_UnknownTargetFails(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	reminder, err := env.db.CreateReminder(ctx, "scope-1", "author-1", "ghost", "", "ping",
		time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	env.delivery.Deliver(ctx, reminder)

	got, err := env.db.GetReminder(ctx, "scope-1", reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Empty(t, env.gateway.sentMessages())
}

func TestDispatcher_SweepsDueReminders(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	env.gateway.addMember(&types.Member{ScopeID: "scope-1", UserID: "target-1", DisplayName: "Pat", Reachable: true})

	ctx := context.Background()
	due, err := env.db.CreateReminder(ctx, "scope-1", "author-1", "target-1", "", "due soon",
		time.Now().UTC().Add(500*time.Millisecond))
	require.NoError(t, err)
	notDue, err := env.db.CreateReminder(ctx, "scope-1", "author-1", "target-1", "", "due much later",
		time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	dispatcher := service.NewDispatcher(env.db, env.delivery, 1, logger)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		dispatcher.Start(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		got, err := env.db.GetReminder(ctx, "scope-1", due.ID)
		return err == nil && got.Status == models.StatusDelivered
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	<-done

	later, err := env.db.GetReminder(ctx, "scope-1", notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, later.Status)
}

// extractHandle pulls the proposal handle out of a rendered prompt. The
// prompt embeds it after the confirm marker.
func extractHandle(prompt string) string {
	const marker = "✅ "
	start := strings.Index(prompt, marker)
	if start < 0 {
		return ""
	}
	rest := prompt[start+len(marker):]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		return rest
	}
	return rest[:end]
}

func TestConfirmationFlow_EndToEndDelete(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	env.gateway.addMember(&types.Member{ScopeID: "scope-1", UserID: "target-1", DisplayName: "Pat", Reachable: true})

	ctx := context.Background()
	reminder, err := env.db.CreateReminder(ctx, "scope-1", "author-1", "target-1", "", "doomed",
		time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	outcomeCh := make(chan service.ConfirmOutcome, 1)
	go func() {
		outcome, _ := env.reminders.Delete(ctx, "scope-1", "target-1", reminder.ID)
		outcomeCh <- outcome
	}()

	// The prompt content carries the handle; answer it like a user would.
	var handle string
	require.Eventually(t, func() bool {
		env.gateway.mu.Lock()
		defer env.gateway.mu.Unlock()
		if len(env.gateway.prompts) == 0 {
			return false
		}
		handle = extractHandle(env.gateway.prompts[0])
		return handle != ""
	}, 2*time.Second, 20*time.Millisecond)

	require.True(t, env.reminders.Respond(handle, "target-1", true))

	select {
	case outcome := <-outcomeCh:
		assert.Equal(t, service.OutcomeApplied, outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("confirmation did not settle")
	}

	_, err = env.db.GetReminder(ctx, "scope-1", reminder.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestConfirmationFlow_EndToEndTimeout(t *testing.T) {
	env := newTestEnv(t)
	defer env.cleanup()

	env.gateway.addMember(&types.Member{ScopeID: "scope-1", UserID: "target-1", DisplayName: "Pat", Reachable: true})

	ctx := context.Background()
	reminder, err := env.db.CreateReminder(ctx, "scope-1", "author-1", "target-1", "", "survives",
		time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	outcome, err := env.reminders.Delete(ctx, "scope-1", "target-1", reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeTimedOut, outcome)

	got, err := env.db.GetReminder(ctx, "scope-1", reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, got.Status)
}
