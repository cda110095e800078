package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReminderStatus(t *testing.T) {
	tests := []struct {
		input string
		want  ReminderStatus
	}{
		{"WAITING", StatusWaiting},
		{"waiting", StatusWaiting},
		{"Delivered", StatusDelivered},
		{" failed ", StatusFailed},
	}
	for _, tt := range tests {
		got, err := ParseReminderStatus(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseReminderStatus_Invalid(t *testing.T) {
	_, err := ParseReminderStatus("SNOOZED")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNOOZED")
	assert.Contains(t, err.Error(), "WAITING, DELIVERED, FAILED")

	_, err = ParseReminderStatus("")
	assert.Error(t, err)
}

func TestReminderStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusWaiting.IsTerminal())
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestReminderStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusWaiting.CanTransition(StatusDelivered))
	assert.True(t, StatusWaiting.CanTransition(StatusFailed))

	assert.False(t, StatusWaiting.CanTransition(StatusWaiting))
	assert.False(t, StatusDelivered.CanTransition(StatusFailed))
	assert.False(t, StatusDelivered.CanTransition(StatusWaiting))
	assert.False(t, StatusFailed.CanTransition(StatusDelivered))
}
