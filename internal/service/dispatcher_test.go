package service

import (
	"context"
	"testing"
	"time"

	"remindd/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDispatcher_RunCycle_DeliversDueReminders(t *testing.T) {
	store := &mockReminderStore{}
	deliverer := &mockDeliverer{}

	due := []models.Reminder{
		{ID: 1, ScopeID: "s", TargetID: "u", Status: models.StatusWaiting},
		{ID: 2, ScopeID: "s", TargetID: "u", Status: models.StatusWaiting},
	}

	var captured models.ReminderFilter
	store.On("ListReminders", mock.Anything, mock.MatchedBy(func(f models.ReminderFilter) bool {
		captured = f
		return true
	})).Return(due, nil).Once()
	deliverer.On("Deliver", mock.Anything, &due[0]).Once()
	deliverer.On("Deliver", mock.Anything, &due[1]).Once()

	d := NewDispatcher(store, deliverer, 30, testLogger())
	before := time.Now().UTC()
	d.runCycle(context.Background(), 30*time.Second)

	store.AssertExpectations(t)
	deliverer.AssertExpectations(t)

	assert.NotNil(t, captured.Status)
	assert.Equal(t, models.StatusWaiting, *captured.Status)
	assert.NotNil(t, captured.DueBefore)
	// Horizon is one full interval past now.
	assert.WithinDuration(t, before.Add(30*time.Second), *captured.DueBefore, 2*time.Second)
}

func TestDispatcher_RunCycle_QueryError(t *testing.T) {
	store := &mockReminderStore{}
	deliverer := &mockDeliverer{}

	store.On("ListReminders", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	d := NewDispatcher(store, deliverer, 30, testLogger())
	d.runCycle(context.Background(), 30*time.Second)

	store.AssertExpectations(t)
	deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDispatcher_RunCycle_NothingDue(t *testing.T) {
	store := &mockReminderStore{}
	deliverer := &mockDeliverer{}

	store.On("ListReminders", mock.Anything, mock.Anything).Return([]models.Reminder{}, nil).Once()

	d := NewDispatcher(store, deliverer, 30, testLogger())
	d.runCycle(context.Background(), 30*time.Second)

	deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDispatcher_StartStop(t *testing.T) {
	store := &mockReminderStore{}
	deliverer := &mockDeliverer{}

	store.On("ListReminders", mock.Anything, mock.Anything).Return([]models.Reminder{}, nil).Maybe()

	d := NewDispatcher(store, deliverer, 30, testLogger())

	done := make(chan struct{})
	go func() {
		d.Start(context.Background())
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	d.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestDispatcher_StartContextCancel(t *testing.T) {
	store := &mockReminderStore{}
	deliverer := &mockDeliverer{}

	store.On("ListReminders", mock.Anything, mock.Anything).Return([]models.Reminder{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(store, deliverer, 30, testLogger())

	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop on context cancel")
	}
}

func TestDispatcher_DefaultInterval(t *testing.T) {
	d := NewDispatcher(&mockReminderStore{}, &mockDeliverer{}, 0, testLogger())
	assert.Equal(t, 30, d.intervalSec)
}
