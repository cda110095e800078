package service

import (
	"context"
	"time"

	"remindd/internal/constants"

	"github.com/sirupsen/logrus"
)

// CleanupScheduler periodically prunes stale member cache entries.
// Reminder records are never touched here: terminal reminders stay
// queryable for listings and auditing.
type CleanupScheduler struct {
	store         MemberStore
	retentionDays int
	intervalHours int
	logger        *logrus.Logger
	stopCh        chan struct{}
}

func NewCleanupScheduler(store MemberStore, retentionDays, intervalHours int, logger *logrus.Logger) *CleanupScheduler {
	if intervalHours <= 0 {
		intervalHours = constants.DefaultCleanupIntervalHours
	}
	return &CleanupScheduler{
		store:         store,
		retentionDays: retentionDays,
		intervalHours: intervalHours,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

func (s *CleanupScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.intervalHours) * time.Hour)
	defer ticker.Stop()

	s.logger.Info("Starting cleanup scheduler")

	s.runCleanup()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cleanup scheduler context cancelled, stopping")
			return
		case <-s.stopCh:
			s.logger.Info("Cleanup scheduler stop signal received, stopping")
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

func (s *CleanupScheduler) Stop() {
	close(s.stopCh)
}

func (s *CleanupScheduler) runCleanup() {
	s.logger.WithField("retentionDays", s.retentionDays).Info("Running member cache cleanup")

	if err := s.store.CleanupOldMembers(s.retentionDays); err != nil {
		s.logger.WithError(err).Error("Failed to clean up member cache")
	}
}
