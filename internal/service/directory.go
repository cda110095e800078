package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "remindd/internal/errors"
	"remindd/internal/models"
	"remindd/pkg/chat"
	"remindd/pkg/chat/types"

	"github.com/sirupsen/logrus"
)

// DirectoryService resolves members through the local cache first and
// falls back to the chat gateway. Fresh gateway results are written back
// to the cache so repeat deliveries stay off the network.
type DirectoryService struct {
	store           MemberStore
	client          chat.Client
	logger          *logrus.Logger
	cacheValidHours int
}

func NewDirectoryService(store MemberStore, client chat.Client, cacheValidHours int, logger *logrus.Logger) *DirectoryService {
	return &DirectoryService{
		store:           store,
		client:          client,
		logger:          logger,
		cacheValidHours: cacheValidHours,
	}
}

// ResolveMember returns a member from cache when fresh, otherwise asks the
// gateway. A stale cache entry is still served when the gateway is
// unreachable; a gateway "no such member" answer is authoritative and is
// never papered over by stale data.
func (s *DirectoryService) ResolveMember(ctx context.Context, scopeID, userID string) (*types.Member, error) {
	cached, err := s.store.GetMember(ctx, scopeID, userID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			LogFieldScopeID:  scopeID,
			LogFieldTargetID: userID,
		}).WithError(err).Warn("Member cache lookup failed, falling back to gateway")
	}

	if cached != nil && s.isCacheFresh(cached.CachedAt) {
		return cached.ToChatMember(), nil
	}

	member, err := s.client.GetMember(ctx, scopeID, userID)
	if err != nil {
		if errors.Is(err, chat.ErrMemberNotFound) {
			return nil, apperrors.NewNotFoundError("member", fmt.Sprintf("%s/%s", scopeID, userID))
		}
		if cached != nil {
			s.logger.WithFields(logrus.Fields{
				LogFieldScopeID:  scopeID,
				LogFieldTargetID: userID,
			}).WithError(err).Warn("Gateway member lookup failed, serving stale cache entry")
			return cached.ToChatMember(), nil
		}
		return nil, apperrors.NewDeliveryUnavailableError("member lookup", err)
	}

	s.saveToCache(ctx, member)
	return member, nil
}

// DisplayName resolves a best-effort name for display in listings and
// notifications. Resolution failures degrade to "(unknown)".
func (s *DirectoryService) DisplayName(ctx context.Context, scopeID, userID string) string {
	member, err := s.ResolveMember(ctx, scopeID, userID)
	if err != nil {
		return "(unknown)"
	}
	return member.GetDisplayName()
}

func (s *DirectoryService) isCacheFresh(cachedAt time.Time) bool {
	if s.cacheValidHours <= 0 {
		return false
	}
	return time.Since(cachedAt) < time.Duration(s.cacheValidHours)*time.Hour
}

func (s *DirectoryService) saveToCache(ctx context.Context, member *types.Member) {
	var record models.Member
	record.FromChatMember(member)
	record.CachedAt = time.Now().UTC()

	if err := s.store.SaveMember(ctx, &record); err != nil {
		s.logger.WithFields(logrus.Fields{
			LogFieldScopeID:  member.ScopeID,
			LogFieldTargetID: member.UserID,
		}).WithError(err).Warn("Failed to cache member")
	}
}
