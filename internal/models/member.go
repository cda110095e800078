package models

import (
	"time"

	"remindd/pkg/chat/types"
)

// Member represents a cached chat member in the database. The cache fronts
// the gateway member lookup so delivery does not hit the network for every
// due reminder.
type Member struct {
	ID          int64     `json:"id"`
	ScopeID     string    `json:"scope_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Reachable   bool      `json:"reachable"`
	CachedAt    time.Time `json:"cached_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetDisplayName returns the best available name for the member.
func (m *Member) GetDisplayName() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.UserID
}

// FromChatMember converts a gateway member to a cached Member.
func (m *Member) FromChatMember(cm *types.Member) {
	m.ScopeID = cm.ScopeID
	m.UserID = cm.UserID
	m.DisplayName = cm.DisplayName
	m.Reachable = cm.Reachable
}

// ToChatMember converts a cached Member back to the gateway representation.
func (m *Member) ToChatMember() *types.Member {
	return &types.Member{
		ScopeID:     m.ScopeID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Reachable:   m.Reachable,
	}
}
