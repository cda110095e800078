package types

import "time"

// ClientConfig configures the chat gateway client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// Member is a resolvable user inside a scope (server/community).
type Member struct {
	ScopeID     string `json:"scopeId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Reachable   bool   `json:"reachable"`
}

// GetDisplayName returns the best available name for the member.
func (m *Member) GetDisplayName() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.UserID
}

// SendResponse is the gateway's reply to a send or post request.
type SendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Prompt is a rendered confirmation prompt posted into a scope. The
// MessageID doubles as the retraction handle.
type Prompt struct {
	MessageID string `json:"messageId"`
	ScopeID   string `json:"scopeId"`
}
