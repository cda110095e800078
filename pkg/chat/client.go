package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"remindd/pkg/chat/types"
)

// Client is the chat gateway API surface used by remindd. The gateway owns
// all transport concerns (the actual chat platform, rate limits, markdown);
// remindd only asks it to look up members, deliver DMs and manage prompts.
type Client interface {
	GetMember(ctx context.Context, scopeID, userID string) (*types.Member, error)
	SendDirect(ctx context.Context, userID, content string) (*types.SendResponse, error)
	PostPrompt(ctx context.Context, scopeID, content string) (*types.Prompt, error)
	DeletePrompt(ctx context.Context, scopeID, messageID string) error
}

// ErrMemberNotFound is returned when the gateway has no record of the user.
var ErrMemberNotFound = fmt.Errorf("chat: member not found")

// ErrSendBlocked is returned when the target blocks direct messages or the
// gateway lacks permission to reach them. Callers treat this as a recoverable
// delivery failure, not a transport error.
var ErrSendBlocked = fmt.Errorf("chat: direct message blocked or forbidden")

type GatewayClient struct {
	baseURL    string
	apiKey     string
	retryCount int
	client     *http.Client
}

func NewClient(cfg types.ClientConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryCount := cfg.RetryCount
	if retryCount <= 0 {
		retryCount = 1
	}
	return &GatewayClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		retryCount: retryCount,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *GatewayClient) GetMember(ctx context.Context, scopeID, userID string) (*types.Member, error) {
	endpoint := fmt.Sprintf("/api/scopes/%s/members/%s", url.PathEscape(scopeID), url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrMemberNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("member lookup failed with status %d", resp.StatusCode)
	}

	var member types.Member
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &member, nil
}

func (c *GatewayClient) SendDirect(ctx context.Context, userID, content string) (*types.SendResponse, error) {
	payload := map[string]interface{}{
		"userId":  userID,
		"content": content,
	}
	resp, status, err := c.postJSON(ctx, "/api/directMessages", payload)
	if err != nil {
		return resp, err
	}
	if status == http.StatusForbidden {
		return resp, ErrSendBlocked
	}
	if status != http.StatusOK {
		return resp, fmt.Errorf("send failed with status %d: %s", status, responseError(resp))
	}
	return resp, nil
}

func (c *GatewayClient) PostPrompt(ctx context.Context, scopeID, content string) (*types.Prompt, error) {
	payload := map[string]interface{}{
		"scopeId": scopeID,
		"content": content,
	}
	resp, status, err := c.postJSON(ctx, "/api/prompts", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("prompt post failed with status %d: %s", status, responseError(resp))
	}
	return &types.Prompt{MessageID: resp.MessageID, ScopeID: scopeID}, nil
}

func (c *GatewayClient) DeletePrompt(ctx context.Context, scopeID, messageID string) error {
	endpoint := fmt.Sprintf("/api/scopes/%s/prompts/%s", url.PathEscape(scopeID), url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("prompt delete failed with status %d", resp.StatusCode)
	}
	return nil
}

// postJSON posts the payload, retrying transient gateway failures. The final
// HTTP status is returned so callers can map platform-level rejections.
func (c *GatewayClient) postJSON(ctx context.Context, endpoint string, payload interface{}) (*types.SendResponse, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	var lastStatus int
	var lastResult *types.SendResponse

	for attempt := 0; attempt < c.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send request: %w", err)
			continue
		}

		var result types.SendResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()

		lastStatus = resp.StatusCode
		lastResult = &result

		// Retry only server-side and throttling failures.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("gateway returned status %d", resp.StatusCode)
			continue
		}

		if decodeErr != nil && resp.StatusCode == http.StatusOK {
			return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", decodeErr)
		}
		return &result, resp.StatusCode, nil
	}

	return lastResult, lastStatus, lastErr
}

func (c *GatewayClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}

func responseError(resp *types.SendResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Error
}
