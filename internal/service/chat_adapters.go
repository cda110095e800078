package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "remindd/internal/errors"
	"remindd/internal/models"
	"remindd/pkg/chat"
	"remindd/pkg/chat/types"
)

// excerptLength bounds the reminder body quoted inside confirmation
// prompts so a long reminder does not swallow the question.
const excerptLength = 120

// ChatNotifier delivers direct messages through the chat gateway.
type ChatNotifier struct {
	client chat.Client
}

func NewChatNotifier(client chat.Client) *ChatNotifier {
	return &ChatNotifier{client: client}
}

func (n *ChatNotifier) SendDirect(ctx context.Context, member *types.Member, content string) error {
	if !member.Reachable {
		return apperrors.NewDeliveryUnavailableError("direct messages disabled", nil).
			WithContext("userId", member.UserID)
	}
	if _, err := n.client.SendDirect(ctx, member.UserID, content); err != nil {
		if errors.Is(err, chat.ErrSendBlocked) {
			return apperrors.NewDeliveryUnavailableError("direct message blocked", err).
				WithContext("userId", member.UserID)
		}
		return apperrors.NewAPIError("send direct message", 0, err)
	}
	return nil
}

// ChatPresenter renders reminder notifications and confirmation prompts
// and posts the prompts into the reminder's scope.
type ChatPresenter struct {
	client chat.Client
}

func NewChatPresenter(client chat.Client) *ChatPresenter {
	return &ChatPresenter{client: client}
}

func (p *ChatPresenter) RenderNotification(reminder *models.Reminder, target *types.Member) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Reminder for %s\n\n%s", target.GetDisplayName(), reminder.Body)
	if reminder.OriginRef != "" {
		fmt.Fprintf(&b, "\n\nSet here: %s", reminder.OriginRef)
	}
	return b.String()
}

func (p *ChatPresenter) PresentProposal(ctx context.Context, reminder *models.Reminder, change ProposedChange, handle string) (string, error) {
	var question string
	switch change.Kind {
	case MutationDelete:
		question = fmt.Sprintf("delete reminder #%d", reminder.ID)
	case MutationReschedule:
		question = fmt.Sprintf("move reminder #%d to %s UTC",
			reminder.ID, change.NewDueAt.UTC().Format("2006-01-02 15:04"))
	}

	content := fmt.Sprintf("Do you want to %s?\n> %s\n\nReply ✅ %s to confirm or ❎ %s to cancel.",
		question, excerpt(reminder.Body), handle, handle)

	prompt, err := p.client.PostPrompt(ctx, reminder.ScopeID, content)
	if err != nil {
		return "", err
	}
	return prompt.MessageID, nil
}

func (p *ChatPresenter) RetractProposal(ctx context.Context, scopeID, promptID string) error {
	return p.client.DeletePrompt(ctx, scopeID, promptID)
}

func excerpt(body string) string {
	runes := []rune(body)
	if len(runes) <= excerptLength {
		return body
	}
	return string(runes[:excerptLength]) + "…"
}
