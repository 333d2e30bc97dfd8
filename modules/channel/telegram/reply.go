package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/pkg/message"
)

// sendReply delivers r as one or more plain-text messages. Only the first
// chunk is threaded as a reply; the rest follow it in order.
//
// Fail-fast: if a chunk fails the remaining ones are not sent, so a partial
// delivery is never reported as success.
func (t *Telegram) sendReply(ctx context.Context, r message.Reply) error {
	if r.Text == "" {
		return channel.ErrEmptyReply
	}

	chatID, err := strconv.ParseInt(r.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat ID %q: %w", r.ChatID, err)
	}
	replyTo := parseOptionalInt(r.ReplyToID)

	for i, chunk := range channel.SplitText(r.Text, t.config.MaxMessageLength) {
		req := SendMessageRequest{
			ChatID:                chatID,
			Text:                  chunk,
			DisableWebPagePreview: true,
		}
		if i == 0 && replyTo != 0 {
			req.ReplyToMessageID = replyTo
			req.AllowSendingWithoutReply = true
		}
		if _, err := t.client.SendMessage(ctx, req); err != nil {
			return fmt.Errorf("telegram: send reply chunk %d: %w", i+1, err)
		}
	}
	return nil
}

// parseOptionalInt parses s, returning 0 for empty or malformed values.
func parseOptionalInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
