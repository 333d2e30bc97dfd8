package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/pkg/message"
)

// WebhookReceiver processes incoming Telegram webhook payloads.
// It implements gateway.WebhookHandler.
type WebhookReceiver struct {
	inbox       func(message.VoiceEvent)
	allowList   *channel.AllowList
	logger      *slog.Logger
	channelName string
	audio       audioSource
	secret      string
}

// NewWebhookReceiver creates a new WebhookReceiver.
func NewWebhookReceiver(client *Client, inbox func(message.VoiceEvent), allowList *channel.AllowList, logger *slog.Logger, channelName string, config Config) *WebhookReceiver {
	return &WebhookReceiver{
		inbox:       inbox,
		allowList:   allowList,
		logger:      logger,
		channelName: channelName,
		audio:       audioSource{client: client, maxFileSize: config.MaxFileSize},
		secret:      config.WebhookSecret,
	}
}

// HandleWebhook processes a webhook payload from the gateway dispatcher.
// It checks Telegram's secret token header, parses the update, applies the
// allow list, and pushes the voice event to the inbox. Unsupported updates
// are acknowledged so Telegram does not redeliver them.
func (w *WebhookReceiver) HandleWebhook(_ context.Context, _ string, body []byte, headers http.Header) error {
	if w.secret != "" {
		token := headers.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(w.secret), []byte(token)) != 1 {
			return errors.New("telegram: invalid webhook secret token")
		}
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return errors.New("telegram: invalid update JSON: " + err.Error())
	}

	ev, ok := admit(&update, w.channelName, w.audio, w.allowList, w.logger)
	if !ok {
		return nil
	}
	w.inbox(ev)
	return nil
}
