package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/gateway"
	"github.com/flemzord/voxscribe/internal/security"
	"github.com/flemzord/voxscribe/pkg/message"
	"gopkg.in/yaml.v3"
)

// ModuleID is the registered identifier, also used as the channel name in
// replies.
const ModuleID core.ModuleID = "channel.telegram"

const startTimeout = 30 * time.Second

func init() {
	core.RegisterModule(&Telegram{})
}

// Compile-time interface guards.
var (
	_ channel.Channel   = (*Telegram)(nil)
	_ core.Configurable = (*Telegram)(nil)
	_ core.Provisioner  = (*Telegram)(nil)
	_ core.Validator    = (*Telegram)(nil)
	_ core.Starter      = (*Telegram)(nil)
	_ core.Stopper      = (*Telegram)(nil)
)

// Telegram relays voice notes from a Telegram bot to the voice pipeline.
type Telegram struct {
	config    Config
	client    *Client
	logger    *slog.Logger
	allowList *channel.AllowList
	inbox     func(message.VoiceEvent)
	botUser   *User
	appCtx    *core.AppContext

	// Set during Start() depending on mode.
	poller          *Poller
	webhookReceiver *WebhookReceiver
}

// ModuleInfo implements core.Module.
func (t *Telegram) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  ModuleID,
		New: func() core.Module { return &Telegram{} },
	}
}

// Configure implements core.Configurable.
func (t *Telegram) Configure(node *yaml.Node) error {
	if err := node.Decode(&t.config); err != nil {
		return fmt.Errorf("telegram: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (t *Telegram) Provision(ctx *core.AppContext) error {
	t.config.defaults()
	t.appCtx = ctx
	t.logger = ctx.Logger
	t.client = NewClient(t.config.Token, t.config.APIURL)
	t.allowList = channel.NewAllowList(t.config.AllowUsers, t.config.AllowGroups)

	if r, ok := core.ServiceAs[*security.Redactor](ctx, core.ServiceRedactor); ok && t.config.Token != "" {
		r.AddLiteral(t.config.Token)
	}
	if t.allowList.IsOpen() {
		t.logger.Info("telegram allow list is open to every sender")
	}
	return nil
}

// Validate implements core.Validator.
func (t *Telegram) Validate() error {
	if t.config.Token == "" {
		return errors.New("telegram: token is required (set BOT_TOKEN)")
	}
	switch t.config.Mode {
	case "polling", "webhook":
	default:
		return fmt.Errorf("telegram: invalid mode %q (must be \"polling\" or \"webhook\")", t.config.Mode)
	}
	if t.config.Mode == "webhook" && t.config.WebhookURL == "" {
		return errors.New("telegram: webhook_url is required when mode is \"webhook\"")
	}
	return t.config.validate()
}

// Start implements core.Starter. It checks the bot token with getMe, then
// starts either polling or webhook mode.
func (t *Telegram) Start() error {
	if t.inbox == nil {
		return fmt.Errorf("telegram: %w, call SetVoiceInbox before Start", channel.ErrNoInbox)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	user, err := t.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram: getMe failed (check token): %w", err)
	}
	t.botUser = user
	t.logger.Info("telegram bot authenticated",
		"id", user.ID,
		"username", user.Username,
	)

	channelName := string(ModuleID)

	switch t.config.Mode {
	case "polling":
		// A webhook left over from a previous deployment blocks getUpdates.
		if err := t.client.DeleteWebhook(ctx); err != nil {
			t.logger.Warn("telegram: deleteWebhook before polling failed", "error", err)
		}
		t.poller = NewPoller(t.client, t.inbox, t.allowList, t.logger, channelName, t.config)
		t.poller.Start()
		t.logger.Info("telegram polling started",
			"timeout", t.config.PollingTimeout,
		)

	case "webhook":
		if t.config.WebhookSecret == "" {
			t.logger.Warn("telegram webhook running without secret_token; " +
				"set webhook_secret for production deployments")
		}
		t.webhookReceiver = NewWebhookReceiver(t.client, t.inbox, t.allowList, t.logger, channelName, t.config)

		if err := t.registerWebhook(); err != nil {
			return err
		}

		if err := t.client.SetWebhook(ctx, SetWebhookRequest{
			URL:            t.config.WebhookURL,
			SecretToken:    t.config.WebhookSecret,
			AllowedUpdates: t.config.AllowedUpdates,
		}); err != nil {
			return fmt.Errorf("telegram: setWebhook failed: %w", err)
		}
		t.logger.Info("telegram webhook configured",
			"url", t.config.WebhookURL,
		)
	}

	return nil
}

// registerWebhook registers the WebhookReceiver with the gateway's webhook
// dispatcher under the "telegram" source.
func (t *Telegram) registerWebhook() error {
	dispatcher, ok := core.ServiceAs[*gateway.WebhookDispatcher](t.appCtx, core.ServiceWebhooks)
	if !ok {
		return fmt.Errorf("telegram: %s service not found (is the gateway module loaded?)", core.ServiceWebhooks)
	}

	// Telegram authenticates with X-Telegram-Bot-Api-Secret-Token rather
	// than HMAC, so no dispatcher secret is set.
	dispatcher.Register("telegram", t.webhookReceiver, "")
	return nil
}

// Stop implements core.Stopper.
func (t *Telegram) Stop(ctx context.Context) error {
	t.logger.Info("telegram channel stopping")

	switch t.config.Mode {
	case "polling":
		if t.poller != nil {
			t.poller.Stop()
		}
	case "webhook":
		if err := t.client.DeleteWebhook(ctx); err != nil {
			t.logger.Warn("telegram: failed to delete webhook on shutdown", "error", err)
		}
	}

	return nil
}

// Reply implements channel.Replier.
func (t *Telegram) Reply(ctx context.Context, r message.Reply) error {
	return t.sendReply(ctx, r)
}

// SetVoiceInbox implements channel.Channel.
func (t *Telegram) SetVoiceInbox(fn func(ev message.VoiceEvent)) {
	t.inbox = fn
}
