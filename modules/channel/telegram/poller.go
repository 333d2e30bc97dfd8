package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/pkg/message"
)

const (
	maxConsecutivePollingErrors = 5
	errorPauseDuration          = 30 * time.Second
)

// Poller implements long-polling for receiving Telegram updates.
type Poller struct {
	client      *Client
	inbox       func(message.VoiceEvent)
	allowList   *channel.AllowList
	logger      *slog.Logger
	channelName string
	audio       audioSource
	config      Config

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a new Poller.
func NewPoller(client *Client, inbox func(message.VoiceEvent), allowList *channel.AllowList, logger *slog.Logger, channelName string, config Config) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		client:      client,
		inbox:       inbox,
		allowList:   allowList,
		logger:      logger,
		channelName: channelName,
		audio:       audioSource{client: client, maxFileSize: config.MaxFileSize},
		config:      config,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine.
func (p *Poller) Start() {
	go p.loop()
}

// Stop cancels the in-flight getUpdates call and waits for the loop to
// finish. It is safe to call Stop multiple times.
func (p *Poller) Stop() {
	p.stopOnce.Do(p.cancel)
	<-p.done
}

// loop runs the long-polling loop until Stop() is called.
func (p *Poller) loop() {
	defer close(p.done)

	var offset int
	var consecutiveErrors int

	for p.ctx.Err() == nil {
		updates, err := p.client.GetUpdates(p.ctx, GetUpdatesRequest{
			Offset:         offset,
			Timeout:        p.config.PollingTimeout,
			AllowedUpdates: p.config.AllowedUpdates,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			consecutiveErrors++
			p.logger.Error("polling getUpdates failed",
				"error", err,
				"consecutive_errors", consecutiveErrors,
			)

			if consecutiveErrors >= maxConsecutivePollingErrors {
				p.logger.Warn("polling paused after consecutive errors",
					"pause", errorPauseDuration,
				)
				timer := time.NewTimer(errorPauseDuration)
				select {
				case <-p.ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
				consecutiveErrors = 0
			}
			continue
		}

		consecutiveErrors = 0

		for _, update := range updates {
			offset = update.UpdateID + 1
			p.handleUpdate(&update)
		}
	}
}

// handleUpdate converts a single update and hands it to the inbox.
func (p *Poller) handleUpdate(update *Update) {
	ev, ok := admit(update, p.channelName, p.audio, p.allowList, p.logger)
	if !ok {
		return
	}
	p.inbox(ev)
}

// admit converts an update and applies the allow-list. It is shared by the
// poller and the webhook receiver.
func admit(update *Update, channelName string, src audioSource, allowList *channel.AllowList, logger *slog.Logger) (message.VoiceEvent, bool) {
	ev, err := convertVoice(update, channelName, src)
	if err != nil {
		logger.Debug("skipping update", "update_id", update.UpdateID, "reason", err)
		return message.VoiceEvent{}, false
	}

	if !allowList.IsAllowed(ev.Sender, ev.Chat) {
		logger.Debug("update denied by allow list",
			"update_id", update.UpdateID,
			"sender", ev.Sender.ID,
			"chat", ev.Chat.ID,
		)
		return message.VoiceEvent{}, false
	}
	return ev, true
}
