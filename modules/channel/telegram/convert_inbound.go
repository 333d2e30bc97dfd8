package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/flemzord/voxscribe/pkg/message"
)

// errNotVoice marks updates that carry nothing the relay handles.
var errNotVoice = errors.New("telegram: message carries no voice note")

// audioSource resolves Telegram file IDs into download streams.
type audioSource struct {
	client      *Client
	maxFileSize int64
}

// opener returns an AudioOpener that resolves fileID through getFile and
// streams the file. Nothing is fetched until the opener is called.
func (s audioSource) opener(fileID string) message.AudioOpener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		f, err := s.client.GetFile(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if s.maxFileSize > 0 && f.FileSize > s.maxFileSize {
			return nil, fmt.Errorf("telegram: voice file is %d bytes, limit is %d", f.FileSize, s.maxFileSize)
		}
		return s.client.Download(ctx, f.FilePath)
	}
}

// convertVoice transforms a Telegram Update into a VoiceEvent.
//
// Voice notes get an opener. Music files sent as audio produce an event
// without one, which the pipeline ignores. Anything else is errNotVoice.
func convertVoice(update *Update, channelName string, src audioSource) (message.VoiceEvent, error) {
	msg := extractMessage(update)
	if msg == nil {
		return message.VoiceEvent{}, fmt.Errorf("telegram: update %d contains no message", update.UpdateID)
	}
	if msg.Voice == nil && msg.Audio == nil {
		return message.VoiceEvent{}, errNotVoice
	}

	ev := message.VoiceEvent{
		Channel:   channelName,
		Chat:      convertChat(msg.Chat),
		Sender:    convertSender(msg.From),
		MessageID: strconv.Itoa(msg.MessageID),
		Timestamp: time.Unix(int64(msg.Date), 0),
	}

	switch {
	case msg.Voice != nil:
		ev.Duration = time.Duration(msg.Voice.Duration) * time.Second
		ev.MIMEType = msg.Voice.MIMEType
		ev.FileSize = msg.Voice.FileSize
		ev.Open = src.opener(msg.Voice.FileID)
	case msg.Audio != nil:
		ev.Duration = time.Duration(msg.Audio.Duration) * time.Second
		ev.MIMEType = msg.Audio.MIMEType
		ev.FileSize = msg.Audio.FileSize
	}

	return ev, nil
}

// extractMessage returns the actual message from an Update. Edited messages
// are skipped: a voice note cannot be edited, and replaying it would
// transcribe it twice.
func extractMessage(update *Update) *Message {
	if update.Message != nil {
		return update.Message
	}
	return update.ChannelPost
}

// convertSender maps a Telegram User to a platform-agnostic Sender.
func convertSender(user *User) message.Sender {
	if user == nil {
		return message.Sender{}
	}
	displayName := user.FirstName
	if user.LastName != "" {
		displayName += " " + user.LastName
	}
	return message.Sender{
		ID:          strconv.FormatInt(user.ID, 10),
		Username:    user.Username,
		DisplayName: displayName,
	}
}

// convertChat maps a Telegram Chat to a platform-agnostic Chat.
func convertChat(chat Chat) message.Chat {
	return message.Chat{
		ID:    strconv.FormatInt(chat.ID, 10),
		Type:  mapChatType(chat.Type),
		Title: chat.Title,
	}
}

// mapChatType converts Telegram chat type strings to message.ChatType.
func mapChatType(tgType string) message.ChatType {
	switch tgType {
	case "private":
		return message.ChatDM
	case "group", "supergroup":
		return message.ChatGroup
	case "channel":
		return message.ChatBroadcast
	default:
		return message.ChatGroup
	}
}
