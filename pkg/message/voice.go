package message

import (
	"context"
	"io"
	"time"
)

// AudioOpener opens the audio payload of a voice message. Each call starts
// a fresh download; the caller closes the returned stream.
type AudioOpener func(ctx context.Context) (io.ReadCloser, error)

// VoiceEvent is a voice message received from a channel.
type VoiceEvent struct {
	Channel   string    `json:"channel"`
	Chat      Chat      `json:"chat"`
	Sender    Sender    `json:"sender"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`

	Duration time.Duration `json:"duration,omitempty"`
	MIMEType string        `json:"mime_type,omitempty"`
	FileSize int64         `json:"file_size,omitempty"`

	// Open is nil when the message carries no voice payload.
	Open AudioOpener `json:"-"`
}

// HasAudio reports whether the event carries a voice payload.
func (e VoiceEvent) HasAudio() bool {
	return e.Open != nil
}

// Key identifies the event across channels: "<channel>:<chat>:<message>".
func (e VoiceEvent) Key() string {
	return e.Channel + ":" + e.Chat.ID + ":" + e.MessageID
}
