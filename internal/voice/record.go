package voice

import (
	"context"
	"time"
)

// Outcome is the final state of one voice event.
type Outcome string

// Outcomes. Every handled event ends in exactly one of them.
const (
	OutcomeIgnored      Outcome = "ignored"
	OutcomeThrottled    Outcome = "throttled"
	OutcomeRepliedText  Outcome = "replied_text"
	OutcomeRepliedEmpty Outcome = "replied_empty"
	OutcomeRepliedError Outcome = "replied_error"
)

// Replied reports whether the outcome sends a message to the user.
func (o Outcome) Replied() bool {
	switch o {
	case OutcomeRepliedText, OutcomeRepliedEmpty, OutcomeRepliedError:
		return true
	}
	return false
}

// Record is the operator-facing trace of one handled event.
type Record struct {
	At            time.Time     `json:"at"`
	Channel       string        `json:"channel"`
	ChatID        string        `json:"chat_id"`
	MessageID     string        `json:"message_id"`
	SenderID      string        `json:"sender_id,omitempty"`
	Outcome       Outcome       `json:"outcome"`
	AudioDuration time.Duration `json:"audio_duration_ns,omitempty"`
	// Elapsed covers download, recognition and reply.
	Elapsed    time.Duration `json:"elapsed_ns"`
	TextLength int           `json:"text_length"`
	// Text is only kept by recorders configured to store transcripts.
	Text string `json:"text,omitempty"`
	// ErrorKind is the stt error kind, "internal" for failures outside
	// recognition, empty on success.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	// ReplyError is set when the reply itself could not be delivered.
	ReplyError string `json:"reply_error,omitempty"`
}

// Recorder persists records. Implementations must be safe for concurrent
// use.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// Query filters History.Recent. Zero fields match everything.
type Query struct {
	Channel string
	ChatID  string
	Outcome Outcome
	Since   time.Time
	Limit   int
}

// History reads recorded events back, newest first.
type History interface {
	Recent(ctx context.Context, q Query) ([]Record, error)
}
