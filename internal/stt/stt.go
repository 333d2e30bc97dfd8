// Package stt defines the speech-to-text boundary between chat channels and
// recognition backends: the Transcriber interface and the error taxonomy
// every backend reports through.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ContentTypeOggOpus is the only audio encoding accepted by the relay.
// Telegram voice notes are Opus frames in an Ogg container.
const ContentTypeOggOpus = "audio/ogg;codecs=opus"

// Transcriber turns an audio stream into text. The stream is consumed
// exactly once. Implementations return a *TranscriptionError on failure
// and never return an empty string with a nil error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Sentinel errors matched by errors.Is against a *TranscriptionError.
var (
	ErrAuthFailed  = errors.New("stt: authentication failed")
	ErrEmptyResult = errors.New("stt: empty recognition result")
	ErrUpstream    = errors.New("stt: upstream error")
)

// ErrorKind classifies a transcription failure.
type ErrorKind int

const (
	// KindAuthFailed means no access token could be obtained; the
	// recognition endpoint was not called.
	KindAuthFailed ErrorKind = iota + 1
	// KindEmptyResult means the upstream answered successfully but
	// recognized no text.
	KindEmptyResult
	// KindUpstream covers transport failures and non-2xx answers.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthFailed:
		return "auth_failed"
	case KindEmptyResult:
		return "empty_result"
	case KindUpstream:
		return "upstream_error"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuthFailed:
		return ErrAuthFailed
	case KindEmptyResult:
		return ErrEmptyResult
	case KindUpstream:
		return ErrUpstream
	default:
		return nil
	}
}

// TranscriptionError is the single error type returned by Transcriber
// implementations.
type TranscriptionError struct {
	Kind ErrorKind
	// StatusCode is the upstream HTTP status, 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *TranscriptionError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("stt: %s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("stt: %s: %v", e.Kind, e.Err)
	default:
		return "stt: " + e.Kind.String()
	}
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *TranscriptionError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of err, or 0 when err is not a TranscriptionError.
func KindOf(err error) ErrorKind {
	var te *TranscriptionError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

// TokenState describes a backend's access-token cache for health reporting.
type TokenState struct {
	Cached    bool      `json:"cached"`
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// TokenReporter is implemented by backends that cache an access token.
type TokenReporter interface {
	State() TokenState
}
