package salute

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by errors.Is against an *AuthError.
var (
	ErrMissingCredentials = errors.New("salute: missing credentials")
	ErrUpstreamRejected   = errors.New("salute: token request rejected")

	// ErrAudioTooLarge is the cause when the audio exceeds max_audio_bytes.
	ErrAudioTooLarge = errors.New("salute: audio exceeds size limit")
)

// AuthErrorKind classifies a token acquisition failure.
type AuthErrorKind int

const (
	// MissingCredentials: auth data or scope was empty; no request was sent.
	MissingCredentials AuthErrorKind = iota + 1
	// UpstreamRejected: non-2xx status, bad payload, or transport failure
	// after every retry.
	UpstreamRejected
)

func (k AuthErrorKind) String() string {
	switch k {
	case MissingCredentials:
		return "missing_credentials"
	case UpstreamRejected:
		return "upstream_rejected"
	default:
		return "unknown"
	}
}

// AuthError is returned by TokenCache.AccessToken.
type AuthError struct {
	Kind       AuthErrorKind
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	msg := "salute: token " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches ErrMissingCredentials or ErrUpstreamRejected by kind.
func (e *AuthError) Is(target error) bool {
	switch e.Kind {
	case MissingCredentials:
		return target == ErrMissingCredentials
	case UpstreamRejected:
		return target == ErrUpstreamRejected
	}
	return false
}

// upstreamStatusError carries the status and a bounded body excerpt of a
// non-2xx answer.
type upstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *upstreamStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}
