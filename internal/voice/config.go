package voice

import (
	"fmt"
	"time"

	"github.com/flemzord/voxscribe/internal/security"
)

const (
	// DefaultEmptyNotice is sent when the audio contained no recognizable
	// speech.
	DefaultEmptyNotice = "Can't transcribe audio, check your microphone"
	// DefaultErrorNotice is sent on any other failure.
	DefaultErrorNotice = "Sorry, something went wrong while transcribing. Please try again later."

	defaultConcurrency = 8
	defaultTimeout     = 2 * time.Minute
	maxNoticeLength    = 4096
)

// Config controls the voice pipeline. It is the top-level `voice` section
// of the configuration file.
type Config struct {
	EmptyNotice string `yaml:"empty_notice"`
	ErrorNotice string `yaml:"error_notice"`
	// Concurrency bounds how many events are processed at once.
	Concurrency int `yaml:"concurrency"`
	// Timeout is the overall deadline for one event, download to reply.
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit throttles senders. Disabled by default.
	RateLimit security.RateLimitConfig `yaml:"rate_limit"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.EmptyNotice == "" {
		c.EmptyNotice = DefaultEmptyNotice
	}
	if c.ErrorNotice == "" {
		c.ErrorNotice = DefaultErrorNotice
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks field constraints after Defaults.
func (c *Config) Validate() error {
	if len(c.EmptyNotice) > maxNoticeLength || len(c.ErrorNotice) > maxNoticeLength {
		return fmt.Errorf("voice: notices must be at most %d bytes", maxNoticeLength)
	}
	if c.EmptyNotice == c.ErrorNotice {
		return fmt.Errorf("voice: empty_notice and error_notice must differ")
	}
	if c.Concurrency > 1024 {
		return fmt.Errorf("voice: concurrency must be 1-1024, got %d", c.Concurrency)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("voice: timeout must be at least 1s, got %s", c.Timeout)
	}
	if c.RateLimit.PerMinute < 0 {
		return fmt.Errorf("voice: rate_limit.per_minute must not be negative")
	}
	return nil
}
