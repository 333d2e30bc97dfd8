package salute

import (
	"fmt"
	"net/url"
	"time"

	"github.com/flemzord/voxscribe/internal/httpx"
)

const (
	defaultOAuthURL     = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultRecognizeURL = "https://smartspeech.sber.ru/rest/v1/speech:recognize"
	defaultAuthScheme   = "Bearer"
	// Telegram refuses bot downloads above 20 MB, so nothing larger can
	// reach the recognizer anyway.
	defaultMaxAudioBytes = 20 << 20
)

// Config holds the SaluteSpeech module configuration.
type Config struct {
	// AuthData is the base64 client authorization key from the developer
	// console. Usually ${SALUTE_SPEECH_AUTHDATA}.
	AuthData string `yaml:"auth_data"`
	// Scope is the API scope, e.g. SALUTE_SPEECH_PERS.
	Scope string `yaml:"scope"`
	// AuthScheme prefixes AuthData in the OAuth Authorization header.
	AuthScheme string `yaml:"auth_scheme"`

	OAuthURL     string `yaml:"oauth_url"`
	RecognizeURL string `yaml:"recognize_url"`

	Timeout time.Duration     `yaml:"timeout"`
	Retry   httpx.RetryPolicy `yaml:"retry"`

	// InsecureSkipVerify defaults to true: the upstream chain is not in the
	// public trust store. Ignored when CAFile is set.
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify"`
	CAFile             string `yaml:"ca_file"`

	MaxAudioBytes int64 `yaml:"max_audio_bytes"`
	// RefreshMargin treats a token as expired this long before ExpiresAt.
	RefreshMargin time.Duration `yaml:"refresh_margin"`
}

func (c *Config) defaults() {
	if c.AuthScheme == "" {
		c.AuthScheme = defaultAuthScheme
	}
	if c.OAuthURL == "" {
		c.OAuthURL = defaultOAuthURL
	}
	if c.RecognizeURL == "" {
		c.RecognizeURL = defaultRecognizeURL
	}
	if c.Timeout <= 0 {
		c.Timeout = httpx.DefaultTimeout
	}
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = httpx.DefaultAttempts
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = httpx.DefaultRetryDelay
	}
	if c.InsecureSkipVerify == nil {
		skip := true
		c.InsecureSkipVerify = &skip
	}
	if c.MaxAudioBytes <= 0 {
		c.MaxAudioBytes = defaultMaxAudioBytes
	}
}

// validate checks field constraints. Empty credentials are not an error
// here: they are reported as MissingCredentials when a token is needed.
func (c *Config) validate() error {
	for name, raw := range map[string]string{"oauth_url": c.OAuthURL, "recognize_url": c.RecognizeURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("salute: %s must be a valid http/https URL, got %q", name, raw)
		}
	}
	if c.Retry.Attempts > 10 {
		return fmt.Errorf("salute: retry.attempts must be 1-10, got %d", c.Retry.Attempts)
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("salute: retry.delay must not be negative, got %s", c.Retry.Delay)
	}
	if c.RefreshMargin < 0 || c.RefreshMargin >= 30*time.Minute {
		return fmt.Errorf("salute: refresh_margin must be 0-30m, got %s", c.RefreshMargin)
	}
	return nil
}

func (c *Config) tls() httpx.TLSConfig {
	return httpx.TLSConfig{
		InsecureSkipVerify: c.InsecureSkipVerify != nil && *c.InsecureSkipVerify,
		CAFile:             c.CAFile,
	}
}
