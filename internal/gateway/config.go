package gateway

import (
	"net"
	"os"
	"time"
)

const (
	defaultPort            = "8080"
	defaultMaxWebhookBytes = 1 << 20
	defaultAuthPerMinute   = 30
)

// Config holds HTTP gateway configuration.
type Config struct {
	Bind            string                      `yaml:"bind"`
	Auth            AuthConfig                  `yaml:"auth"`
	Webhooks        map[string]WebhookSourceCfg `yaml:"webhooks"`
	MaxWebhookBytes int64                       `yaml:"max_webhook_bytes"`
	ReadTimeout     time.Duration               `yaml:"read_timeout"`
	WriteTimeout    time.Duration               `yaml:"write_timeout"`
	ShutdownTimeout time.Duration               `yaml:"shutdown_timeout"`
}

// defaults fills zero values with sensible defaults. The bind port follows
// $PORT when set.
func (c *Config) defaults() {
	if c.Bind == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = defaultPort
		}
		c.Bind = net.JoinHostPort("127.0.0.1", port)
	}
	if c.MaxWebhookBytes <= 0 {
		c.MaxWebhookBytes = defaultMaxWebhookBytes
	}
	if c.Auth.AttemptsPerMinute == 0 {
		c.Auth.AttemptsPerMinute = defaultAuthPerMinute
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// AuthConfig configures authentication for admin endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
	// AttemptsPerMinute caps auth attempts per client address. Negative
	// disables the cap.
	AttemptsPerMinute int `yaml:"attempts_per_minute"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}

// WebhookSourceCfg holds per-source webhook configuration.
type WebhookSourceCfg struct {
	Secret string `yaml:"secret"`
}
