// Package salute implements speech recognition against the SaluteSpeech
// REST API: an OAuth token cache and a synchronous recognizer.
package salute

import (
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/httpx"
	"github.com/flemzord/voxscribe/internal/metrics"
	"github.com/flemzord/voxscribe/internal/security"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
)

// Module wires the token cache and recognizer into the application and
// publishes the recognizer as the stt.transcriber service.
type Module struct {
	config     Config
	configured bool
	logger     *slog.Logger

	tokens     *TokenCache
	recognizer *Recognizer
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "stt.salute",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("salute: decode config: %w", err)
	}
	m.config.defaults()
	m.configured = true
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	if !m.configured {
		m.config.defaults()
	}
	m.logger = ctx.Logger

	met, _ := core.ServiceAs[*metrics.Metrics](ctx, core.ServiceMetrics)
	redactor, _ := core.ServiceAs[*security.Redactor](ctx, core.ServiceRedactor)
	if redactor != nil {
		redactor.AddLiteral(m.config.AuthData)
	}

	if m.config.CAFile == "" && *m.config.InsecureSkipVerify {
		m.logger.Warn("TLS verification disabled for SaluteSpeech endpoints; set ca_file to pin the upstream root")
	}
	if m.config.AuthData == "" || m.config.Scope == "" {
		m.logger.Warn("SaluteSpeech credentials not set; transcriptions will fail until auth_data and scope are configured")
	}

	oauthClient, err := m.newClient("oauth", met)
	if err != nil {
		return err
	}
	recognizeClient, err := m.newClient("recognize", met)
	if err != nil {
		return err
	}

	m.tokens = NewTokenCache(TokenCacheConfig{
		URL:           m.config.OAuthURL,
		AuthData:      m.config.AuthData,
		Scope:         m.config.Scope,
		AuthScheme:    m.config.AuthScheme,
		RefreshMargin: m.config.RefreshMargin,
		Client:        oauthClient,
		Logger:        m.logger,
		Metrics:       met,
		OnRefresh: func(tok AccessToken) {
			if redactor != nil {
				redactor.SetLiteral("salute.access_token", tok.Value)
			}
		},
	})
	m.recognizer = NewRecognizer(RecognizerConfig{
		URL:           m.config.RecognizeURL,
		MaxAudioBytes: m.config.MaxAudioBytes,
		Tokens:        m.tokens,
		Client:        recognizeClient,
		Logger:        m.logger,
	})

	ctx.RegisterService(core.ServiceTranscriber, m.recognizer)
	ctx.RegisterService(core.ServiceTokenStatus, m.tokens)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	return m.config.validate()
}

// Transcriber returns the provisioned recognizer.
func (m *Module) Transcriber() *Recognizer {
	return m.recognizer
}

func (m *Module) newClient(target string, met *metrics.Metrics) (*httpx.Client, error) {
	client, err := httpx.New(httpx.Config{
		Timeout: m.config.Timeout,
		Retry:   m.config.Retry,
		TLS:     m.config.tls(),
		OnRetry: func(attempt int, err error) {
			met.RecordRetry(target)
			m.logger.Warn("upstream request failed, retrying",
				"target", target, "attempt", attempt, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("salute: %s client: %w", target, err)
	}
	return client, nil
}
