// Package gateway provides the HTTP surface: liveness, health, Prometheus
// metrics, webhook intake for channels and an authenticated admin API over
// the transcript history. It binds to loopback by default and follows the
// module system pattern.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/cron"
	"github.com/flemzord/voxscribe/internal/metrics"
	"github.com/flemzord/voxscribe/internal/security"
	"github.com/flemzord/voxscribe/internal/stt"
	"github.com/flemzord/voxscribe/internal/voice"
	"gopkg.in/yaml.v3"
)

// ModuleID is the gateway's registered identifier.
const ModuleID core.ModuleID = "gateway.http"

func init() {
	core.RegisterModule(&Gateway{})
}

// Gateway is the HTTP gateway module. It is a leaf module: nothing imports
// it except channels that register webhook handlers.
type Gateway struct {
	config     Config
	appCtx     *core.AppContext
	logger     *slog.Logger
	server     *http.Server
	dispatcher *WebhookDispatcher
	authLimit  *security.RateLimiter
	scheduler  *cron.Scheduler
	startedAt  time.Time

	// Resolved lazily at Start() via the service registry.
	metrics     *metrics.Metrics
	tokens      stt.TokenReporter
	transcriber stt.Transcriber
	history     voice.History
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  ModuleID,
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return fmt.Errorf("gateway: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.appCtx = ctx
	g.logger = ctx.Logger
	g.dispatcher = NewWebhookDispatcher(g.logger)
	g.dispatcher.maxBytes = g.config.MaxWebhookBytes
	g.authLimit = security.NewRateLimiter(security.RateLimitConfig{PerMinute: g.config.Auth.AttemptsPerMinute})
	g.scheduler = cron.NewScheduler(g.logger)
	if g.authLimit != nil {
		if err := g.scheduler.RegisterJob(&cron.RateLimitSweepJob{Limiter: g.authLimit, Logger: g.logger}); err != nil {
			return fmt.Errorf("gateway: %w", err)
		}
	}

	for source, cfg := range g.config.Webhooks {
		if cfg.Secret != "" {
			g.dispatcher.SetSecret(source, cfg.Secret)
			g.logger.Info("webhook source configured", "source", source)
		}
	}

	if r, ok := core.ServiceAs[*security.Redactor](ctx, core.ServiceRedactor); ok {
		r.AddLiteral(g.config.Auth.BearerToken)
		r.AddLiteral(g.config.Auth.BasicPass)
	}

	ctx.RegisterService(core.ServiceWebhooks, g.dispatcher)
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	if (g.config.Auth.BasicUser == "") != (g.config.Auth.BasicPass == "") {
		return errors.New("gateway: auth.basic_user and auth.basic_pass must be set together")
	}
	return nil
}

// Start implements core.Starter. It resolves dependencies from the service
// registry (lazy binding) and starts the HTTP server.
func (g *Gateway) Start() error {
	// Optional services: endpoints degrade gracefully when missing.
	g.metrics, _ = core.ServiceAs[*metrics.Metrics](g.appCtx, core.ServiceMetrics)
	g.tokens, _ = core.ServiceAs[stt.TokenReporter](g.appCtx, core.ServiceTokenStatus)
	g.transcriber, _ = core.ServiceAs[stt.Transcriber](g.appCtx, core.ServiceTranscriber)
	g.history, _ = core.ServiceAs[voice.History](g.appCtx, core.ServiceHistory)

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:              g.config.Bind,
		Handler:           g.buildRouter(),
		ReadTimeout:       g.config.ReadTimeout,
		ReadHeaderTimeout: g.config.ReadTimeout,
		WriteTimeout:      g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	if g.scheduler.Len() > 0 {
		if err := g.scheduler.Start(); err != nil {
			_ = ln.Close()
			return fmt.Errorf("gateway: start scheduler: %w", err)
		}
	}

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.scheduler != nil {
		_ = g.scheduler.Stop(ctx)
	}
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

// Dispatcher returns the webhook dispatcher. Valid after Provision.
func (g *Gateway) Dispatcher() *WebhookDispatcher {
	return g.dispatcher
}
