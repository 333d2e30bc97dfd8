package voice

import (
	"context"
	"log/slog"

	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/cron"
	"github.com/flemzord/voxscribe/pkg/message"
)

// PipelineID is the module ID under which the pipeline joins the app
// lifecycle.
const PipelineID core.ModuleID = "voice.pipeline"

var (
	_ core.Starter = (*Pipeline)(nil)
	_ core.Stopper = (*Pipeline)(nil)
)

// Pipeline ties a Dispatcher into the module lifecycle so that shutdown
// drains in-flight events.
type Pipeline struct {
	dispatcher *Dispatcher
	scheduler  *cron.Scheduler
	logger     *slog.Logger
}

// NewPipeline builds the handler and dispatcher from cfg.
func NewPipeline(cfg Config, deps Deps) (*Pipeline, error) {
	h, err := NewHandler(cfg, deps)
	if err != nil {
		return nil, err
	}
	logger := h.logger
	scheduler := cron.NewScheduler(logger)
	if h.limiter != nil {
		if err := scheduler.RegisterJob(&cron.RateLimitSweepJob{Limiter: h.limiter, Logger: logger}); err != nil {
			return nil, err
		}
	}
	return &Pipeline{
		dispatcher: NewDispatcher(h, h.cfg.Concurrency, h.cfg.Timeout, deps.Metrics, logger),
		scheduler:  scheduler,
		logger:     logger,
	}, nil
}

// ModuleInfo implements core.Module.
func (p *Pipeline) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  PipelineID,
		New: func() core.Module { return &Pipeline{} },
	}
}

// Inbox returns the function channels push voice events into.
func (p *Pipeline) Inbox() func(message.VoiceEvent) {
	return func(ev message.VoiceEvent) {
		if err := p.dispatcher.Submit(ev); err != nil {
			p.logger.Warn("voice event dropped", "event", ev.Key(), "error", err)
		}
	}
}

// Start implements core.Starter. The dispatcher is ready on construction;
// Start launches the rate limit sweep when throttling is enabled.
func (p *Pipeline) Start() error {
	if p.scheduler.Len() == 0 {
		return nil
	}
	return p.scheduler.Start()
}

// Stop implements core.Stopper.
func (p *Pipeline) Stop(ctx context.Context) error {
	_ = p.scheduler.Stop(ctx)
	return p.dispatcher.Close(ctx)
}
