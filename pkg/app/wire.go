package app

import (
	"fmt"
	"log/slog"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/metrics"
	"github.com/flemzord/voxscribe/internal/stt"
	"github.com/flemzord/voxscribe/internal/voice"

	// Compiled-in modules.
	_ "github.com/flemzord/voxscribe/internal/gateway"
	_ "github.com/flemzord/voxscribe/modules/channel/telegram"
	_ "github.com/flemzord/voxscribe/modules/history/sqlite"
	_ "github.com/flemzord/voxscribe/modules/stt/salute"
)

// wirePipeline builds the voice pipeline from the provisioned services,
// hands its inbox to every loaded channel and inserts it into the
// lifecycle ahead of the channels, so that on shutdown channels stop
// accepting events before the pipeline drains.
// Must be called after LoadModules and before Start.
func wirePipeline(app *core.App, cfg voice.Config, logger *slog.Logger) error {
	appCtx := app.Context()

	transcriber, ok := core.ServiceAs[stt.Transcriber](appCtx, core.ServiceTranscriber)
	if !ok {
		return fmt.Errorf("wiring: no transcriber registered; configure an stt module")
	}
	recorder, _ := core.ServiceAs[voice.Recorder](appCtx, core.ServiceRecorder)
	met, _ := core.ServiceAs[*metrics.Metrics](appCtx, core.ServiceMetrics)

	dispatcher := channel.NewDispatcher()
	var channels []channel.Channel
	for _, id := range app.ModuleIDs() {
		mod, _ := app.Module(id)
		ch, ok := mod.(channel.Channel)
		if !ok {
			continue
		}
		// Channels stamp their module ID on every event as ev.Channel.
		if err := dispatcher.Register(string(id), ch); err != nil {
			return fmt.Errorf("registering channel %s: %w", id, err)
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		return fmt.Errorf("wiring: no channel module loaded")
	}

	pipeline, err := voice.NewPipeline(cfg, voice.Deps{
		Transcriber: transcriber,
		Replier:     dispatcher,
		Recorder:    recorder,
		Metrics:     met,
		Logger:      logger.With("module", string(voice.PipelineID)),
	})
	if err != nil {
		return err
	}

	inbox := pipeline.Inbox()
	for _, ch := range channels {
		ch.SetVoiceInbox(inbox)
	}

	app.InsertBefore(pipeline, func(id core.ModuleID) bool {
		return core.Namespace(string(id)) == "channel"
	})
	logger.Info("voice pipeline wired",
		"channels", dispatcher.Channels(),
		"history", recorder != nil,
	)
	return nil
}
