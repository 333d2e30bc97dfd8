// Package voice runs the voice message pipeline: take a VoiceEvent,
// transcribe its audio and answer the sender with exactly one reply.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/internal/metrics"
	"github.com/flemzord/voxscribe/internal/security"
	"github.com/flemzord/voxscribe/internal/stt"
	"github.com/flemzord/voxscribe/pkg/message"
)

var tracer = otel.Tracer("github.com/flemzord/voxscribe/internal/voice")

const recordTimeout = 5 * time.Second

// Deps are the collaborators of a Handler. Transcriber and Replier are
// required.
type Deps struct {
	Transcriber stt.Transcriber
	Replier     channel.Replier
	Recorder    Recorder
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Handler processes a single voice event.
type Handler struct {
	cfg         Config
	transcriber stt.Transcriber
	replier     channel.Replier
	recorder    Recorder
	metrics     *metrics.Metrics
	limiter     *security.RateLimiter
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a Handler. cfg defaults are applied.
func NewHandler(cfg Config, deps Deps) (*Handler, error) {
	if deps.Transcriber == nil {
		return nil, errors.New("voice: transcriber is required")
	}
	if deps.Replier == nil {
		return nil, errors.New("voice: replier is required")
	}
	cfg.Defaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:         cfg,
		transcriber: deps.Transcriber,
		replier:     deps.Replier,
		recorder:    deps.Recorder,
		metrics:     deps.Metrics,
		limiter:     security.NewRateLimiter(cfg.RateLimit),
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Handle runs the pipeline for ev and returns its outcome. It never panics
// and sends at most one reply; failures are logged and recorded.
func (h *Handler) Handle(ctx context.Context, ev message.VoiceEvent) Outcome {
	start := h.now()
	ctx, span := tracer.Start(ctx, "voice.handle", trace.WithAttributes(
		attribute.String("voice.channel", ev.Channel),
		attribute.String("voice.chat_id", ev.Chat.ID),
		attribute.String("voice.message_id", ev.MessageID),
	))
	defer span.End()

	logger := h.logger.With("event", ev.Key())
	rec := Record{
		At:            start,
		Channel:       ev.Channel,
		ChatID:        ev.Chat.ID,
		MessageID:     ev.MessageID,
		SenderID:      ev.Sender.ID,
		AudioDuration: ev.Duration,
	}

	if !ev.HasAudio() {
		logger.Debug("event without audio ignored")
		rec.Outcome = OutcomeIgnored
		h.finish(ctx, span, rec)
		return rec.Outcome
	}

	if err := h.limiter.Allow(ev.Channel + ":" + ev.Sender.ID); err != nil {
		logger.Warn("voice message throttled", "sender_id", ev.Sender.ID)
		rec.Outcome = OutcomeThrottled
		h.finish(ctx, span, rec)
		return rec.Outcome
	}

	text, err := h.transcribe(ctx, ev)
	text = strings.TrimSpace(text)

	var replyText string
	switch {
	case err == nil && text != "":
		rec.Outcome = OutcomeRepliedText
		rec.Text = text
		rec.TextLength = len([]rune(text))
		replyText = text
	case err == nil, errors.Is(err, stt.ErrEmptyResult):
		rec.Outcome = OutcomeRepliedEmpty
		rec.ErrorKind = stt.KindEmptyResult.String()
		replyText = h.cfg.EmptyNotice
	default:
		rec.Outcome = OutcomeRepliedError
		rec.ErrorKind = errorKind(err)
		rec.Error = err.Error()
		replyText = h.cfg.ErrorNotice
		span.RecordError(err)
		logger.Error("transcription failed", "kind", rec.ErrorKind, "error", err)
	}

	if err := h.replier.Reply(ctx, message.ReplyTo(ev, replyText)); err != nil {
		rec.ReplyError = err.Error()
		logger.Error("reply failed", "outcome", string(rec.Outcome), "error", err)
	} else {
		logger.Info("voice message answered", "outcome", string(rec.Outcome), "chars", rec.TextLength)
	}

	rec.Elapsed = h.now().Sub(start)
	h.metrics.ObserveTranscription(rec.Elapsed)
	h.finish(ctx, span, rec)
	return rec.Outcome
}

// transcribe opens the audio and runs the transcriber, turning a panic in
// either step into an error.
func (h *Handler) transcribe(ctx context.Context, ev message.VoiceEvent) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in voice pipeline", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("voice: panic: %v", r)
		}
	}()

	audio, err := ev.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("voice: open audio: %w", err)
	}
	defer func() {
		if cerr := audio.Close(); cerr != nil {
			h.logger.Debug("closing audio stream", "error", cerr)
		}
	}()

	return h.transcriber.Transcribe(ctx, audio)
}

func (h *Handler) finish(ctx context.Context, span trace.Span, rec Record) {
	span.SetAttributes(attribute.String("voice.outcome", string(rec.Outcome)))
	if rec.Outcome == OutcomeRepliedError || rec.ReplyError != "" {
		span.SetStatus(codes.Error, string(rec.Outcome))
	}
	h.metrics.RecordVoiceEvent(string(rec.Outcome))

	if h.recorder == nil {
		return
	}
	// The event deadline may already be spent; the record still goes out.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := h.recorder.Record(rctx, rec); err != nil {
		h.logger.Warn("recording voice event", "error", err)
	}
}

func errorKind(err error) string {
	if k := stt.KindOf(err); k != 0 {
		return k.String()
	}
	return "internal"
}
