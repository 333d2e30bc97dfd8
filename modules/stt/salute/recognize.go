package salute

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/flemzord/voxscribe/internal/httpx"
	"github.com/flemzord/voxscribe/internal/stt"
)

var tracer = otel.Tracer("github.com/flemzord/voxscribe/modules/stt/salute")

var _ stt.Transcriber = (*Recognizer)(nil)

// RecognizerConfig configures a Recognizer.
type RecognizerConfig struct {
	URL           string
	MaxAudioBytes int64
	Tokens        TokenSource
	Client        *httpx.Client
	Logger        *slog.Logger
}

// Recognizer sends one audio payload per call to the synchronous
// recognition endpoint.
type Recognizer struct {
	url      string
	maxAudio int64
	tokens   TokenSource
	client   *httpx.Client
	logger   *slog.Logger
}

// NewRecognizer creates a Recognizer.
func NewRecognizer(cfg RecognizerConfig) *Recognizer {
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = defaultMaxAudioBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Client == nil {
		cfg.Client = httpx.NewWithHTTPClient(http.DefaultClient, httpx.RetryPolicy{}, nil)
	}
	return &Recognizer{
		url:      cfg.URL,
		maxAudio: cfg.MaxAudioBytes,
		tokens:   cfg.Tokens,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
}

type recognizeResponse struct {
	Result []string `json:"result"`
}

// Transcribe implements stt.Transcriber. The recognition endpoint is not
// contacted when no token can be obtained.
func (r *Recognizer) Transcribe(ctx context.Context, audio io.Reader) (text string, err error) {
	ctx, span := tracer.Start(ctx, "salute.recognize")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, stt.KindOf(err).String())
		}
		span.End()
	}()

	tok, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return "", &stt.TranscriptionError{Kind: stt.KindAuthFailed, Err: err}
	}

	body, err := readAudio(audio, r.maxAudio)
	if err != nil {
		return "", &stt.TranscriptionError{Kind: stt.KindUpstream, Err: err}
	}
	span.SetAttributes(attribute.Int("audio.bytes", len(body)))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+tok.Value)
	header.Set("Content-Type", stt.ContentTypeOggOpus)
	header.Set("Accept", "application/json")

	resp, err := r.client.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		URL:    r.url,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return "", &stt.TranscriptionError{Kind: stt.KindUpstream, Err: err}
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if !resp.OK() {
		return "", &stt.TranscriptionError{
			Kind:       stt.KindUpstream,
			StatusCode: resp.StatusCode,
			Err:        &upstreamStatusError{StatusCode: resp.StatusCode, Body: httpx.Excerpt(resp.Body, 512)},
		}
	}

	var payload recognizeResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", &stt.TranscriptionError{
			Kind:       stt.KindUpstream,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode recognition result: %w", err),
		}
	}
	if len(payload.Result) == 0 || strings.TrimSpace(payload.Result[0]) == "" {
		return "", &stt.TranscriptionError{Kind: stt.KindEmptyResult, StatusCode: resp.StatusCode}
	}

	r.logger.Debug("audio recognized", "bytes", len(body), "chars", len(payload.Result[0]))
	return payload.Result[0], nil
}

// readAudio buffers the whole stream so a retry can resend it.
func readAudio(audio io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(audio, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrAudioTooLarge, limit)
	}
	return data, nil
}
