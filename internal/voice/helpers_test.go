package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/flemzord/voxscribe/pkg/message"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTranscriber returns text/err and records what it read.
type fakeTranscriber struct {
	text  string
	err   error
	panic any
	calls atomic.Int32

	mu   sync.Mutex
	read []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader) (string, error) {
	f.calls.Add(1)
	if f.panic != nil {
		panic(f.panic)
	}
	b, _ := io.ReadAll(audio)
	f.mu.Lock()
	f.read = append(f.read, string(b))
	f.mu.Unlock()
	return f.text, f.err
}

// memRecorder keeps every record in memory.
type memRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (m *memRecorder) Record(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memRecorder) all() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// trackedAudio reports whether the stream was closed.
type trackedAudio struct {
	io.Reader
	closed atomic.Bool
}

func (a *trackedAudio) Close() error {
	a.closed.Store(true)
	return nil
}

func voiceEvent(audio string) (message.VoiceEvent, *trackedAudio) {
	stream := &trackedAudio{Reader: strings.NewReader(audio)}
	ev := message.VoiceEvent{
		Channel:   "telegram",
		Chat:      message.Chat{ID: "100", Type: message.ChatDM},
		Sender:    message.Sender{ID: "42", Username: "alice"},
		MessageID: "7",
		Open: func(context.Context) (io.ReadCloser, error) {
			return stream, nil
		},
	}
	return ev, stream
}

var errBoom = errors.New("boom")
