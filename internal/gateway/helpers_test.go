package gateway

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/flemzord/voxscribe/internal/stt"
	"github.com/flemzord/voxscribe/internal/voice"
	"gopkg.in/yaml.v3"
)

// fakeHistory serves a fixed set of records and remembers the last query.
type fakeHistory struct {
	records []voice.Record
	err     error
	last    voice.Query
}

func (h *fakeHistory) Recent(_ context.Context, q voice.Query) ([]voice.Record, error) {
	h.last = q
	if h.err != nil {
		return nil, h.err
	}
	out := slices.Clone(h.records)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type fakeTokens struct{ state stt.TokenState }

func (f fakeTokens) State() stt.TokenState { return f.state }

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(context.Context, io.Reader) (string, error) {
	return "hello world", nil
}

func sampleRecords() []voice.Record {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []voice.Record{
		{At: at, Channel: "channel.telegram", ChatID: "42", MessageID: "3", Outcome: voice.OutcomeRepliedText, TextLength: 11},
		{At: at.Add(-time.Minute), Channel: "channel.telegram", ChatID: "42", MessageID: "2", Outcome: voice.OutcomeRepliedEmpty},
		{At: at.Add(-2 * time.Minute), Channel: "channel.telegram", ChatID: "7", MessageID: "1", Outcome: voice.OutcomeRepliedText, TextLength: 5},
	}
}

func mustYAMLNode(t *testing.T, raw string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}
	}
	return doc.Content[0]
}
