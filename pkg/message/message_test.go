package message

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"
)

func TestChat_Type(t *testing.T) {
	tests := []struct {
		chat    Chat
		isGroup bool
		isDM    bool
	}{
		{Chat{ID: "1", Type: ChatDM}, false, true},
		{Chat{ID: "2", Type: ChatGroup}, true, false},
		{Chat{ID: "3", Type: ChatBroadcast}, false, false},
	}
	for _, tt := range tests {
		if got := tt.chat.IsGroup(); got != tt.isGroup {
			t.Errorf("%s IsGroup() = %v, want %v", tt.chat.Type, got, tt.isGroup)
		}
		if got := tt.chat.IsDirectMessage(); got != tt.isDM {
			t.Errorf("%s IsDirectMessage() = %v, want %v", tt.chat.Type, got, tt.isDM)
		}
	}
}

func TestVoiceEvent_HasAudio(t *testing.T) {
	ev := VoiceEvent{Channel: "telegram"}
	if ev.HasAudio() {
		t.Error("event without opener should report no audio")
	}

	ev.Open = func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("ogg")), nil
	}
	if !ev.HasAudio() {
		t.Error("event with opener should report audio")
	}
}

func TestVoiceEvent_Key(t *testing.T) {
	ev := VoiceEvent{Channel: "telegram", Chat: Chat{ID: "-100"}, MessageID: "7"}
	if got := ev.Key(); got != "telegram:-100:7" {
		t.Errorf("Key() = %q", got)
	}
}

func TestVoiceEvent_JSONOmitsOpener(t *testing.T) {
	ev := VoiceEvent{
		Channel:   "telegram",
		Chat:      Chat{ID: "42", Type: ChatDM},
		Sender:    Sender{ID: "42", Username: "alice"},
		MessageID: "10",
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration:  3 * time.Second,
		Open: func(context.Context) (io.ReadCloser, error) {
			return nil, nil
		},
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "open") || strings.Contains(string(data), "Open") {
		t.Errorf("opener leaked into JSON: %s", data)
	}
}

func TestReplyTo(t *testing.T) {
	ev := VoiceEvent{Channel: "telegram", Chat: Chat{ID: "42"}, MessageID: "10"}
	r := ReplyTo(ev, "hello world")

	want := Reply{Channel: "telegram", ChatID: "42", ReplyToID: "10", Text: "hello world"}
	if r != want {
		t.Errorf("ReplyTo() = %+v, want %+v", r, want)
	}
}
