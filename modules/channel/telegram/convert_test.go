package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/voxscribe/pkg/message"
)

func TestConvertVoice_VoiceNote(t *testing.T) {
	update := &Update{
		UpdateID: 1,
		Message: &Message{
			MessageID: 42,
			From:      &User{ID: 123, FirstName: "John", LastName: "Doe", Username: "johndoe"},
			Chat:      Chat{ID: 456, Type: "private"},
			Date:      1700000000,
			Voice:     &Voice{FileID: "v1", Duration: 3, MIMEType: "audio/ogg", FileSize: 2048},
		},
	}

	ev, err := convertVoice(update, "channel.telegram", audioSource{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ev.MessageID != "42" || ev.Channel != "channel.telegram" {
		t.Errorf("ids = %q/%q", ev.MessageID, ev.Channel)
	}
	if ev.Sender.ID != "123" || ev.Sender.Username != "johndoe" || ev.Sender.DisplayName != "John Doe" {
		t.Errorf("Sender = %+v", ev.Sender)
	}
	if ev.Chat.ID != "456" || ev.Chat.Type != message.ChatDM {
		t.Errorf("Chat = %+v", ev.Chat)
	}
	if !ev.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Timestamp = %v", ev.Timestamp)
	}
	if ev.Duration != 3*time.Second || ev.MIMEType != "audio/ogg" || ev.FileSize != 2048 {
		t.Errorf("audio metadata = %v %q %d", ev.Duration, ev.MIMEType, ev.FileSize)
	}
	if !ev.HasAudio() {
		t.Error("voice note should carry an opener")
	}
}

func TestConvertVoice_AudioFileHasNoOpener(t *testing.T) {
	update := &Update{
		UpdateID: 2,
		Message: &Message{
			MessageID: 5,
			Chat:      Chat{ID: -100, Type: "supergroup", Title: "Team"},
			Audio:     &Audio{FileID: "a1", Duration: 180, MIMEType: "audio/mpeg"},
		},
	}

	ev, err := convertVoice(update, "channel.telegram", audioSource{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.HasAudio() {
		t.Error("music file must not be transcribed")
	}
	if ev.Chat.Type != message.ChatGroup || ev.Chat.Title != "Team" {
		t.Errorf("Chat = %+v", ev.Chat)
	}
}

func TestConvertVoice_Skips(t *testing.T) {
	tests := []struct {
		name   string
		update *Update
		notVo  bool
	}{
		{"empty update", &Update{UpdateID: 1}, false},
		{"text message", &Update{UpdateID: 2, Message: &Message{Text: "hi"}}, true},
		{"edited voice", &Update{UpdateID: 3, EditedMessage: &Message{Voice: &Voice{FileID: "x"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convertVoice(tt.update, "channel.telegram", audioSource{})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, errNotVoice); got != tt.notVo {
				t.Errorf("errors.Is(err, errNotVoice) = %v, want %v", got, tt.notVo)
			}
		})
	}
}

func TestConvertVoice_ChannelPost(t *testing.T) {
	update := &Update{
		UpdateID:    4,
		ChannelPost: &Message{MessageID: 9, Chat: Chat{ID: -200, Type: "channel"}, Voice: &Voice{FileID: "c"}},
	}
	ev, err := convertVoice(update, "channel.telegram", audioSource{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Chat.Type != message.ChatBroadcast || ev.Sender.ID != "" {
		t.Errorf("ev = %+v", ev)
	}
}

func TestMapChatType(t *testing.T) {
	tests := map[string]message.ChatType{
		"private":    message.ChatDM,
		"group":      message.ChatGroup,
		"supergroup": message.ChatGroup,
		"channel":    message.ChatBroadcast,
		"unknown":    message.ChatGroup,
	}
	for in, want := range tests {
		if got := mapChatType(in); got != want {
			t.Errorf("mapChatType(%q) = %q, want %q", in, got, want)
		}
	}
}

func fileServer(t *testing.T, fileSize int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getFile":
			writeJSON(t, w, APIResponse[File]{OK: true, Result: File{FileID: "v1", FileSize: fileSize, FilePath: "voice/v1.oga"}})
		case "/file/botTOKEN/voice/v1.oga":
			_, _ = w.Write([]byte("OggS-payload"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAudioSourceOpener(t *testing.T) {
	srv := fileServer(t, 12)
	src := audioSource{client: NewClient("TOKEN", srv.URL), maxFileSize: 1024}

	rc, err := src.opener("v1")(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "OggS-payload" {
		t.Errorf("audio = %q", data)
	}
}

func TestAudioSourceOpenerRejectsLargeFiles(t *testing.T) {
	srv := fileServer(t, 4096)
	src := audioSource{client: NewClient("TOKEN", srv.URL), maxFileSize: 1024}

	_, err := src.opener("v1")(context.Background())
	if err == nil || !strings.Contains(err.Error(), "limit") {
		t.Errorf("err = %v, want size limit error", err)
	}
}
