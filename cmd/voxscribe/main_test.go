package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/voxscribe/internal/config"
	"github.com/flemzord/voxscribe/internal/voice"
	"github.com/flemzord/voxscribe/modules/history/sqlite"
	"github.com/flemzord/voxscribe/pkg/app"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionListsModules(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, want := range []string{"voxscribe dev", "channel.telegram", "stt.salute", "gateway.http", "history.sqlite"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxscribe.yaml")
	raw := `version: "1"
modules:
  channel.telegram:
    token: "123:abc"
  stt.salute:
    auth_data: key
    scope: SALUTE_SPEECH_PERS
  history.sqlite: {}
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "check", path)
	if err != nil {
		t.Fatalf("config check: %v", err)
	}
	if !strings.Contains(out, "Configuration OK") || !strings.Contains(out, "(3 modules)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	// history loads first.
	if strings.Index(out, "history.sqlite") > strings.Index(out, "channel.telegram") {
		t.Errorf("modules not listed in load order:\n%s", out)
	}
}

func TestConfigCheckRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxscribe.yaml")
	if err := os.WriteFile(path, []byte("version: \"2\"\nmodules: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "config", "check", path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRenderConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "1:env")
	t.Setenv("SALUTE_SPEECH_AUTHDATA", "env-key")
	t.Setenv("SALUTE_SPEECH_SCOPE", "")
	_ = os.Unsetenv("SALUTE_SPEECH_SCOPE")

	tests := []struct {
		name    string
		answers setupAnswers
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name:    "env references",
			answers: setupAnswers{Mode: "polling", Scope: "SALUTE_SPEECH_CORP", Port: 9000, History: true},
			check: func(t *testing.T, cfg *config.Config) {
				var tg struct{ Token string }
				node := cfg.Modules["channel.telegram"]
				_ = node.Decode(&tg)
				if tg.Token != "1:env" {
					t.Errorf("token = %q, want value from env", tg.Token)
				}
				var sal struct{ Scope string }
				node = cfg.Modules["stt.salute"]
				_ = node.Decode(&sal)
				if sal.Scope != "SALUTE_SPEECH_CORP" {
					t.Errorf("scope = %q", sal.Scope)
				}
				if _, ok := cfg.Modules["history.sqlite"]; !ok {
					t.Error("history module missing")
				}
			},
		},
		{
			name: "inline webhook",
			answers: setupAnswers{
				InlineSecrets: true, BotToken: "42:inline", AuthData: "inline-key",
				Mode: "webhook", WebhookURL: "https://bot.example.com/webhooks/telegram",
				Scope: "SALUTE_SPEECH_PERS", Port: 8080,
			},
			check: func(t *testing.T, cfg *config.Config) {
				var tg struct {
					Token      string `yaml:"token"`
					Mode       string `yaml:"mode"`
					WebhookURL string `yaml:"webhook_url"`
				}
				node := cfg.Modules["channel.telegram"]
				_ = node.Decode(&tg)
				if tg.Token != "42:inline" || tg.Mode != "webhook" || tg.WebhookURL == "" {
					t.Errorf("telegram = %+v", tg)
				}
				if _, ok := cfg.Modules["history.sqlite"]; ok {
					t.Error("history module should be absent")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := renderConfig(tt.answers)
			if err != nil {
				t.Fatalf("renderConfig: %v", err)
			}
			cfg, err := config.Parse(raw, "rendered")
			if err != nil {
				t.Fatalf("rendered config does not parse: %v\n%s", err, raw)
			}
			if err := config.Validate(cfg); err != nil {
				t.Fatalf("rendered config invalid: %v\n%s", err, raw)
			}
			tt.check(t, cfg)
		})
	}
}

func TestWriteConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "voxscribe.yaml")
	if err := writeConfigFile(path, []byte("version: \"1\"\n")); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestServiceConfigArguments(t *testing.T) {
	cfg, err := serviceConfig(app.RunParams{ConfigPath: "voxscribe.yaml", LogLevel: "debug"})
	if err != nil {
		t.Fatalf("serviceConfig: %v", err)
	}
	args := strings.Join(cfg.Arguments, " ")
	if !strings.HasPrefix(args, "service run --config /") {
		t.Errorf("arguments = %q, want absolute config path", args)
	}
	if !strings.HasSuffix(args, "--log-level debug") {
		t.Errorf("arguments = %q", args)
	}
	if cfg.Name != serviceName {
		t.Errorf("name = %q", cfg.Name)
	}
}

func TestHistoryCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	store, err := sqlite.OpenStore(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	for i, outcome := range []voice.Outcome{voice.OutcomeRepliedText, voice.OutcomeRepliedError} {
		rec := voice.Record{
			At:            time.Now().Add(time.Duration(i) * time.Second),
			Channel:       "channel.telegram",
			ChatID:        "99",
			Outcome:       outcome,
			AudioDuration: 3 * time.Second,
			TextLength:    12,
		}
		if outcome == voice.OutcomeRepliedError {
			rec.ErrorKind = "upstream"
		}
		if err := store.Record(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	_ = store.Close()

	out, err := execute(t, "history", "--db", dbPath, "--outcome", "replied_error")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "upstream") || strings.Contains(out, "replied_text") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "history", "--db", dbPath, "--chat", "nobody")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "no records") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
