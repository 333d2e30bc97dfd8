package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/voxscribe/internal/core"
)

// stubModule is a basic module for testing.
type stubModule struct {
	id string
}

func (m *stubModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  core.ModuleID(m.id),
		New: func() core.Module { return &stubModule{id: m.id} },
	}
}

// registerPair registers a channel and an stt stub unique to the test and
// returns their IDs.
func registerPair(t *testing.T) (string, string) {
	t.Helper()
	suffix := strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))
	ch, rec := "channel."+suffix, "stt."+suffix
	core.RegisterModule(&stubModule{id: ch})
	core.RegisterModule(&stubModule{id: rec})
	return ch, rec
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	ch, rec := registerPair(t)
	return &Config{
		Version: "1",
		Modules: map[string]yaml.Node{ch: {}, rec: {}},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingVersion(t *testing.T) {
	cfg := validConfig(t)
	cfg.Version = ""
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for missing version")
	}
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("error should mention version: %v", err)
	}
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	cfg := validConfig(t)
	cfg.Version = "99"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("error should mention unsupported: %v", err)
	}
}

func TestValidate_EmptyModules(t *testing.T) {
	cfg := &Config{
		Version: "1",
		Modules: map[string]yaml.Node{},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for empty modules")
	}
	if !strings.Contains(err.Error(), "channel") || !strings.Contains(err.Error(), "stt") {
		t.Errorf("error should mention channel and stt: %v", err)
	}
}

func TestValidate_MultipleUnknown(t *testing.T) {
	cfg := validConfig(t)
	cfg.Modules["bad.one"] = yaml.Node{}
	cfg.Modules["bad.two"] = yaml.Node{}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for unknown modules")
	}
	if !strings.Contains(err.Error(), "bad.one") || !strings.Contains(err.Error(), "bad.two") {
		t.Errorf("error should mention both modules: %v", err)
	}
}

func TestValidate_TwoRecognizers(t *testing.T) {
	cfg := validConfig(t)
	extra := "stt." + strings.ToLower(t.Name()) + "_second"
	core.RegisterModule(&stubModule{id: extra})
	cfg.Modules[extra] = yaml.Node{}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "exactly one stt") {
		t.Fatalf("err = %v, want exactly one stt", err)
	}
}

func TestValidate_Sections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"json format", func(c *Config) { c.Log.Format = "JSON" }, ""},
		{"bad sample ratio", func(c *Config) { c.Tracing.SampleRatio = 2 }, "sample_ratio"},
		{"short voice timeout", func(c *Config) { c.Voice.Timeout = time.Millisecond }, "timeout"},
		{"same notices", func(c *Config) { c.Voice.EmptyNotice = "x"; c.Voice.ErrorNotice = "x" }, "differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}
