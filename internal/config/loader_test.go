package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoad(t *testing.T) {
	t.Setenv("VOX_TEST_TOKEN", "123:abc")
	path := filepath.Join(t.TempDir(), FileName)
	raw := `version: "1"
log:
  level: debug
voice:
  timeout: 90s
  rate_limit:
    per_minute: 4
modules:
  channel.telegram:
    token: ${VOX_TEST_TOKEN}
  stt.salute:
    scope: ${VOX_TEST_SCOPE:-SALUTE_SPEECH_PERS}
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != "1" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected top-level fields: %+v", cfg)
	}
	if cfg.Voice.Timeout != 90*time.Second || cfg.Voice.RateLimit.PerMinute != 4 {
		t.Errorf("voice = %+v", cfg.Voice)
	}

	var tg struct {
		Token string `yaml:"token"`
	}
	node := cfg.Modules["channel.telegram"]
	if err := node.Decode(&tg); err != nil {
		t.Fatal(err)
	}
	if tg.Token != "123:abc" {
		t.Errorf("token = %q, want expanded value", tg.Token)
	}

	var salute struct {
		Scope string `yaml:"scope"`
	}
	node = cfg.Modules["stt.salute"]
	if err := node.Decode(&salute); err != nil {
		t.Fatal(err)
	}
	if salute.Scope != "SALUTE_SPEECH_PERS" {
		t.Errorf("scope = %q, want default", salute.Scope)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_UnresolvedVariables(t *testing.T) {
	_, err := Parse([]byte("a: ${VOX_UNSET_ONE}\nb: ${VOX_UNSET_TWO}\n"), "inline")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"VOX_UNSET_ONE", "VOX_UNSET_TWO", "inline"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("version: [\n"), "inline"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("BOT_TOKEN", "42:token")
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "127.0.0.1")

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, id := range []string{"channel.telegram", "stt.salute", "gateway.http"} {
		if _, ok := cfg.Modules[id]; !ok {
			t.Errorf("default config lacks %s", id)
		}
	}

	var gw struct {
		Bind string `yaml:"bind"`
	}
	node := cfg.Modules["gateway.http"]
	if err := node.Decode(&gw); err != nil {
		t.Fatal(err)
	}
	if gw.Bind != "127.0.0.1:9090" {
		t.Errorf("bind = %q, want 127.0.0.1:9090", gw.Bind)
	}
}

func TestFind(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	if _, err := Find(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := os.WriteFile(FileName, []byte("version: \"1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := Find()
	if err != nil || got != FileName {
		t.Fatalf("Find() = %q, %v; want ./%s", got, err, FileName)
	}

	dir := filepath.Join(xdg, "voxscribe")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, FileName)
	if err := os.WriteFile(want, []byte("version: \"1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, _ := Find(); got != want {
		t.Errorf("Find() = %q, want XDG path %q", got, want)
	}
}

func TestResolveOrder(t *testing.T) {
	cfg := &Config{Modules: map[string]yaml.Node{
		"channel.telegram": {},
		"gateway.http":     {},
		"stt.salute":       {},
		"history.sqlite":   {},
		"extra.thing":      {},
	}}
	got := Resolve(cfg)
	want := []string{"history.sqlite", "stt.salute", "gateway.http", "channel.telegram", "extra.thing"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}
