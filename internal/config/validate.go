package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flemzord/voxscribe/internal/core"
)

// Validate checks the structural validity of a Config: the version, the
// log settings, tracing and voice sections, and that every module ID is
// registered. A runnable configuration needs at least one channel and one
// stt module.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", cfg.Log.Format))
	}

	if err := cfg.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	voiceCfg := cfg.Voice
	voiceCfg.Defaults()
	if err := voiceCfg.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	var channels, recognizers int
	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
			continue
		}
		switch core.Namespace(id) {
		case "channel":
			channels++
		case "stt":
			recognizers++
		}
	}
	if channels == 0 {
		errs = append(errs, errors.New("config: at least one channel module must be configured"))
	}
	if recognizers != 1 {
		errs = append(errs, fmt.Errorf("config: exactly one stt module must be configured, got %d", recognizers))
	}

	return errors.Join(errs...)
}

// ParseLevel maps a log.level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unknown log.level %q", s)
}
