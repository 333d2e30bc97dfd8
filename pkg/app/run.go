// Package app is the shared entry point of the voxscribe binary: it loads
// the configuration, builds the ambient services, wires the modules and
// runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/flemzord/voxscribe/internal/config"
	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/metrics"
	"github.com/flemzord/voxscribe/internal/security"
	"github.com/flemzord/voxscribe/internal/telemetry"
)

const tracingShutdownTimeout = 5 * time.Second

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file. When
	// empty the standard locations are searched and the built-in default
	// is used if none exists.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel overrides log.level from the configuration when non-empty.
	LogLevel string

	// EnvFile is loaded into the environment before the configuration is
	// read. Defaults to ".env"; a missing file is not an error.
	EnvFile string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
}

// Run loads configuration, starts all modules, and blocks until ctx is
// cancelled or SIGINT/SIGTERM is received.
func Run(ctx context.Context, params RunParams) error {
	if err := loadEnv(params.EnvFile); err != nil {
		return err
	}

	cfg, source, err := LoadConfig(params.ConfigPath)
	if err != nil {
		return err
	}
	if params.LogLevel != "" {
		cfg.Log.Level = params.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	redactor := security.NewRedactor()
	logger, err := NewLogger(cfg.Log, params.LogOutput, redactor)
	if err != nil {
		return err
	}
	logger.Info("voxscribe starting",
		"version", params.Version,
		"commit", params.Commit,
		"config", source,
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, params.Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	dataDir := params.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	appCtx := core.NewAppContext(logger, dataDir).WithModuleConfigs(cfg.Modules)
	appCtx.RegisterService(core.ServiceRedactor, redactor)
	appCtx.RegisterService(core.ServiceMetrics, metrics.New())

	application := core.NewApp(appCtx)
	if err := application.LoadModules(config.Resolve(cfg)); err != nil {
		return err
	}
	if err := wirePipeline(application, cfg.Voice, logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.Run(ctx)
}

// LoadConfig reads the file at path, or searches the standard locations
// when path is empty. Without any file the built-in default is returned.
// The second result names where the configuration came from.
func LoadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	found, err := config.Find()
	switch {
	case err == nil:
		cfg, err := config.Load(found)
		return cfg, found, err
	case errors.Is(err, config.ErrNotFound):
		cfg, err := config.Default()
		return cfg, "built-in default", err
	default:
		return nil, "", err
	}
}

func loadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// NewLogger builds the process logger from cfg. Every record passes
// through the redactor before reaching out.
func NewLogger(cfg config.LogConfig, out io.Writer, redactor *security.Redactor) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Format == "json" || cfg.Format == "JSON" {
		inner = slog.NewJSONHandler(out, opts)
	} else {
		inner = slog.NewTextHandler(out, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/voxscribe if set, otherwise ~/.local/share/voxscribe.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "voxscribe")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "voxscribe")
}
