package sqlite

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultBusyTimeout   = 5000
	defaultDBFile        = "history.db"
	defaultRetention     = 30 * 24 * time.Hour
	defaultPruneSchedule = "17 * * * *"
)

// Config holds the SQLite history module configuration.
type Config struct {
	// Path is the database file path. Defaults to {DataDir}/history.db.
	Path string `yaml:"path"`

	// WAL enables WAL journal mode for concurrent reads. Defaults to true.
	WAL *bool `yaml:"wal"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout"`

	// StoreText keeps transcript text in the database. Off by default:
	// only the length is recorded.
	StoreText bool `yaml:"store_text"`

	// Retention is how long records are kept. Defaults to 720h. A negative
	// value keeps records forever.
	Retention time.Duration `yaml:"retention"`

	// PruneSchedule is the cron expression of the retention job.
	PruneSchedule string `yaml:"prune_schedule"`
}

func (c *Config) defaults() {
	if c.WAL == nil {
		t := true
		c.WAL = &t
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.Retention == 0 {
		c.Retention = defaultRetention
	}
	if c.PruneSchedule == "" {
		c.PruneSchedule = defaultPruneSchedule
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

func (c *Config) validate() error {
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	if c.Retention > 0 && c.Retention < time.Hour {
		return fmt.Errorf("sqlite: retention must be at least 1h, got %s", c.Retention)
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.PruneSchedule); err != nil {
		return fmt.Errorf("sqlite: invalid prune_schedule %q: %w", c.PruneSchedule, err)
	}
	return nil
}
