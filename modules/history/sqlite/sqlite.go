// Package sqlite records every handled voice event in a SQLite database
// and serves them back to the admin API. It uses modernc.org/sqlite (pure
// Go, no CGO) and prunes old rows on a cron schedule.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/internal/cron"
	"github.com/flemzord/voxscribe/internal/security"
)

// ModuleID is the configuration key of this module.
const ModuleID core.ModuleID = "history.sqlite"

func init() {
	core.RegisterModule(&Module{})
}

var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
	_ cron.Pruner       = (*Store)(nil)
)

// Module owns the database and its retention job.
type Module struct {
	config    Config
	logger    *slog.Logger
	store     *Store
	scheduler *cron.Scheduler
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  ModuleID,
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	db, err := openDB(context.Background(), m.config)
	if err != nil {
		return err
	}

	redactor, _ := core.ServiceAs[*security.Redactor](ctx, core.ServiceRedactor)
	m.store = &Store{db: db, storeText: m.config.StoreText, redactor: redactor}

	m.scheduler = cron.NewScheduler(m.logger)
	if m.config.Retention > 0 {
		if err := m.scheduler.RegisterJob(&cron.HistoryPruneJob{
			Store:        m.store,
			Retention:    m.config.Retention,
			Logger:       m.logger,
			ScheduleExpr: m.config.PruneSchedule,
		}); err != nil {
			_ = db.Close()
			return err
		}
	}

	ctx.RegisterService(core.ServiceRecorder, m.store)
	ctx.RegisterService(core.ServiceHistory, m.store)

	m.logger.Info("sqlite history provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
		"store_text", m.config.StoreText,
		"retention", m.config.Retention,
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if err := m.store.db.PingContext(context.Background()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Start implements core.Starter. Records past retention are pruned once
// right away, then on the configured schedule.
func (m *Module) Start() error {
	if m.scheduler.Len() > 0 {
		if err := m.scheduler.Trigger(context.Background(), "history_prune"); err != nil {
			m.logger.Warn("initial history prune failed", "error", err)
		}
	}
	return m.scheduler.Start()
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	m.logger.Info("sqlite history stopping")
	if m.scheduler != nil {
		_ = m.scheduler.Stop(ctx)
	}
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

// Store returns the record store.
func (m *Module) Store() *Store {
	return m.store
}
