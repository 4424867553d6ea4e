package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store/drivers/file"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store/drivers/memory"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/dentaldesk/internal/xdg"
)

// openStorage opens the configured token store, sealed when a storage key is
// set.
func (app *Application) openStorage(ctx context.Context) error {
	var (
		kv  store.KV
		err error
	)

	switch app.cfg.StorageDriver {
	case "memory":
		kv = memory.NewStore()

	case "file":
		path := app.cfg.StoragePath
		if path == "" {
			path = filepath.Join(xdg.StateDir(), "session.json")
		}
		kv, err = file.NewStore(path)
		if err != nil {
			return fmt.Errorf("failed to open session file: %w", err)
		}
		app.logger.Debug("session store opened", "driver", "file", "path", path)

	case "sqlite":
		path := app.cfg.StoragePath
		if path == "" {
			path = filepath.Join(xdg.StateDir(), "session.db")
		}
		if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
			return err
		}
		db, err := sqlite.NewStore(sqlite.DSNForFile(path))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		kv = db
		app.logger.Debug("session store opened", "driver", "sqlite", "path", path)

	default:
		return fmt.Errorf("unknown storage driver %q", app.cfg.StorageDriver)
	}

	if app.cfg.StorageKey != "" {
		sealed, err := store.NewSealed(ctx, kv, []byte(app.cfg.StorageKey))
		if err != nil {
			_ = kv.Close()
			return fmt.Errorf("failed to open sealed store: %w", err)
		}
		kv = sealed
	}

	app.kv = kv
	return nil
}
