package auth

import (
	"context"
	"fmt"

	"taash29/apps/server/internal/config"
	"taash29/apps/server/internal/store"
)

// NewService builds the auth backend selected by cfg.AuthMode.
func NewService(ctx context.Context, cfg config.Config) (Service, error) {
	switch cfg.AuthMode {
	case config.ModeMemory:
		return NewManager(cfg.SessionTTL), nil
	case config.ModeSQLite:
		path, err := store.LocalDatabasePath(cfg.LocalDatabasePath)
		if err != nil {
			return nil, err
		}
		db, err := store.OpenSQLite(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open auth sqlite: %w", err)
		}
		m, err := NewSQLiteManager(ctx, db, cfg.SessionTTL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return m, nil
	case config.ModePostgres:
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open auth postgres: %w", err)
		}
		m, err := NewPostgresManager(ctx, db, cfg.SessionTTL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("invalid AUTH_MODE %q", cfg.AuthMode)
}
