package wallet

import (
	"context"
	"fmt"

	"taash29/apps/server/internal/config"
	"taash29/apps/server/internal/store"
)

// NewService builds the wallet backend selected by cfg.WalletMode and
// makes sure the house wallet exists.
func NewService(ctx context.Context, cfg config.Config) (Service, error) {
	var svc Service
	switch cfg.WalletMode {
	case config.ModeMemory:
		svc = NewMemoryService()
	case config.ModeSQLite:
		path, err := store.LocalDatabasePath(cfg.LocalDatabasePath)
		if err != nil {
			return nil, err
		}
		db, err := store.OpenSQLite(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open wallet sqlite: %w", err)
		}
		s, err := NewSQLiteService(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		svc = s
	case config.ModePostgres:
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open wallet postgres: %w", err)
		}
		s, err := NewPostgresService(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		svc = s
	default:
		return nil, fmt.Errorf("invalid WALLET_MODE %q", cfg.WalletMode)
	}

	if _, err := svc.Ensure(ctx, cfg.HouseIdentity, 0, true); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("ensure house wallet: %w", err)
	}
	return svc, nil
}
