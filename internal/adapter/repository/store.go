package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/database"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

// NewStore opens the target store selected by store.driver and verifies it is reachable.
// An unreachable store is fatal for the run.
func NewStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	var store repository.Store

	switch cfg.Store.Driver {
	case config.StoreDriverSupabase:
		store = NewSupabaseStore(cfg.Store.Supabase, cfg.Store.InvoiceProcedure, cfg.HTTP.Timeout,
			log.With(zap.String("store", config.StoreDriverSupabase)))

	case config.StoreDriverPostgres:
		db, err := database.NewConnection(ctx, &cfg.Store.Database, log)
		if err != nil {
			return nil, errors.Unavailable("target store unreachable", err)
		}
		pgStore, err := NewPostgresStore(db, cfg.Store.InvoiceProcedure,
			log.With(zap.String("store", config.StoreDriverPostgres)))
		if err != nil {
			_ = database.Close(db, log)
			return nil, errors.Config("invalid store configuration", err)
		}
		store = pgStore

	default:
		return nil, errors.Config(fmt.Sprintf("unsupported store driver %q", cfg.Store.Driver), nil)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Unavailable("target store unreachable", err)
	}
	return store, nil
}
