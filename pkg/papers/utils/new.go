// Package papersutils is the metadata store utility package
package papersutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/papers"
	"github.com/shelfworksco/stacks/pkg/papers/inmemory"
	"github.com/shelfworksco/stacks/pkg/papers/postgres"
	"github.com/shelfworksco/stacks/pkg/papers/sqlite"
)

type NewStoreOpts struct {
	Provider    string
	SQLitePath  string
	PostgresURL string
	Logger      *zap.Logger
}

func NewStore(ctx context.Context, o *NewStoreOpts) (papers.Store, error) {
	switch o.Provider {
	case "memory":
		o.Logger.Info("using in-memory metadata store")
		return inmemory.NewStore(), nil
	case "sqlite":
		o.Logger.Info("using SQLite metadata store", zap.String("path", o.SQLitePath))
		return sqlite.NewStore(o.SQLitePath)
	case "postgres":
		o.Logger.Info("using PostgreSQL metadata store")
		return postgres.NewStore(ctx, o.PostgresURL)
	default:
		return nil, fmt.Errorf("unsupported metadata store provider: %s", o.Provider)
	}
}
