package storage

import (
	"context"
	"fmt"

	"github.com/xavierca1/leadflow/internal/usecase"
	"go.uber.org/zap"
)

// Store is a key-value store that owns resources.
type Store interface {
	usecase.KeyValueStore
	Close() error
}

type fileCloser struct {
	*FileStore
}

func (fileCloser) Close() error { return nil }

// Open returns the Postgres store when databaseURL is set and the JSON
// file store at path otherwise.
func Open(ctx context.Context, databaseURL, path string, logger *zap.Logger) (Store, error) {
	if databaseURL != "" {
		db, err := NewDBConnection(databaseURL)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate kv store: %w", err)
		}
		logger.Info("using postgres store")
		return store, nil
	}

	fs, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	logger.Info("using file store", zap.String("path", path))
	return fileCloser{fs}, nil
}
