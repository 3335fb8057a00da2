// Package store persists assembled results so shareable URLs survive the
// in-memory cache. Two drivers are supported: postgres and sqlite.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/enviducate/enviducate/internal/model"
)

// ErrNotFound is returned when no result exists for an id or share token.
var ErrNotFound = fmt.Errorf("store: result not found")

// Store defines the persistence interface for assembled results.
type Store interface {
	SaveResult(ctx context.Context, result *model.EnvironmentalResult) error
	GetResult(ctx context.Context, id string) (*model.EnvironmentalResult, error)
	GetResultByShareToken(ctx context.Context, token string) (*model.EnvironmentalResult, error)
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	case "sqlite":
		return NewSQLite(databaseURL)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}
