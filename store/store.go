// Package store names the persistence contract shared by the backends in
// store/memory, store/sqlite and store/mongo.
package store

import (
	"context"

	"ai_creation_broker/creation"
)

// Store is a creation store that also keeps the per-user free-usage counters.
type Store interface {
	creation.Store

	// FreeUsage returns userID's counter, 0 if the user has none yet.
	FreeUsage(ctx context.Context, userID string) (int, error)
	// UpdateFreeUsage overwrites userID's counter with value.
	UpdateFreeUsage(ctx context.Context, userID string, value int) error

	Ping(ctx context.Context) error
	Close() error
}
