package store

import (
	"context"
	"errors"

	"github.com/joescharf/shiplog/internal/models"
)

// ErrNotFound is returned when no snapshot has been stored yet.
var ErrNotFound = errors.New("snapshot not found")

// Store defines the persistence interface for shiplog.
type Store interface {
	// Snapshots
	SaveSnapshot(ctx context.Context, projectKey string, issues []models.Issue) (*models.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*models.Snapshot, error)
	PruneSnapshots(ctx context.Context, keep int) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
