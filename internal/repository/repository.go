package repository

import (
	"context"

	"CapIot.telemetry/internal/models"
)

// SnapshotRepository reads JSON snapshots from the remote store. A path with no
// data yields a snapshot whose Exists reports false, not an error.
type SnapshotRepository interface {
	FetchSnapshot(ctx context.Context, path string) (*models.Snapshot, error)
}
